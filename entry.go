// Modifications copyright (c) Arista Networks, Inc. 2024
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chainmap

// Entry is a view into a single slot of a Map: either the pair
// already stored under a key, or the place in a bucket where that
// pair would go. It defers the decision of what to insert to the
// caller, so the key is hashed and its bucket scanned only once for a
// get-or-insert.
//
// An Entry is bound to the state of the Map that produced it. Any
// later mutating call (Set, Delete, Clear, another Entry) invalidates
// it, as does consuming it with OrInsert or OrDefault; using an
// invalid Entry panics. The element pointer returned by OrInsert and
// OrDefault aliases the Map's storage and is likewise valid only
// until the next mutating call, but that cannot be checked at
// runtime.
type Entry[K, E any] struct {
	m      *Map[K, E]
	key    K
	gen    uint64
	bucket int
	pos    int // index of the pair in its bucket, or -1 when vacant
}

// Entry returns an Entry for key, locating the stored pair if there
// is one. The load factor is checked up front, exactly as for Set, so
// an insert through the returned Entry lands in the bucket captured
// here and never grows the table itself.
//
// Entry takes the key by value; when the key turns out to be stored
// already, the copy is dropped once the Entry is consumed.
func (m *Map[K, E]) Entry(key K) *Entry[K, E] {
	if m == nil {
		// We have to panic here rather than initialize an empty map
		// because we need the user to pass in hash and equal
		// functions
		panic("Entry called on nil map")
	}
	if m.flags&hashWriting != 0 {
		panic("concurrent map writes")
	}
	hash := m.hash(m.seed, key)
	// Set hashWriting after calling m.hash, since m.hash may panic,
	// in which case we have not actually done a write.
	m.flags ^= hashWriting
	m.gen++

	if len(m.buckets) == 0 || overLoadFactor(m.count, len(m.buckets)) {
		m.resize()
	}

	e := &Entry[K, E]{m: m, key: key, gen: m.gen, pos: -1}
	e.bucket = int(hash & m.bucketMask())
	b := m.buckets[e.bucket]
	for i := range b {
		if m.equal(key, b[i].Key) {
			e.pos = i
			break
		}
	}

	if m.flags&hashWriting == 0 {
		panic("concurrent map writes")
	}
	m.flags &^= hashWriting
	return e
}

// OrInsert returns a pointer to the element stored under the Entry's
// key, inserting elem first if the key was not in the Map. An element
// that was already stored is never overwritten.
//
// OrInsert consumes the Entry. The returned pointer may be used to
// read or replace the element until the Map's next mutating call.
func (e *Entry[K, E]) OrInsert(elem E) *E {
	m := e.m
	if m == nil {
		panic("entry already consumed")
	}
	if e.gen != m.gen {
		panic("entry used after map mutation")
	}
	e.m = nil

	if e.pos >= 0 {
		return &m.buckets[e.bucket][e.pos].Elem
	}

	if m.flags&hashWriting != 0 {
		panic("concurrent map writes")
	}
	m.flags ^= hashWriting
	m.gen++

	// The Entry checked the load factor when it captured the bucket,
	// so the pair can be appended directly.
	b := &m.buckets[e.bucket]
	*b = append(*b, KeyElem[K, E]{Key: e.key, Elem: elem})
	m.count++

	if m.flags&hashWriting == 0 {
		panic("concurrent map writes")
	}
	m.flags &^= hashWriting
	return &(*b)[len(*b)-1].Elem
}

// OrDefault is OrInsert with the zero value of E.
func (e *Entry[K, E]) OrDefault() *E {
	var zeroE E
	return e.OrInsert(zeroE)
}
