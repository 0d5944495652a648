// Modifications copyright (c) Arista Networks, Inc. 2023
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chainmap provides the Map type, which implements a hash
// table using separately chained buckets. Like Go's built-in map it
// maps unique keys to values, with the additional requirement that
// users provide an equal and a hash function, which admits key types
// the built-in map cannot hold.
//
// The following requirements are the user's responsibility to follow:
//   - equal(a, b) => hash(a) == hash(b)
//   - equal(a, a) must be true for all values of a. Be careful around NaN
//     float values. Go's built-in `map` has special cases for handling
//     this, but `Map` does not.
//   - If a key in a `Map` contains references -- such as pointers, maps,
//     or slices -- modifying the referenced data in a way that effects
//     the result of the equal or hash functions will result in undefined
//     behavior.
//   - For good performance hash functions should return uniformly
//     distributed data across the entire 64-bits of the value.
//
// A Map is not safe for concurrent use. Concurrent writers are
// detected on a best-effort basis and panic. Pointers handed out by
// the Entry API alias the Map's storage and are valid only until the
// next mutating call; see the Entry documentation.
package chainmap

// The data is arranged into an array of buckets, where each bucket is
// a growable slice of key/elem pairs. The low-order bits of a key's
// hash select its bucket; collisions are resolved by scanning the
// bucket linearly with the equal function.
//
// The bucket count is always a power of two, so the bucket index is
// computed by masking the hash. When the count of stored pairs
// exceeds 3/4 of the bucket count, a bucket array twice as large is
// allocated and every pair is rehashed into it. The check happens
// before an insert touches a bucket, never after, so a new pair is
// placed at most once and the very first insert allocates the initial
// bucket.
//
// Deleting moves the bucket's last pair into the vacated slot rather
// than shifting the tail down, keeping removal cost independent of
// the bucket length. In-bucket order is insertion order only until
// the first delete.
//
// Map iterators walk the array of buckets in ascending order and each
// bucket front to back. The walk for a given table state is
// deterministic, but grows and deletes rearrange pairs, so no order
// is ever part of the contract.

import (
	"hash/maphash"
)

const (
	// Number of buckets allocated by the first insert.
	initialBuckets = 1

	// Maximum load (count of pairs over bucket count) before the
	// table grows is 3/4. Represented as loadFactorNum/loadFactorDen,
	// to allow integer math.
	loadFactorNum = 3
	loadFactorDen = 4

	// flags
	hashWriting = 1 // a goroutine is writing to the map
)

// Map implements a hashmap.
type Map[K, E any] struct {
	count int // # live pairs == size of map
	flags uint32
	// gen counts mutating calls. Entry handles and Iterators capture
	// it to detect use across a later mutation.
	gen uint64

	// array of buckets. nil until the first insert unless a size hint
	// was given. len(buckets) is always zero or a power of two.
	buckets [][]KeyElem[K, E]

	seed maphash.Seed

	hash  func(maphash.Seed, K) uint64
	equal func(K, K) bool
}

// KeyElem contains a Key and Elem.
type KeyElem[K, E any] struct {
	Key  K
	Elem E
}

// New instantiates a new Map initialized with any KeyElems passed.
// The equal func must return true for two values of K that are equal
// and false otherwise. The hash func should return a uniformly
// distributed hash value. If equal(a, b) then hash(a) == hash(b). The
// hash function is passed a [hash/maphash.Seed], this is meant to be
// used with functions and types in the [hash/maphash] package, though
// can be ignored.
//
// A Map created without KeyElems holds no buckets; the first insert
// allocates them.
func New[K, E any](
	equal func(a, b K) bool,
	hash func(maphash.Seed, K) uint64,
	kes ...KeyElem[K, E]) *Map[K, E] {

	if len(kes) == 0 {
		return NewHint[K, E](0, equal, hash)
	}
	m := NewHint[K, E](len(kes), equal, hash)
	for _, ke := range kes {
		m.Set(ke.Key, ke.Elem)
	}
	return m
}

// NewHint instantiates a new Map with a hint as to how many elements
// will be inserted. See [New] for discussion of the equal and hash
// arguments.
func NewHint[K, E any](
	hint int,
	equal func(a, b K) bool,
	hash func(maphash.Seed, K) uint64) *Map[K, E] {

	if hint <= 0 {
		return &Map[K, E]{seed: maphash.MakeSeed(), hash: hash, equal: equal}
	}
	nbuckets := initialBuckets
	for overLoadFactor(hint, nbuckets) {
		nbuckets *= 2
	}
	return &Map[K, E]{
		seed:    maphash.MakeSeed(),
		buckets: makeBucketArray[K, E](nbuckets),
		hash:    hash,
		equal:   equal,
	}
}

func makeBucketArray[K, E any](nbuckets int) [][]KeyElem[K, E] {
	if nbuckets&(nbuckets-1) != 0 {
		panic("nbuckets is not power of 2")
	}
	return make([][]KeyElem[K, E], nbuckets)
}

// Len returns the count of pairs in m.
func (m *Map[K, E]) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}

// IsEmpty reports whether m holds no pairs.
func (m *Map[K, E]) IsEmpty() bool {
	return m.Len() == 0
}

// Get returns the element associated with key and true if that key is
// in the Map, otherwise it returns the zero value of E and false.
func (m *Map[K, E]) Get(key K) (E, bool) {
	if e := m.mapaccess(key); e != nil {
		return *e, true
	}
	var zeroE E
	return zeroE, false
}

// Contains reports whether key is in the Map.
func (m *Map[K, E]) Contains(key K) bool {
	return m.mapaccess(key) != nil
}

// mapaccess returns a pointer to the elem stored under key, or nil if
// key is not in m. The count check doubles as the empty-table guard:
// a Map that has never grown has no buckets to index into.
func (m *Map[K, E]) mapaccess(key K) *E {
	if m == nil || m.count == 0 {
		return nil
	}
	b := m.buckets[m.hash(m.seed, key)&m.bucketMask()]
	for i := range b {
		if m.equal(key, b[i].Key) {
			return &b[i].Elem
		}
	}
	return nil
}

// Set associates key with elem in m. It returns the element the key
// was previously associated with, and whether such an element was
// replaced.
func (m *Map[K, E]) Set(key K, elem E) (prev E, replaced bool) {
	if m == nil {
		// We have to panic here rather than initialize an empty map
		// because we need the user to pass in hash and equal
		// functions
		panic("Set called on nil map")
	}
	if m.flags&hashWriting != 0 {
		panic("concurrent map writes")
	}
	hash := m.hash(m.seed, key)
	// Set hashWriting after calling m.hash, since m.hash may panic,
	// in which case we have not actually done a write.
	m.flags ^= hashWriting
	m.gen++

	// The load factor is checked before the lookup, so a Set that
	// only replaces an element can still grow the table.
	if len(m.buckets) == 0 || overLoadFactor(m.count, len(m.buckets)) {
		m.resize()
	}

	b := &m.buckets[hash&m.bucketMask()]
	for i := range *b {
		if !m.equal(key, (*b)[i].Key) {
			continue
		}
		// already have a mapping for key. Update the elem in place,
		// keeping the stored key.
		prev, replaced = (*b)[i].Elem, true
		(*b)[i].Elem = elem
		goto done
	}

	// Did not find a mapping for key. Append the new pair to the
	// bucket.
	*b = append(*b, KeyElem[K, E]{Key: key, Elem: elem})
	m.count++

done:
	if m.flags&hashWriting == 0 {
		panic("concurrent map writes")
	}
	m.flags &^= hashWriting
	return prev, replaced
}

// Delete removes key and its associated element from the map. It
// returns the removed element and whether key was in the Map at all.
func (m *Map[K, E]) Delete(key K) (E, bool) {
	var zeroE E
	if m == nil || m.count == 0 {
		return zeroE, false
	}
	if m.flags&hashWriting != 0 {
		panic("concurrent map writes")
	}
	hash := m.hash(m.seed, key)
	// Set hashWriting after calling m.hash, since m.hash may panic,
	// in which case we have not actually done a write (delete).
	m.flags ^= hashWriting
	m.gen++

	elem, ok := zeroE, false
	b := &m.buckets[hash&m.bucketMask()]
	for i := range *b {
		if m.equal(key, (*b)[i].Key) {
			elem, ok = (*b)[i].Elem, true
			m.removeAt(b, i)
			break
		}
	}

	if m.flags&hashWriting == 0 {
		panic("concurrent map writes")
	}
	m.flags &^= hashWriting
	return elem, ok
}

// removeAt removes the pair at index i of bucket b by moving the
// bucket's last pair into its slot. O(1) in the bucket length, but
// disturbs in-bucket order.
func (m *Map[K, E]) removeAt(b *[]KeyElem[K, E], i int) {
	last := len(*b) - 1
	(*b)[i] = (*b)[last]
	// Clear the vacated tail slot in case K or E have pointers.
	(*b)[last] = KeyElem[K, E]{}
	*b = (*b)[:last]
	m.count--
	// Reset the hash seed to make it more difficult for attackers to
	// repeatedly trigger hash collisions. See issue 25237.
	if m.count == 0 {
		m.seed = maphash.MakeSeed()
	}
}

// Update sets the element stored under key to f applied to the
// current element, starting from the zero value of E when key is not
// in m.
func (m *Map[K, E]) Update(key K, f func(cur E) E) {
	e := m.Entry(key).OrDefault()
	*e = f(*e)
}

// Clear deletes all keys from m. The bucket array is kept.
func (m *Map[K, E]) Clear() {
	if m == nil || m.count == 0 {
		return
	}
	if m.flags&hashWriting != 0 {
		panic("concurrent map writes")
	}
	m.flags ^= hashWriting
	m.gen++

	m.count = 0
	m.seed = maphash.MakeSeed()
	for i := range m.buckets {
		m.buckets[i] = nil
	}

	if m.flags&hashWriting == 0 {
		panic("concurrent map writes")
	}
	m.flags &^= hashWriting
}

// resize replaces the bucket array with one of the next power-of-two
// size and rehashes every stored pair into it: 1 bucket for a table
// that has none yet, double the current count otherwise. The table
// never shrinks. count is unaffected.
func (m *Map[K, E]) resize() {
	target := initialBuckets
	if len(m.buckets) != 0 {
		target = 2 * len(m.buckets)
	}
	newbuckets := makeBucketArray[K, E](target)
	mask := uint64(target - 1)
	for i, b := range m.buckets {
		for _, ke := range b {
			// Keys were unique in the old buckets, so pairs can be
			// appended without scanning for duplicates.
			idx := m.hash(m.seed, ke.Key) & mask
			newbuckets[idx] = append(newbuckets[idx], ke)
		}
		// Drop the drained bucket eagerly to help GC.
		m.buckets[i] = nil
	}
	m.buckets = newbuckets
}

// overLoadFactor reports whether count pairs stored in nbuckets
// buckets is over the 3/4 load factor.
func overLoadFactor(count, nbuckets int) bool {
	return count > loadFactorNum*nbuckets/loadFactorDen
}

func (m *Map[K, E]) bucketMask() uint64 {
	return uint64(len(m.buckets) - 1)
}

// Iterator is instantiated by a call to Iter(). It allows iterating
// over a Map.
type Iterator[K, E any] struct {
	key    K
	elem   E
	m      *Map[K, E]
	gen    uint64
	bucket int
	i      int
}

// Key returns the key at the iterator's current position. This is
// only valid after a call to Next() that returns true.
func (it *Iterator[K, E]) Key() K {
	return it.key
}

// Elem returns the element at the iterator's current position. This
// is only valid after a call to Next() that returns true.
func (it *Iterator[K, E]) Elem() E {
	return it.elem
}

// Iter instantiates an Iterator to explore the elements of the Map.
// The walk visits buckets in ascending order and each bucket front to
// back, so two Iterators over the same unchanged Map yield the same
// sequence. Mutating the Map invalidates its Iterators: the next call
// to Next() panics.
func (m *Map[K, E]) Iter() *Iterator[K, E] {
	if m == nil || m.count == 0 {
		return &Iterator[K, E]{}
	}
	return &Iterator[K, E]{m: m, gen: m.gen}
}

// Next moves the iterator to the next element. Next returns false
// when the iterator is complete.
func (it *Iterator[K, E]) Next() bool {
	m := it.m
	if m == nil {
		return false
	}
	if it.gen != m.gen {
		panic("map mutated during iteration")
	}
	for it.bucket < len(m.buckets) {
		b := m.buckets[it.bucket]
		if it.i < len(b) {
			it.key = b[it.i].Key
			it.elem = b[it.i].Elem
			it.i++
			return true
		}
		it.bucket++
		it.i = 0
	}
	// end of iteration
	var (
		zeroK K
		zeroE E
	)
	it.key = zeroK
	it.elem = zeroE
	it.m = nil
	return false
}
