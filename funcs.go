// Modifications copyright (c) Arista Networks, Inc. 2023
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chainmap

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// String converts m to a string representation using K's and E's
// String functions.
func String[K fmt.Stringer, E fmt.Stringer](m *Map[K, E]) string {
	return StringFunc(m,
		func(key K) string { return key.String() },
		func(elem E) string { return elem.String() },
	)
}

// String converts m to a string representation using the fmt
// package's default formats for m's keys and elems.
func (m *Map[K, E]) String() string {
	return StringFunc(m,
		func(key K) string { return fmt.Sprint(key) },
		func(elem E) string { return fmt.Sprint(elem) },
	)
}

type strKE struct {
	k string
	e string
}

// StringFunc converts m to a string representation with the help of
// strK and strE functions to stringify m's keys and elems. Entries
// are sorted by stringified key so the result is stable for a given
// set of pairs.
func StringFunc[K any, E any](m *Map[K, E],
	strK func(key K) string,
	strE func(elem E) string) string {
	if m == nil || m.Len() == 0 {
		return "chainmap.Map[]"
	}
	strs := make([]strKE, m.Len())
	s := 0
	i := 0
	for it := m.Iter(); it.Next(); {
		ke := &strs[i]
		ke.k = strK(it.Key())
		ke.e = strE(it.Elem())
		s += len(ke.k) + len(ke.e)
		i++
	}
	slices.SortFunc(strs, func(a, b strKE) bool { return a.k < b.k })

	var b strings.Builder
	b.Grow(len("chainmap.Map[]") + // space for header and footer
		len(strs)*2 - 1 + // space for delimiters
		s) // space for keys and elems
	b.WriteString("chainmap.Map[")
	for i, ke := range strs {
		if i != 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ke.k)
		b.WriteByte(':')
		b.WriteString(ke.e)
	}
	b.WriteByte(']')
	return b.String()
}

// Equal returns true if the same set of keys and elems are in m1 and
// m2. Elements are compared using ==.
func Equal[K any, E comparable](m1, m2 *Map[K, E]) bool {
	if m1.Len() != m2.Len() {
		return false
	}
	for it := m1.Iter(); it.Next(); {
		e2, ok := m2.Get(it.Key())
		if !ok || it.Elem() != e2 {
			return false
		}
	}
	return true
}

// EqualFunc returns true if the same set of keys and elems are in m1
// and m2. Elements are compared using eq.
func EqualFunc[K, E any](m1, m2 *Map[K, E], eq func(E, E) bool) bool {
	if m1.Len() != m2.Len() {
		return false
	}
	for it := m1.Iter(); it.Next(); {
		e2, ok := m2.Get(it.Key())
		if !ok || !eq(it.Elem(), e2) {
			return false
		}
	}
	return true
}

// GetFunc returns the element associated with a key equivalent to q
// and true if such a key is in the Map, otherwise it returns the zero
// value of E and false. hash and eq relate the lookup type Q to the
// key type K: whenever eq(q, k), hash must give q the same sum the
// Map's own hash function gives k.
//
// GetFunc allows lookups without constructing a K. The classic pair
// is a Map keyed by []byte queried with a string: [maphash.Bytes] and
// [maphash.String] produce the same sums for the same bytes.
func GetFunc[K, E, Q any](m *Map[K, E], q Q,
	hash func(maphash.Seed, Q) uint64,
	eq func(Q, K) bool) (E, bool) {

	var zeroE E
	if m == nil || m.count == 0 {
		return zeroE, false
	}
	b := m.buckets[hash(m.seed, q)&m.bucketMask()]
	for i := range b {
		if eq(q, b[i].Key) {
			return b[i].Elem, true
		}
	}
	return zeroE, false
}

// ContainsFunc reports whether a key equivalent to q is in the Map.
// See GetFunc for the hash and eq contract.
func ContainsFunc[K, E, Q any](m *Map[K, E], q Q,
	hash func(maphash.Seed, Q) uint64,
	eq func(Q, K) bool) bool {

	_, ok := GetFunc(m, q, hash, eq)
	return ok
}

// DeleteFunc removes the pair stored under a key equivalent to q from
// the Map. It returns the removed element and whether an equivalent
// key was in the Map at all. See GetFunc for the hash and eq
// contract.
func DeleteFunc[K, E, Q any](m *Map[K, E], q Q,
	hash func(maphash.Seed, Q) uint64,
	eq func(Q, K) bool) (E, bool) {

	var zeroE E
	if m == nil || m.count == 0 {
		return zeroE, false
	}
	if m.flags&hashWriting != 0 {
		panic("concurrent map writes")
	}
	h := hash(m.seed, q)
	// Set hashWriting after calling hash, since hash may panic, in
	// which case we have not actually done a write (delete).
	m.flags ^= hashWriting
	m.gen++

	elem, ok := zeroE, false
	b := &m.buckets[h&m.bucketMask()]
	for i := range *b {
		if eq(q, (*b)[i].Key) {
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

// IntHash hashes n with maphash using n's 8-byte little-endian
// encoding. It can be passed to [New] as the hash function for any
// integer key type.
func IntHash[N constraints.Integer](seed maphash.Seed, n N) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	return maphash.Bytes(seed, buf[:])
}
