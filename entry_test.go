// Modifications copyright (c) Arista Networks, Inc. 2024
// Underlying
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chainmap

import (
	"hash/maphash"
	"testing"
)

func TestEntryOrInsert(t *testing.T) {
	m := New[string, int](func(a, b string) bool { return a == b }, maphash.String)

	p := m.Entry("a").OrInsert(1)
	if *p != 1 {
		t.Errorf("OrInsert on an absent key = %d expected: 1", *p)
	}
	if m.Len() != 1 {
		t.Errorf("expected len: 1 got: %d", m.Len())
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf(`unexpected value for "a": %d, %t`, v, ok)
	}

	// A second OrInsert finds the stored element and never overwrites
	// it.
	p = m.Entry("a").OrInsert(100)
	if *p != 1 {
		t.Errorf("OrInsert on a present key = %d expected: 1", *p)
	}
	if m.Len() != 1 {
		t.Errorf("expected len: 1 got: %d", m.Len())
	}

	// The returned pointer aliases the element stored in the map.
	*p = 7
	if v, _ := m.Get("a"); v != 7 {
		t.Errorf(`unexpected value for "a" after writing through the pointer: %d`, v)
	}
}

func TestEntryOrDefault(t *testing.T) {
	m := New[string, []string](func(a, b string) bool { return a == b }, maphash.String)
	for i := 0; i < 3; i++ {
		words := m.Entry("k").OrDefault()
		*words = append(*words, "x")
	}
	got, ok := m.Get("k")
	if !ok {
		t.Fatal(`m missing key: "k"`)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 appended words got: %v", got)
	}
}

func TestEntryOnEmptyMap(t *testing.T) {
	// The first Entry on a fresh map allocates the initial bucket, just
	// like the first Set would.
	m := New[string, int](func(a, b string) bool { return a == b }, maphash.String)
	p := m.Entry("x").OrDefault()
	if *p != 0 {
		t.Errorf("OrDefault on an absent key = %d expected: 0", *p)
	}
	if v, ok := m.Get("x"); !ok || v != 0 {
		t.Errorf(`unexpected value for "x": %d, %t`, v, ok)
	}
	if m.Len() != 1 {
		t.Errorf("expected len: 1 got: %d", m.Len())
	}
}

func TestEntryGrowsAtCreation(t *testing.T) {
	// Entry checks the load factor when it captures the bucket, so the
	// insert through it cannot land in a bucket the next grow would
	// abandon.
	m := New[uint64, uint64](func(a, b uint64) bool { return a == b }, badIntHash)
	for i := uint64(0); i < 4; i++ {
		m.Set(i, i)
	}
	if len(m.buckets) != 4 {
		t.Fatalf("expected 4 buckets got: %d", len(m.buckets))
	}
	e := m.Entry(4)
	if len(m.buckets) != 8 {
		t.Errorf("expected Entry to grow the table to 8 buckets got: %d", len(m.buckets))
	}
	if p := e.OrInsert(4); *p != 4 {
		t.Errorf("OrInsert(4) = %d expected: 4", *p)
	}
	if m.Len() != 5 {
		t.Errorf("expected len: 5 got: %d", m.Len())
	}
	for i := uint64(0); i <= 4; i++ {
		if v, ok := m.Get(i); !ok || v != i {
			t.Errorf("unexpected value for %d: %d, %t", i, v, ok)
		}
	}
}

func TestEntryStalePanics(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(m *Map[int, int])
	}{
		{name: "set", mutate: func(m *Map[int, int]) { m.Set(2, 2) }},
		{name: "delete", mutate: func(m *Map[int, int]) { m.Delete(1) }},
		{name: "clear", mutate: func(m *Map[int, int]) { m.Clear() }},
		{name: "entry", mutate: func(m *Map[int, int]) { m.Entry(2) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := New[int, int](func(a, b int) bool { return a == b }, IntHash[int])
			m.Set(1, 1)
			e := m.Entry(1)
			tc.mutate(m)
			defer func() {
				if recover() == nil {
					t.Error("expected OrInsert to panic after mutation")
				}
			}()
			e.OrInsert(10)
		})
	}
}

func TestEntryConsumedPanics(t *testing.T) {
	m := New[int, int](func(a, b int) bool { return a == b }, IntHash[int])
	e := m.Entry(1)
	e.OrInsert(1)
	defer func() {
		if recover() == nil {
			t.Error("expected reuse of a consumed Entry to panic")
		}
	}()
	e.OrDefault()
}

func TestEntryNilMapPanics(t *testing.T) {
	var m *Map[int, int]
	defer func() {
		if recover() == nil {
			t.Error("expected Entry on nil map to panic")
		}
	}()
	m.Entry(1)
}

func TestEntryOccupiedDoesNotInvalidate(t *testing.T) {
	m := New[int, int](func(a, b int) bool { return a == b }, IntHash[int])
	m.Set(1, 1)
	e := m.Entry(1)
	it := m.Iter()
	if p := e.OrInsert(100); *p != 1 {
		t.Errorf("OrInsert on a present key = %d expected: 1", *p)
	}
	// Consuming an occupied Entry only reads the map, so the iterator
	// created after it is still good.
	if !it.Next() {
		t.Error("unexpected end of iter")
	}
}
