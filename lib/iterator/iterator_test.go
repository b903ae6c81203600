// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package iterator

import (
	"errors"
	"testing"
)

type pair struct {
	key, value string
}

// sliceIterator walks a fixed list of pairs. When failAt is non-negative
// the Next call that would move onto that index fails instead.
type sliceIterator struct {
	pairs  []pair
	index  int
	failAt int
}

func newSlice(pairs ...pair) *sliceIterator {
	return &sliceIterator{pairs: pairs, failAt: -1}
}

func (s *sliceIterator) Key() []byte   { return []byte(s.pairs[s.index].key) }
func (s *sliceIterator) Value() []byte { return []byte(s.pairs[s.index].value) }
func (s *sliceIterator) Valid() bool   { return s.index < len(s.pairs) }

func (s *sliceIterator) Next() error {
	if s.index+1 == s.failAt {
		return errInjected
	}
	s.index++
	return nil
}

var errInjected = errors.New("injected failure")

func collect(t *testing.T, it Iterator) []pair {
	t.Helper()
	var result []pair
	for it.Valid() {
		result = append(result, pair{string(it.Key()), string(it.Value())})
		if err := it.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	return result
}

func expectPairs(t *testing.T, got, want []pair) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d pairs %v, want %d pairs %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name       string
		bound      Bound
		key        string
		aboveLower bool
		belowUpper bool
	}{
		{"unbounded", Unbounded(), "m", true, true},
		{"included equal", Included([]byte("m")), "m", true, true},
		{"excluded equal", Excluded([]byte("m")), "m", false, false},
		{"below", Included([]byte("m")), "a", false, true},
		{"above", Excluded([]byte("m")), "z", true, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := AboveLower(test.bound, []byte(test.key)); got != test.aboveLower {
				t.Errorf("AboveLower = %v, want %v", got, test.aboveLower)
			}
			if got := BelowUpper(test.bound, []byte(test.key)); got != test.belowUpper {
				t.Errorf("BelowUpper = %v, want %v", got, test.belowUpper)
			}
		})
	}
}

func TestBoundClone(t *testing.T) {
	key := []byte("abc")
	clone := Included(key).Clone()
	key[0] = 'x'
	if string(clone.Key) != "abc" {
		t.Errorf("clone aliases caller key: %q", clone.Key)
	}
	if Unbounded().Clone().Key != nil {
		t.Error("unbounded clone gained a key")
	}
}

func TestMergePrefersEarlierInput(t *testing.T) {
	first := newSlice(pair{"a", "1.1"}, pair{"b", "2.1"}, pair{"c", "3.1"})
	second := newSlice(pair{"a", "1.2"}, pair{"b", "2.2"}, pair{"c", "3.2"}, pair{"d", "4.2"})
	third := newSlice(pair{"b", "2.3"}, pair{"c", "3.3"}, pair{"d", "4.3"})

	merged := NewMergeIterator([]Iterator{first, second, third})
	expectPairs(t, collect(t, merged), []pair{
		{"a", "1.1"}, {"b", "2.1"}, {"c", "3.1"}, {"d", "4.2"},
	})
}

func TestMergeInterleaved(t *testing.T) {
	first := newSlice(pair{"a", "1"}, pair{"e", "5"})
	second := newSlice(pair{"b", "2"}, pair{"d", "4"})
	third := newSlice(pair{"c", "3"}, pair{"e", "stale"})

	merged := NewMergeIterator([]Iterator{first, second, third})
	expectPairs(t, collect(t, merged), []pair{
		{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}, {"e", "5"},
	})
}

func TestMergeKeepsTombstones(t *testing.T) {
	newer := newSlice(pair{"a", ""})
	older := newSlice(pair{"a", "old"}, pair{"b", "2"})

	merged := NewMergeIterator([]Iterator{newer, older})
	expectPairs(t, collect(t, merged), []pair{{"a", ""}, {"b", "2"}})
}

func TestMergeEmpty(t *testing.T) {
	merged := NewMergeIterator(nil)
	if merged.Valid() {
		t.Fatal("merge of nothing is valid")
	}
	if err := merged.Next(); err != nil {
		t.Fatalf("Next on exhausted merge: %v", err)
	}

	merged = NewMergeIterator([]Iterator{newSlice(), nil, newSlice()})
	if merged.Valid() {
		t.Fatal("merge of empty inputs is valid")
	}
}

func TestMergePropagatesError(t *testing.T) {
	failing := newSlice(pair{"a", "1"}, pair{"b", "2"})
	failing.failAt = 1

	merged := NewMergeIterator([]Iterator{failing, newSlice(pair{"c", "3"})})
	if err := merged.Next(); !errors.Is(err, errInjected) {
		t.Fatalf("Next error = %v, want injected failure", err)
	}
}

func TestTwoMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b []pair
		want []pair
	}{
		{
			name: "a shadows b",
			a:    []pair{{"a", "1.a"}, {"c", "3.a"}},
			b:    []pair{{"a", "1.b"}, {"b", "2.b"}, {"c", "3.b"}},
			want: []pair{{"a", "1.a"}, {"b", "2.b"}, {"c", "3.a"}},
		},
		{
			name: "a empty",
			b:    []pair{{"a", "1"}, {"b", "2"}},
			want: []pair{{"a", "1"}, {"b", "2"}},
		},
		{
			name: "b empty",
			a:    []pair{{"a", "1"}},
			want: []pair{{"a", "1"}},
		},
		{
			name: "both empty",
		},
		{
			name: "b trails",
			a:    []pair{{"a", "1"}},
			b:    []pair{{"x", "24"}, {"y", "25"}},
			want: []pair{{"a", "1"}, {"x", "24"}, {"y", "25"}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			merged, err := NewTwoMergeIterator(newSlice(test.a...), newSlice(test.b...))
			if err != nil {
				t.Fatalf("NewTwoMergeIterator: %v", err)
			}
			expectPairs(t, collect(t, merged), test.want)
		})
	}
}

func TestFusedStaysInvalidAfterError(t *testing.T) {
	failing := newSlice(pair{"a", "1"}, pair{"b", "2"})
	failing.failAt = 1
	fused := NewFusedIterator(failing)

	if !fused.Valid() {
		t.Fatal("fused iterator starts invalid")
	}
	if err := fused.Next(); !errors.Is(err, errInjected) {
		t.Fatalf("first Next = %v, want injected failure", err)
	}
	if fused.Valid() {
		t.Error("fused iterator valid after error")
	}
	failing.failAt = -1
	if err := fused.Next(); !errors.Is(err, errInjected) {
		t.Errorf("second Next = %v, want sticky injected failure", err)
	}
	if !errors.Is(fused.Err(), errInjected) {
		t.Errorf("Err = %v", fused.Err())
	}
}

func TestFusedNextOnExhausted(t *testing.T) {
	fused := NewFusedIterator(newSlice(pair{"a", "1"}))
	if err := fused.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := fused.Next(); err != nil {
			t.Fatalf("Next past end: %v", err)
		}
	}
	if fused.Valid() {
		t.Error("exhausted iterator is valid")
	}
}
