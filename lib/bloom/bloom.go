// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bloom implements the per-table bloom filter that lets point
// lookups skip tables which cannot contain a key.
//
// Bit positions use double hashing (Kirsch–Mitzenmacher) derived from one
// 64-bit xxhash of the key: h, h+δ, h+2δ, ... where δ is the hash
// rotated by 17 bits. Encoded layout: | bit array | k (u8) |.
package bloom

import (
	"errors"
	"math"

	"github.com/cespare/xxhash/v2"
)

// DefaultBitsPerKey gives roughly a 1% false-positive rate.
const DefaultBitsPerKey = 10

const maxHashCount = 30

// ErrCorrupt is returned when decoding a filter whose hash count is
// out of range.
var ErrCorrupt = errors.New("corrupt bloom filter")

// Filter is an immutable bloom filter.
type Filter struct {
	bits      []byte
	hashCount uint8
}

// Hash returns the filter hash of key. Builders collect these while
// keys stream past and call Build once at the end.
func Hash(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// Build constructs a filter over the given key hashes.
func Build(hashes []uint64, bitsPerKey int) *Filter {
	if bitsPerKey <= 0 {
		bitsPerKey = DefaultBitsPerKey
	}
	hashCount := int(math.Round(float64(bitsPerKey) * math.Ln2))
	hashCount = min(max(hashCount, 1), maxHashCount)

	bitCount := max(len(hashes)*bitsPerKey, 64)
	byteCount := (bitCount + 7) / 8
	bitCount = byteCount * 8

	filter := &Filter{bits: make([]byte, byteCount), hashCount: uint8(hashCount)}
	for _, hash := range hashes {
		delta := hash>>17 | hash<<47
		for i := 0; i < hashCount; i++ {
			position := hash % uint64(bitCount)
			filter.bits[position/8] |= 1 << (position % 8)
			hash += delta
		}
	}
	return filter
}

// MayContain reports whether key may have been added. False means the
// key was definitely not added.
func (f *Filter) MayContain(key []byte) bool {
	return f.MayContainHash(Hash(key))
}

// MayContainHash is MayContain for a precomputed Hash.
func (f *Filter) MayContainHash(hash uint64) bool {
	bitCount := uint64(len(f.bits)) * 8
	if bitCount == 0 {
		return true
	}
	delta := hash>>17 | hash<<47
	for i := uint8(0); i < f.hashCount; i++ {
		position := hash % bitCount
		if f.bits[position/8]&(1<<(position%8)) == 0 {
			return false
		}
		hash += delta
	}
	return true
}

// Encode serializes the filter.
func (f *Filter) Encode() []byte {
	encoded := make([]byte, len(f.bits)+1)
	copy(encoded, f.bits)
	encoded[len(f.bits)] = f.hashCount
	return encoded
}

// Decode parses an encoded filter. The returned filter aliases data.
func Decode(data []byte) (*Filter, error) {
	if len(data) < 1 {
		return nil, ErrCorrupt
	}
	hashCount := data[len(data)-1]
	if hashCount == 0 || hashCount > maxHashCount {
		return nil, ErrCorrupt
	}
	return &Filter{bits: data[:len(data)-1], hashCount: hashCount}, nil
}
