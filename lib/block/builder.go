// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package block

import (
	"encoding/binary"
	"math"
)

// MaxKeySize and MaxValueSize are imposed by the u16 length prefixes.
const (
	MaxKeySize   = math.MaxUint16
	MaxValueSize = math.MaxUint16
)

// Builder accumulates sorted entries into a block of bounded size.
type Builder struct {
	blockSize int
	data      []byte
	offsets   []uint16
	firstKey  []byte
}

// NewBuilder returns a builder targeting blockSize encoded bytes.
func NewBuilder(blockSize int) *Builder {
	return &Builder{blockSize: blockSize}
}

// Add appends an entry. It returns false, leaving the builder
// unchanged, when the entry would push the encoded block past the
// target size. The first entry is always accepted so that an entry
// larger than the block size still gets a block of its own.
//
// Keys must be added in strictly increasing order and must be
// non-empty; key and value lengths must fit in a u16.
func (b *Builder) Add(key, value []byte) bool {
	if len(key) == 0 || len(key) > MaxKeySize || len(value) > MaxValueSize {
		panic("block: key or value length out of range")
	}

	entrySize := sizeOfU16 + len(key) + sizeOfU16 + len(value)
	if !b.Empty() && b.EstimatedSize()+entrySize+sizeOfU16 > b.blockSize {
		return false
	}
	// Offsets are u16, so the data section cannot grow past 64 KiB no
	// matter how large blockSize is.
	if len(b.data) > math.MaxUint16 {
		return false
	}

	b.offsets = append(b.offsets, uint16(len(b.data)))
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(key)))
	b.data = append(b.data, key...)
	b.data = binary.LittleEndian.AppendUint16(b.data, uint16(len(value)))
	b.data = append(b.data, value...)

	if b.firstKey == nil {
		b.firstKey = append([]byte(nil), key...)
	}
	return true
}

// Empty reports whether no entries have been added.
func (b *Builder) Empty() bool {
	return len(b.offsets) == 0
}

// EstimatedSize returns the encoded size the block would have if built
// now.
func (b *Builder) EstimatedSize() int {
	return len(b.data) + len(b.offsets)*sizeOfU16 + trailerSize
}

// FirstKey returns a copy of the first key added, or nil.
func (b *Builder) FirstKey() []byte {
	return b.firstKey
}

// Build finalizes the block. The builder must not be used afterwards.
func (b *Builder) Build() *Block {
	if b.Empty() {
		panic("block: Build on empty builder")
	}
	return &Block{data: b.data, offsets: b.offsets}
}
