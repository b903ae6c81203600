// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sstable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/lsm/lib/block"
	"github.com/bureau-foundation/lsm/lib/bloom"
	"github.com/bureau-foundation/lsm/lib/cache"
	"github.com/bureau-foundation/lsm/lib/compress"
)

const (
	footerSize = 8 + 8 + 32 + 8
	magic      = "LSMSST\x01\x00"
)

// BlockCache caches decoded blocks across tables.
type BlockCache = cache.LRU[cache.BlockKey, *block.Block]

// NewBlockCache returns a block cache holding up to capacity blocks.
func NewBlockCache(capacity int) *BlockCache {
	return cache.New[cache.BlockKey, *block.Block](capacity)
}

// Options controls how a Builder lays out a table.
type Options struct {
	// BlockSize is the target encoded size of a data block before
	// compression.
	BlockSize int

	Compression compress.Tag

	// BloomBitsPerKey sizes the bloom filter; 0 selects
	// bloom.DefaultBitsPerKey.
	BloomBitsPerKey int
}

// Builder accumulates sorted entries into a table. Keys must be added
// in strictly ascending order.
type Builder struct {
	options Options

	current    *block.Builder
	blockFirst []byte
	blockLast  []byte

	data   []byte
	metas  []BlockMeta
	hashes []uint64

	// err records the first failure from Add, reported by Build.
	err error
}

// NewBuilder returns an empty table builder.
func NewBuilder(options Options) *Builder {
	if options.BlockSize <= 0 {
		options.BlockSize = 4096
	}
	return &Builder{options: options, current: block.NewBuilder(options.BlockSize)}
}

// Add appends an entry. An empty value is a tombstone and is stored
// like any other value.
func (b *Builder) Add(key, value []byte) {
	if b.err != nil {
		return
	}
	b.hashes = append(b.hashes, bloom.Hash(key))

	if !b.current.Add(key, value) {
		b.finishBlock()
		b.current.Add(key, value)
	}
	if b.blockFirst == nil {
		b.blockFirst = append([]byte(nil), key...)
	}
	b.blockLast = append(b.blockLast[:0], key...)
}

func (b *Builder) finishBlock() {
	built := b.current.Build()
	b.current = block.NewBuilder(b.options.BlockSize)

	raw := built.Encode()
	stored, tag, err := compress.Compress(raw, b.options.Compression)
	if err != nil {
		b.err = fmt.Errorf("compressing block %d: %w", len(b.metas), err)
		return
	}
	if len(b.data)+len(stored) > math.MaxUint32 {
		b.err = errors.New("sstable: table exceeds 4 GiB")
		return
	}

	b.metas = append(b.metas, BlockMeta{
		Offset:       uint32(len(b.data)),
		StoredLength: uint32(len(stored)),
		RawLength:    uint32(len(raw)),
		Compression:  tag,
		FirstKey:     b.blockFirst,
		LastKey:      append([]byte(nil), b.blockLast...),
	})
	b.data = append(b.data, stored...)
	b.blockFirst = nil
}

// EstimatedSize returns the bytes written so far plus the open block.
func (b *Builder) EstimatedSize() int {
	return len(b.data) + b.current.EstimatedSize()
}

// Empty reports whether no entry has been added.
func (b *Builder) Empty() bool {
	return len(b.metas) == 0 && b.current.Empty()
}

// Build writes the table to path and returns it opened. The builder
// must not be used afterwards.
func (b *Builder) Build(id uint64, blockCache *BlockCache, path string) (*Table, error) {
	if b.Empty() {
		return nil, errors.New("sstable: building an empty table")
	}
	if !b.current.Empty() {
		b.finishBlock()
	}
	if b.err != nil {
		return nil, b.err
	}

	filter := bloom.Build(b.hashes, b.options.BloomBitsPerKey)
	encoded := b.data
	metaOffset := len(encoded)
	encoded = EncodeBlockMeta(encoded, b.metas)
	bloomOffset := len(encoded)
	encoded = append(encoded, filter.Encode()...)

	digest := blake3.Sum256(encoded[metaOffset:])
	encoded = binary.LittleEndian.AppendUint64(encoded, uint64(metaOffset))
	encoded = binary.LittleEndian.AppendUint64(encoded, uint64(bloomOffset))
	encoded = append(encoded, digest[:]...)
	encoded = append(encoded, magic...)

	file, err := CreateFile(path, encoded)
	if err != nil {
		return nil, fmt.Errorf("writing table %d: %w", id, err)
	}
	table := &Table{
		id:         id,
		file:       file,
		metas:      b.metas,
		metaOffset: int64(metaOffset),
		filter:     filter,
		firstKey:   b.metas[0].FirstKey,
		lastKey:    b.metas[len(b.metas)-1].LastKey,
		cache:      blockCache,
	}
	table.refs.Store(1)
	return table, nil
}
