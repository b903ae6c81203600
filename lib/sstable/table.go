// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sstable

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/lsm/lib/block"
	"github.com/bureau-foundation/lsm/lib/bloom"
	"github.com/bureau-foundation/lsm/lib/cache"
	"github.com/bureau-foundation/lsm/lib/compress"
)

// Table is an open, immutable sorted string table. Safe for concurrent
// reads.
//
// The file handle is reference counted. The opener holds one reference
// and gives it up with Close or Remove; readers that may outlive the
// opener's reference take their own with Acquire. The handle closes
// when the last reference is released.
type Table struct {
	id         uint64
	file       *FileObject
	metas      []BlockMeta
	metaOffset int64
	filter     *bloom.Filter
	firstKey   []byte
	lastKey    []byte
	cache      *BlockCache

	refs     atomic.Int64
	released atomic.Bool
}

// Open validates the footer and index of file and returns the table.
// blockCache may be nil. On error the caller still owns file.
func Open(id uint64, blockCache *BlockCache, file *FileObject) (*Table, error) {
	size := file.Size()
	if size < footerSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, smaller than the footer", ErrCorrupt, file.Path(), size)
	}
	footer, err := file.ReadAt(size-footerSize, footerSize)
	if err != nil {
		return nil, err
	}
	if string(footer[48:]) != magic {
		return nil, fmt.Errorf("%w: %s has bad magic %q", ErrCorrupt, file.Path(), footer[48:])
	}
	metaOffset := int64(binary.LittleEndian.Uint64(footer[0:8]))
	bloomOffset := int64(binary.LittleEndian.Uint64(footer[8:16]))
	if metaOffset < 0 || bloomOffset < metaOffset || bloomOffset > size-footerSize {
		return nil, fmt.Errorf("%w: %s has section offsets %d/%d outside the file", ErrCorrupt, file.Path(), metaOffset, bloomOffset)
	}

	sections, err := file.ReadAt(metaOffset, size-footerSize-metaOffset)
	if err != nil {
		return nil, err
	}
	digest := blake3.Sum256(sections)
	if subtle.ConstantTimeCompare(digest[:], footer[16:48]) != 1 {
		return nil, fmt.Errorf("%w: %s index digest mismatch", ErrCorrupt, file.Path())
	}

	metas, err := DecodeBlockMeta(sections[:bloomOffset-metaOffset])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path(), err)
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("%w: %s has no blocks", ErrCorrupt, file.Path())
	}
	filter, err := bloom.Decode(sections[bloomOffset-metaOffset:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, file.Path(), err)
	}

	table := &Table{
		id:         id,
		file:       file,
		metas:      metas,
		metaOffset: metaOffset,
		filter:     filter,
		firstKey:   metas[0].FirstKey,
		lastKey:    metas[len(metas)-1].LastKey,
		cache:      blockCache,
	}
	table.refs.Store(1)
	return table, nil
}

// OpenPath opens the table file at path.
func OpenPath(id uint64, blockCache *BlockCache, path string) (*Table, error) {
	file, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	table, err := Open(id, blockCache, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return table, nil
}

// ReadBlock reads, decompresses, and verifies block index from disk.
func (t *Table) ReadBlock(index int) (*block.Block, error) {
	if index < 0 || index >= len(t.metas) {
		return nil, fmt.Errorf("sstable %d: block index %d out of range [0, %d)", t.id, index, len(t.metas))
	}
	meta := t.metas[index]
	if int64(meta.Offset)+int64(meta.StoredLength) > t.metaOffset {
		return nil, fmt.Errorf("%w: table %d block %d overlaps the index", ErrCorrupt, t.id, index)
	}
	stored, err := t.file.ReadAt(int64(meta.Offset), int64(meta.StoredLength))
	if err != nil {
		return nil, err
	}
	raw, err := compress.Decompress(stored, meta.Compression, int(meta.RawLength))
	if err != nil {
		return nil, fmt.Errorf("%w: table %d block %d: %v", ErrCorrupt, t.id, index, err)
	}
	decoded, err := block.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: table %d block %d: %v", ErrCorrupt, t.id, index, err)
	}
	return decoded, nil
}

// ReadBlockCached is ReadBlock through the block cache.
func (t *Table) ReadBlockCached(index int) (*block.Block, error) {
	if t.cache == nil {
		return t.ReadBlock(index)
	}
	key := cache.BlockKey{TableID: t.id, BlockIndex: index}
	if cached, ok := t.cache.Get(key); ok {
		return cached, nil
	}
	loaded, err := t.ReadBlock(index)
	if err != nil {
		return nil, err
	}
	t.cache.Add(key, loaded)
	return loaded, nil
}

// FindBlockIndex returns the last block whose first key is <= key, or
// 0 when key sorts before every block.
func (t *Table) FindBlockIndex(key []byte) int {
	index := sort.Search(len(t.metas), func(i int) bool {
		return bytes.Compare(t.metas[i].FirstKey, key) > 0
	})
	return max(index-1, 0)
}

// MayContain reports whether key might be stored in the table. False
// is definitive.
func (t *Table) MayContain(key []byte) bool {
	if bytes.Compare(key, t.firstKey) < 0 || bytes.Compare(key, t.lastKey) > 0 {
		return false
	}
	return t.filter.MayContain(key)
}

// Get looks up key. The bool reports presence; a present empty value
// is a tombstone.
func (t *Table) Get(key []byte) ([]byte, bool, error) {
	if !t.MayContain(key) {
		return nil, false, nil
	}
	found, err := t.ReadBlockCached(t.FindBlockIndex(key))
	if err != nil {
		return nil, false, err
	}
	it := block.NewIteratorAtKey(found, key)
	if !it.Valid() || !bytes.Equal(it.Key(), key) {
		return nil, false, nil
	}
	return append([]byte(nil), it.Value()...), true, nil
}

// ID returns the table id.
func (t *Table) ID() uint64 { return t.id }

// Size returns the file size in bytes.
func (t *Table) Size() int64 { return t.file.Size() }

// NumBlocks returns the number of data blocks.
func (t *Table) NumBlocks() int { return len(t.metas) }

// FirstKey returns the smallest key in the table.
func (t *Table) FirstKey() []byte { return t.firstKey }

// LastKey returns the largest key in the table.
func (t *Table) LastKey() []byte { return t.lastKey }

// BlockMeta returns the metadata of block index.
func (t *Table) BlockMeta(index int) BlockMeta { return t.metas[index] }

// Path returns the table file path.
func (t *Table) Path() string { return t.file.Path() }

// Acquire takes a reader reference. It reports false once every
// reference is gone and the file is closed; the caller must then not
// read the table.
func (t *Table) Acquire() bool {
	for {
		refs := t.refs.Load()
		if refs <= 0 {
			return false
		}
		if t.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// Release drops a reference taken by Acquire.
func (t *Table) Release() error {
	return t.unref()
}

func (t *Table) unref() error {
	if t.refs.Add(-1) != 0 {
		return nil
	}
	if err := t.file.Close(); err != nil {
		return fmt.Errorf("closing table %d: %w", t.id, err)
	}
	return nil
}

// Close gives up the opener's reference. The file closes now, or when
// the last reader releases. Only the first call has an effect.
func (t *Table) Close() error {
	if !t.released.CompareAndSwap(false, true) {
		return nil
	}
	return t.unref()
}

// Remove evicts the table's blocks, unlinks its file, and closes the
// table. Readers that acquired it keep working until they release.
func (t *Table) Remove() error {
	if t.cache != nil {
		t.cache.RemoveFunc(func(key cache.BlockKey) bool { return key.TableID == t.id })
	}
	removeErr := os.Remove(t.file.Path())
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	closeErr := t.Close()
	if removeErr != nil {
		return fmt.Errorf("removing table %d: %w", t.id, removeErr)
	}
	return closeErr
}
