// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sstable

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bureau-foundation/lsm/lib/compress"
)

// ErrCorrupt is returned when a table file fails structural or
// checksum validation.
var ErrCorrupt = errors.New("sstable: corrupt table")

// BlockMeta locates one data block and records its key range.
type BlockMeta struct {
	Offset       uint32
	StoredLength uint32
	RawLength    uint32
	Compression  compress.Tag
	FirstKey     []byte
	LastKey      []byte
}

const blockMetaFixedSize = 4 + 4 + 4 + 1 + 2 + 2

// EncodeBlockMeta appends the encoded form of metas to buffer.
func EncodeBlockMeta(buffer []byte, metas []BlockMeta) []byte {
	for _, meta := range metas {
		buffer = binary.LittleEndian.AppendUint32(buffer, meta.Offset)
		buffer = binary.LittleEndian.AppendUint32(buffer, meta.StoredLength)
		buffer = binary.LittleEndian.AppendUint32(buffer, meta.RawLength)
		buffer = append(buffer, byte(meta.Compression))
		buffer = binary.LittleEndian.AppendUint16(buffer, uint16(len(meta.FirstKey)))
		buffer = append(buffer, meta.FirstKey...)
		buffer = binary.LittleEndian.AppendUint16(buffer, uint16(len(meta.LastKey)))
		buffer = append(buffer, meta.LastKey...)
	}
	return buffer
}

// DecodeBlockMeta decodes a meta section. Keys are copied out of data.
func DecodeBlockMeta(data []byte) ([]BlockMeta, error) {
	var metas []BlockMeta
	for position := 0; position < len(data); {
		if len(data)-position < blockMetaFixedSize {
			return nil, fmt.Errorf("%w: truncated block meta %d", ErrCorrupt, len(metas))
		}
		var meta BlockMeta
		meta.Offset = binary.LittleEndian.Uint32(data[position:])
		meta.StoredLength = binary.LittleEndian.Uint32(data[position+4:])
		meta.RawLength = binary.LittleEndian.Uint32(data[position+8:])
		meta.Compression = compress.Tag(data[position+12])
		if !meta.Compression.Valid() {
			return nil, fmt.Errorf("%w: block meta %d has compression tag %d", ErrCorrupt, len(metas), meta.Compression)
		}
		position += 13

		var err error
		if meta.FirstKey, position, err = readKey(data, position); err != nil {
			return nil, fmt.Errorf("%w: block meta %d first key: %v", ErrCorrupt, len(metas), err)
		}
		if meta.LastKey, position, err = readKey(data, position); err != nil {
			return nil, fmt.Errorf("%w: block meta %d last key: %v", ErrCorrupt, len(metas), err)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

func readKey(data []byte, position int) ([]byte, int, error) {
	if len(data)-position < 2 {
		return nil, 0, errors.New("missing length")
	}
	length := int(binary.LittleEndian.Uint16(data[position:]))
	position += 2
	if length == 0 || len(data)-position < length {
		return nil, 0, fmt.Errorf("bad length %d", length)
	}
	key := append([]byte(nil), data[position:position+length]...)
	return key, position + length, nil
}
