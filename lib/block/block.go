// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package block

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

const (
	sizeOfU16 = 2

	// countSize and checksumSize make up the block trailer.
	countSize    = 2
	checksumSize = 4
	trailerSize  = countSize + checksumSize
)

// ErrCorrupt is wrapped by every decode failure: bad checksum,
// truncated input, or offsets pointing outside the data section.
var ErrCorrupt = errors.New("corrupt block")

// Block is a decoded data block.
type Block struct {
	data    []byte
	offsets []uint16
}

// Encode serializes the block into the on-disk layout.
func (b *Block) Encode() []byte {
	size := len(b.data) + len(b.offsets)*sizeOfU16 + trailerSize
	buffer := make([]byte, 0, size)
	buffer = append(buffer, b.data...)
	for _, offset := range b.offsets {
		buffer = binary.LittleEndian.AppendUint16(buffer, offset)
	}
	buffer = binary.LittleEndian.AppendUint16(buffer, uint16(len(b.offsets)))
	sum := crc32.ChecksumIEEE(buffer)
	return binary.LittleEndian.AppendUint32(buffer, sum)
}

// Decode parses an encoded block, verifying its checksum and that every
// offset addresses a complete entry.
func Decode(encoded []byte) (*Block, error) {
	if len(encoded) < trailerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the trailer", ErrCorrupt, len(encoded))
	}

	body := encoded[:len(encoded)-checksumSize]
	stored := binary.LittleEndian.Uint32(encoded[len(encoded)-checksumSize:])
	if computed := crc32.ChecksumIEEE(body); computed != stored {
		return nil, fmt.Errorf("%w: checksum %08x, computed %08x", ErrCorrupt, stored, computed)
	}

	count := int(binary.LittleEndian.Uint16(body[len(body)-countSize:]))
	offsetsStart := len(body) - countSize - count*sizeOfU16
	if offsetsStart < 0 {
		return nil, fmt.Errorf("%w: %d offsets do not fit in %d bytes", ErrCorrupt, count, len(encoded))
	}

	data := body[:offsetsStart]
	offsets := make([]uint16, count)
	for i := range offsets {
		offset := binary.LittleEndian.Uint16(body[offsetsStart+i*sizeOfU16:])
		if err := checkEntry(data, int(offset)); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrCorrupt, i, err)
		}
		offsets[i] = offset
	}

	// Copy so the block does not pin the caller's (possibly larger,
	// possibly reused) read buffer.
	return &Block{data: append([]byte(nil), data...), offsets: offsets}, nil
}

// checkEntry verifies that a full entry starts at position.
func checkEntry(data []byte, position int) error {
	if position+sizeOfU16 > len(data) {
		return fmt.Errorf("offset %d past data end %d", position, len(data))
	}
	keyLength := int(binary.LittleEndian.Uint16(data[position:]))
	if keyLength == 0 {
		return fmt.Errorf("empty key at offset %d", position)
	}
	valuePosition := position + sizeOfU16 + keyLength
	if valuePosition+sizeOfU16 > len(data) {
		return fmt.Errorf("key at offset %d overruns data", position)
	}
	valueLength := int(binary.LittleEndian.Uint16(data[valuePosition:]))
	if valuePosition+sizeOfU16+valueLength > len(data) {
		return fmt.Errorf("value at offset %d overruns data", position)
	}
	return nil
}

// Len returns the number of entries.
func (b *Block) Len() int {
	return len(b.offsets)
}

// Size returns the encoded size in bytes.
func (b *Block) Size() int {
	return len(b.data) + len(b.offsets)*sizeOfU16 + trailerSize
}

// FirstKey returns the smallest key, or nil for an empty block.
func (b *Block) FirstKey() []byte {
	if len(b.offsets) == 0 {
		return nil
	}
	key, _ := b.entryAt(0)
	return key
}

// LastKey returns the largest key, or nil for an empty block.
func (b *Block) LastKey() []byte {
	if len(b.offsets) == 0 {
		return nil
	}
	key, _ := b.entryAt(len(b.offsets) - 1)
	return key
}

// entryAt returns the key and value of entry index. The returned
// slices alias the block's data and must not be modified.
func (b *Block) entryAt(index int) (key, value []byte) {
	position := int(b.offsets[index])
	keyLength := int(binary.LittleEndian.Uint16(b.data[position:]))
	position += sizeOfU16
	key = b.data[position : position+keyLength]
	position += keyLength
	valueLength := int(binary.LittleEndian.Uint16(b.data[position:]))
	position += sizeOfU16
	value = b.data[position : position+valueLength]
	return key, value
}
