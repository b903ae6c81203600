// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements per-block compression for SST data
// blocks. The tag chosen for each block is stored in the table's block
// metadata, so a single table may mix codecs (incompressible blocks
// are stored raw) and the configured codec can change without
// rewriting existing tables.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Tag identifies the compression algorithm of a stored block. Tags are
// persisted in SST metadata (1 byte each); the values are format
// constants.
type Tag uint8

const (
	// None stores the block as-is.
	None Tag = 0

	// LZ4 is LZ4 block compression. Fast default for hot levels.
	LZ4 Tag = 1

	// Zstd is zstd at the default level. Better ratio for text-like
	// values at roughly half of LZ4's decode speed.
	Zstd Tag = 2

	// XZ is LZMA2 in the xz container. Highest ratio and slowest
	// decode; intended for cold, rarely-read data.
	XZ Tag = 3
)

// ErrUnknownTag is returned for a tag byte outside the known range,
// which on the read path means the metadata is corrupt.
var ErrUnknownTag = errors.New("unknown compression tag")

// String returns the configuration name of the tag.
func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// Valid reports whether tag is a known algorithm.
func (tag Tag) Valid() bool {
	return tag <= XZ
}

// ParseTag parses a tag from its configuration name.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	case "xz":
		return XZ, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTag, name)
	}
}

// Compress compresses data with tag. If the result would not be
// smaller than the input, it returns data unchanged with None. The
// returned tag is the one that must be recorded for the block.
func Compress(data []byte, tag Tag) ([]byte, Tag, error) {
	var (
		compressed []byte
		err        error
	)
	switch tag {
	case None:
		return data, None, nil
	case LZ4:
		compressed, err = compressLZ4(data)
	case Zstd:
		compressed = zstdEncoder.EncodeAll(data, nil)
	case XZ:
		compressed, err = compressXZ(data)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
	if err != nil {
		return nil, 0, err
	}
	if compressed == nil || len(compressed) >= len(data) {
		return data, None, nil
	}
	return compressed, tag, nil
}

// Decompress reverses Compress. uncompressedSize must equal the
// original length; a mismatch is reported as an error.
func Decompress(data []byte, tag Tag, uncompressedSize int) ([]byte, error) {
	var (
		result []byte
		err    error
	)
	switch tag {
	case None:
		result = data
	case LZ4:
		result, err = decompressLZ4(data, uncompressedSize)
	case Zstd:
		result, err = zstdDecoder.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			err = fmt.Errorf("zstd decompress: %w", err)
		}
	case XZ:
		result, err = decompressXZ(data, uncompressedSize)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
	if err != nil {
		return nil, err
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d", tag, len(result), uncompressedSize)
	}
	return result, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 {
		return nil, nil
	}
	return destination[:written], nil
}

func decompressLZ4(data []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(data, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return destination[:read], nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll/DecodeAll, so one of each serves every table.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

func compressXZ(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := xz.NewWriter(&buffer)
	if err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("xz compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func decompressXZ(data []byte, uncompressedSize int) ([]byte, error) {
	reader, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz decompress: %w", err)
	}
	result := make([]byte, 0, uncompressedSize)
	buffer := bytes.NewBuffer(result)
	// One byte past the expected size is enough for Decompress to
	// report the mismatch; a corrupt stream cannot expand further.
	if _, err := io.Copy(buffer, io.LimitReader(reader, int64(uncompressedSize)+1)); err != nil {
		return nil, fmt.Errorf("xz decompress: %w", err)
	}
	return buffer.Bytes(), nil
}
