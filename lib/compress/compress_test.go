// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
)

func compressibleData() []byte {
	return []byte(strings.Repeat("key_00042=value_0000000042;", 400))
}

func TestRoundTripPerCodec(t *testing.T) {
	data := compressibleData()
	for _, tag := range []Tag{None, LZ4, Zstd, XZ} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, actual, err := Compress(data, tag)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if actual != tag {
				t.Fatalf("actual tag = %s, want %s", actual, tag)
			}
			if tag != None && len(compressed) >= len(data) {
				t.Errorf("compressed %d bytes into %d", len(data), len(compressed))
			}
			restored, err := Decompress(compressed, actual, len(data))
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(restored, data) {
				t.Fatal("round trip mismatch")
			}
		})
	}
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	data := make([]byte, 4096)
	if _, err := rand.Read(data); err != nil {
		t.Fatal(err)
	}
	for _, tag := range []Tag{LZ4, Zstd, XZ} {
		compressed, actual, err := Compress(data, tag)
		if err != nil {
			t.Fatalf("%s: Compress: %v", tag, err)
		}
		if actual != None {
			t.Errorf("%s: random data stored with tag %s, want none", tag, actual)
		}
		if !bytes.Equal(compressed, data) {
			t.Errorf("%s: fallback must return the input unchanged", tag)
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	data := compressibleData()
	compressed, tag, err := Compress(data, Zstd)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decompress(compressed, tag, len(data)+1); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if _, err := Decompress(data, None, len(data)-1); err == nil {
		t.Fatal("expected size mismatch error for raw block")
	}
}

func TestDecompressXZStopsAtExpectedSize(t *testing.T) {
	data := make([]byte, 1<<20)
	compressed, tag, err := Compress(data, XZ)
	if err != nil {
		t.Fatal(err)
	}
	if tag != XZ {
		t.Fatalf("tag = %s, want xz", tag)
	}

	// A block whose recorded size is far below what the stream holds
	// reads only one byte past the recorded size.
	_, err = Decompress(compressed, tag, 16)
	if err == nil {
		t.Fatal("expected size mismatch error")
	}
	if !strings.Contains(err.Error(), "got 17 bytes") {
		t.Errorf("error = %v, want decoding cut off at 17 bytes", err)
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name string
		want Tag
	}{
		{"none", None},
		{"", None},
		{"lz4", LZ4},
		{"zstd", Zstd},
		{"xz", XZ},
	}
	for _, test := range tests {
		got, err := ParseTag(test.name)
		if err != nil {
			t.Errorf("ParseTag(%q): %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseTag(%q) = %s, want %s", test.name, got, test.want)
		}
	}

	if _, err := ParseTag("brotli"); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("ParseTag(brotli) error = %v, want ErrUnknownTag", err)
	}
}

func TestUnknownTag(t *testing.T) {
	if Tag(9).Valid() {
		t.Error("Tag(9) reported valid")
	}
	if _, _, err := Compress([]byte("x"), Tag(9)); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("Compress error = %v, want ErrUnknownTag", err)
	}
	if _, err := Decompress([]byte("x"), Tag(9), 1); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("Decompress error = %v, want ErrUnknownTag", err)
	}
}
