// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/valentineus/rsli/crypt"
)

func TestLoad_UnpackedSizeMismatch(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []synthEntry{
		{name: "SHORT", method: MethodNone, plain: []byte("abc")},
	}, defaultBuild())

	// Inflate the declared unpacked size past the stored payload.
	seed := uint16(defaultBuild().seed)
	table := crypt.Stream(data[headerSize:headerSize+entrySize], seed)
	binary.LittleEndian.PutUint32(table[20:], 50)
	copy(data[headerSize:], crypt.Stream(table, seed))

	lib := mustOpen(t, data, DefaultOpenOptions())
	if _, err := lib.Load(0); !errors.Is(err, ErrUnpackedSizeMismatch) {
		t.Errorf("expected ErrUnpackedSizeMismatch, got %v", err)
	}
}

func TestLoad_CorruptLzssStream(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []synthEntry{
		{name: "LZ", method: MethodLzss, plain: bytes.Repeat([]byte("stream"), 64)},
	}, defaultBuild())

	lib := mustOpen(t, data, DefaultOpenOptions())
	info := mustEntry(t, lib, 0)

	// Truncate the packed stream; the kernel must fail, not overrun.
	packed, err := lib.LoadPacked(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unpack(packed[:len(packed)/2], info.Method, info.UnpackedSize, 0, 0); !errors.Is(err, ErrLzssDecode) {
		t.Errorf("expected ErrLzssDecode, got %v", err)
	}
}

func TestLoad_CorruptDeflateStream(t *testing.T) {
	t.Parallel()

	plain := bytes.Repeat([]byte("deflate body "), 64)
	data := buildArchive(t, []synthEntry{
		{name: "DF", method: MethodDeflate, plain: plain},
	}, defaultBuild())

	lib := mustOpen(t, data, DefaultOpenOptions())
	packed, err := lib.LoadPacked(0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Unpack(packed[:3], MethodDeflate, uint32(len(plain)), 0, 0); !errors.Is(err, ErrDeflateStreamTruncated) {
		t.Errorf("expected ErrDeflateStreamTruncated, got %v", err)
	}
}

func TestUnpack_UnsupportedMethod(t *testing.T) {
	t.Parallel()

	if _, err := Unpack([]byte("x"), PackMethod(0x1C0), 1, 0, 0); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestUnpack_XorInvolution(t *testing.T) {
	t.Parallel()

	plain := make([]byte, 64)
	enc := crypt.Stream(plain, 0xCAFE)

	dec, err := Unpack(enc, MethodXor, 64, 64, 0xCAFE)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Error("XOR decode of encoded zeros is not all zero")
	}

	// Encoding the zeros again and decoding must stay stable.
	again, err := Unpack(crypt.Stream(dec, 0xCAFE), MethodXor, 64, 64, 0xCAFE)
	if err != nil {
		t.Fatalf("Unpack again: %v", err)
	}
	if !bytes.Equal(again, plain) {
		t.Error("XOR involution broke on the second round trip")
	}
}

func TestFind_NamesLongerThanFieldNeverMatch(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []synthEntry{
		{name: "EXACTLYTWELVE", method: MethodNone, plain: []byte("x")}, // truncated to 12 by the field
	}, defaultBuild())

	lib := mustOpen(t, data, DefaultOpenOptions())
	if _, ok := lib.Find("EXACTLYTWELVE"); ok {
		t.Error("13-char query matched a 12-byte name field")
	}
	if _, ok := lib.Find("EXACTLYTWELV"); !ok {
		t.Error("12-byte truncated name did not resolve")
	}
}

func TestLoad_RepeatedCallsAreIdentical(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, []synthEntry{
		{name: "PURE", method: MethodLzssHuffman, plain: bytes.Repeat([]byte("pure function "), 128)},
	}, defaultBuild())
	lib := mustOpen(t, data, DefaultOpenOptions())

	first, err := lib.Load(0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := lib.Load(0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated Load diverged")
	}
}

func BenchmarkLoad(b *testing.B) {
	entries := []synthEntry{
		{name: "BENCH", method: MethodLzss, plain: bytes.Repeat([]byte("payload row "), 512)},
	}

	data := buildArchive(b, entries, defaultBuild())
	lib, err := New(data, DefaultOpenOptions())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := lib.Load(0); err != nil {
			b.Fatal(err)
		}
	}
}
