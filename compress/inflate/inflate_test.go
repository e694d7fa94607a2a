// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package inflate

import (
	"bytes"
	"compress/flate"
	"errors"
	"testing"
)

// deflateRaw produces a raw DEFLATE stream with the standard library.
func deflateRaw(t *testing.T, data []byte, level int) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}

	return buf.Bytes()
}

func TestDecompress_RoundTripAgainstFlate(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"empty":  {},
		"short":  []byte("abc"),
		"text":   bytes.Repeat([]byte("raw deflate without any zlib framing "), 64),
		"binary": func() []byte {
			out := make([]byte, 100000)
			for i := range out {
				out[i] = byte(i*31 + i/256)
			}
			return out
		}(),
		"zeros": make([]byte, 70000),
	}

	for name, plain := range cases {
		for _, level := range []int{flate.NoCompression, flate.BestSpeed, flate.BestCompression} {
			packed := deflateRaw(t, plain, level)
			got, err := Decompress(packed, len(plain), false)
			if err != nil {
				t.Errorf("%s level %d: Decompress: %v", name, level, err)
				continue
			}
			if !bytes.Equal(got, plain) {
				t.Errorf("%s level %d: output diverged", name, level)
			}
		}
	}
}

// lsbWriter packs bits LSB-first the way DEFLATE consumers read them.
type lsbWriter struct {
	bytes []byte
	cur   byte
	n     uint
}

func (w *lsbWriter) bits(v uint32, n uint) {
	for i := uint(0); i < n; i++ {
		if v>>i&1 != 0 {
			w.cur |= 1 << w.n
		}

		w.n++
		if w.n == 8 {
			w.bytes = append(w.bytes, w.cur)
			w.cur = 0
			w.n = 0
		}
	}
}

func (w *lsbWriter) finish() []byte {
	if w.n > 0 {
		w.bytes = append(w.bytes, w.cur)
	}

	return w.bytes
}

// dynamicBlockWithRepeat17 hand-builds a one-block dynamic stream decoding
// to "AAA". The literal/length code-length vector is written with both
// repeat-zero symbols, 17 (3-10 zeros) and 18 (11-138 zeros).
func dynamicBlockWithRepeat17() []byte {
	w := &lsbWriter{}

	w.bits(1, 1) // BFINAL
	w.bits(2, 2) // BTYPE dynamic

	w.bits(0, 5)  // HLIT: 257 literal/length codes
	w.bits(0, 5)  // HDIST: 1 distance code
	w.bits(14, 4) // HCLEN: 18 code-length code lengths

	// Order: 16,17,18,0,8,7,9,6,10,5,11,4,12,3,13,2,14,1,15.
	// Used symbols 0, 1, 17, 18 all get length 2.
	clens := []uint32{0, 2, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}
	for _, l := range clens {
		w.bits(l, 3)
	}

	// Canonical 2-bit codes by ascending symbol: 0->00, 1->01, 17->10, 18->11.
	// Codes are emitted MSB-first into the LSB-first stream.
	sym0 := func() { w.bits(0b00, 2) }
	sym1 := func() { w.bits(0b10, 2) } // 01 reversed
	sym17 := func() { w.bits(0b01, 2) } // 10 reversed
	sym18 := func() { w.bits(0b11, 2) }

	// Literal/length lengths: 62 zeros, 3 zeros (via 17), 'A'=65 -> len 1,
	// 190 zeros, 256 -> len 1; then the single distance length: zero.
	sym18()
	w.bits(62-11, 7)
	sym17()
	w.bits(0, 3) // repeat 3 zeros
	sym1()
	sym18()
	w.bits(138-11, 7)
	sym18()
	w.bits(52-11, 7)
	sym1()
	sym0()

	// Body: 'A' (code 0), 'A', 'A', end-of-block (code 1).
	w.bits(0, 1)
	w.bits(0, 1)
	w.bits(0, 1)
	w.bits(1, 1)

	return w.finish()
}

func TestDecompress_DynamicBlockWithRepeat17(t *testing.T) {
	t.Parallel()

	got, err := Decompress(dynamicBlockWithRepeat17(), 3, false)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if want := []byte("AAA"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompress_FixedBlock(t *testing.T) {
	t.Parallel()

	// BFINAL=1, BTYPE=1, literal 'A' (code 0x71, 8 bits), EOB (0000000).
	w := &lsbWriter{}
	w.bits(1, 1)
	w.bits(1, 2)
	w.bits(0b10001110, 8) // 'A' = 0x30+0x41 = 0x71, reversed
	w.bits(0, 7)
	packed := w.finish()

	got, err := Decompress(packed, 1, false)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, []byte("A")) {
		t.Errorf("got %q, want \"A\"", got)
	}
}

func TestDecompress_StoredBlock(t *testing.T) {
	t.Parallel()

	payload := []byte("stored verbatim")
	w := &lsbWriter{}
	w.bits(1, 1)
	w.bits(0, 2)
	packed := w.finish() // pads to the byte boundary
	packed = append(packed, byte(len(payload)), byte(len(payload)>>8))
	n := ^uint16(len(payload))
	packed = append(packed, byte(n), byte(n>>8))
	packed = append(packed, payload...)

	got, err := Decompress(packed, len(payload), false)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q, want %q", got, payload)
	}
}

func TestDecompress_StoredBlockLenNlenMismatch(t *testing.T) {
	t.Parallel()

	packed := []byte{0x01, 0x05, 0x00, 0x12, 0x34, 'a', 'b', 'c', 'd', 'e'}
	if _, err := Decompress(packed, 5, false); !errors.Is(err, ErrLenNlenMismatch) {
		t.Errorf("expected ErrLenNlenMismatch, got %v", err)
	}
}

func TestDecompress_ReservedBlockType(t *testing.T) {
	t.Parallel()

	w := &lsbWriter{}
	w.bits(1, 1)
	w.bits(3, 2)
	if _, err := Decompress(w.finish(), 0, false); !errors.Is(err, ErrBlockTypeReserved) {
		t.Errorf("expected ErrBlockTypeReserved, got %v", err)
	}
}

func TestDecompress_EOFPlusOneToggle(t *testing.T) {
	t.Parallel()

	plain := []byte("payload with a readahead byte")
	packed := deflateRaw(t, plain, flate.BestSpeed)
	overhang := append(append([]byte{}, packed...), 0x00)

	got, err := Decompress(overhang, len(plain), true)
	if err != nil {
		t.Fatalf("tolerant decode: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Error("tolerant decode diverged")
	}

	if _, err := Decompress(overhang, len(plain), false); !errors.Is(err, ErrEOFPlusOneRejected) {
		t.Errorf("expected ErrEOFPlusOneRejected, got %v", err)
	}
}

func TestDecompress_TrailingGarbage(t *testing.T) {
	t.Parallel()

	packed := deflateRaw(t, []byte("data"), flate.BestSpeed)
	packed = append(packed, 0xDE, 0xAD)

	if _, err := Decompress(packed, 4, true); !errors.Is(err, ErrTrailingGarbage) {
		t.Errorf("expected ErrTrailingGarbage, got %v", err)
	}
}

func TestDecompress_Truncated(t *testing.T) {
	t.Parallel()

	packed := deflateRaw(t, bytes.Repeat([]byte("truncate me "), 32), flate.BestCompression)
	for _, cut := range []int{0, 1, len(packed) / 2} {
		if _, err := Decompress(packed[:cut], 0, false); !errors.Is(err, ErrStreamTruncated) {
			t.Errorf("cut %d: expected ErrStreamTruncated, got %v", cut, err)
		}
	}
}

func TestDecompress_OverlappingCopy(t *testing.T) {
	t.Parallel()

	// Runs compress to matches with length > distance; the copy must
	// repeat bytes it has just written.
	plain := bytes.Repeat([]byte{0xAB}, 1000)
	packed := deflateRaw(t, plain, flate.BestCompression)

	got, err := Decompress(packed, len(plain), false)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Error("overlapping copy diverged")
	}
}

func TestDecompress_MultiBlockStream(t *testing.T) {
	t.Parallel()

	// Flush forces a block boundary mid-stream.
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("first block ")); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("second block")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	want := []byte("first block second block")
	got, err := Decompress(buf.Bytes(), len(want), false)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompress_InvalidDistance(t *testing.T) {
	t.Parallel()

	// Fixed block: length code 257 (0000001), distance code 4 (00100)
	// with one extra bit -> distance 5 with no output yet.
	w := &lsbWriter{}
	w.bits(1, 1)
	w.bits(1, 2)
	w.bits(0b1000000, 7) // symbol 257, code 0000001 reversed
	w.bits(0b00100, 5)   // distance symbol 4, code 00100 reversed
	w.bits(0, 1)
	w.bits(0, 7) // EOB, never reached

	if _, err := Decompress(w.finish(), 8, false); !errors.Is(err, ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance, got %v", err)
	}
}
