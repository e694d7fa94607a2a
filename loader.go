// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"fmt"

	"github.com/valentineus/rsli/compress/inflate"
	"github.com/valentineus/rsli/compress/lzhuf"
	"github.com/valentineus/rsli/compress/lzss"
	"github.com/valentineus/rsli/crypt"
)

// Load returns the unpacked payload of one entry as owned bytes. The
// result length always equals the entry's declared unpacked size.
func (l *Library) Load(index int) ([]byte, error) {
	if l == nil {
		return nil, ErrNilLibrary
	}
	if l.isClosed() {
		return nil, ErrClosed
	}

	if l.cache != nil {
		if cached, ok := l.cache.Get(index); ok {
			out := make([]byte, len(cached))
			copy(out, cached)
			return out, nil
		}
	}

	rec, err := l.entryByIndex(index)
	if err != nil {
		return nil, err
	}

	packed, err := l.packedSlice(rec)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", index, err)
	}

	out, err := decodePayload(packed, rec.info.Method, rec.key16, len(packed),
		rec.info.UnpackedSize, l.opts.AllowDeflateEOFPlusOne)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", index, err)
	}

	if l.cache != nil {
		kept := make([]byte, len(out))
		copy(kept, out)
		l.cache.Add(index, kept)
	}

	return out, nil
}

// LoadInto decodes one entry into a caller-provided buffer and returns the
// number of bytes written. Bytes past the unpacked size are left untouched.
func (l *Library) LoadInto(index int, dst []byte) (int, error) {
	if l == nil {
		return 0, ErrNilLibrary
	}

	rec, err := l.entryByIndex(index)
	if err != nil {
		return 0, err
	}
	if len(dst) < int(rec.info.UnpackedSize) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d",
			ErrBufferTooSmall, rec.info.UnpackedSize, len(dst))
	}

	out, err := l.Load(index)
	if err != nil {
		return 0, err
	}

	return copy(dst, out), nil
}

// LoadPacked returns the raw packed payload of one entry as a slice
// borrowed from the archive bytes.
func (l *Library) LoadPacked(index int) ([]byte, error) {
	if l == nil {
		return nil, ErrNilLibrary
	}
	if l.isClosed() {
		return nil, ErrClosed
	}

	rec, err := l.entryByIndex(index)
	if err != nil {
		return nil, err
	}

	packed, err := l.packedSlice(rec)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", index, err)
	}

	return packed, nil
}

// LoadFast returns a slice borrowed from the archive for uncompressed
// entries and falls back to Load otherwise. The zero-copy path is an
// advisory optimization; the output is identical to Load either way.
func (l *Library) LoadFast(index int) ([]byte, error) {
	if l == nil {
		return nil, ErrNilLibrary
	}
	if l.isClosed() {
		return nil, ErrClosed
	}

	rec, err := l.entryByIndex(index)
	if err != nil {
		return nil, err
	}

	if rec.info.Method == MethodNone {
		packed, err := l.packedSlice(rec)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", index, err)
		}

		size := int(rec.info.UnpackedSize)
		if len(packed) < size {
			return nil, fmt.Errorf("entry %d: %w: declared %d, packed %d",
				index, ErrUnpackedSizeMismatch, size, len(packed))
		}

		return packed[:size], nil
	}

	return l.Load(index)
}

// Unpack decodes a packed payload outside any library handle. The seed
// feeds the XOR keystream for combined methods; xorSize bounds the
// deciphered prelude and normally equals the packed length.
func Unpack(packed []byte, method PackMethod, unpackedSize, xorSize uint32, seed uint16) ([]byte, error) {
	return decodePayload(packed, method, seed, int(xorSize), unpackedSize, true)
}

// packedSlice resolves one entry's addressable payload bytes, applying the
// quirk policy for the one-byte DEFLATE overhang.
func (l *Library) packedSlice(rec *entryRecord) ([]byte, error) {
	if rec.eofPlusOne && !l.opts.AllowDeflateEOFPlusOne {
		return nil, ErrDeflateEofPlusOneQuirkRejected
	}

	start := rec.effectiveOffset
	end := start + int64(rec.packedAvail)
	if start < 0 || end > int64(len(l.data)) {
		return nil, fmt.Errorf("%w: range [%d, %d), file %d bytes",
			ErrPackedSizePastEof, start, end, len(l.data))
	}

	return l.data[start:end], nil
}

// decodePayload routes one packed payload through the XOR prelude and the
// method's kernel, then verifies the declared output size.
func decodePayload(packed []byte, method PackMethod, seed uint16, xorSize int, unpackedSize uint32, allowEOFPlusOne bool) ([]byte, error) {
	expected := int(unpackedSize)

	if !method.Supported() {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedMethod, uint32(method))
	}
	if expected == 0 && len(packed) == 0 {
		return []byte{}, nil
	}

	var out []byte
	var err error

	switch method {
	case MethodNone:
		if len(packed) < expected {
			return nil, fmt.Errorf("%w: declared %d, packed %d",
				ErrUnpackedSizeMismatch, expected, len(packed))
		}

		out = make([]byte, expected)
		copy(out, packed)
	case MethodXor:
		if len(packed) < expected {
			return nil, fmt.Errorf("%w: declared %d, packed %d",
				ErrUnpackedSizeMismatch, expected, len(packed))
		}

		out = crypt.Stream(packed[:expected], seed)
	case MethodLzss:
		out, err = lzss.Decompress(packed, expected)
	case MethodXorLzss:
		out, err = lzss.Decompress(decipherPrelude(packed, xorSize, seed), expected)
	case MethodLzssHuffman:
		out, err = lzhuf.Decompress(packed, expected)
	case MethodXorLzssHuffman:
		out, err = lzhuf.Decompress(decipherPrelude(packed, xorSize, seed), expected)
	case MethodDeflate:
		out, err = inflate.Decompress(packed, expected, allowEOFPlusOne)
	default:
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedMethod, uint32(method))
	}
	if err != nil {
		return nil, err
	}

	if len(out) != expected {
		return nil, fmt.Errorf("%w: declared %d, produced %d",
			ErrUnpackedSizeMismatch, expected, len(out))
	}

	return out, nil
}

// decipherPrelude returns a copy of packed with the first xorSize bytes run
// through the keystream; bytes past the prelude pass through unmodified.
func decipherPrelude(packed []byte, xorSize int, seed uint16) []byte {
	if xorSize > len(packed) {
		xorSize = len(packed)
	}
	if xorSize < 0 {
		xorSize = 0
	}

	out := make([]byte, len(packed))
	copy(out, packed)
	crypt.New(seed).Apply(out[:xorSize])
	return out
}
