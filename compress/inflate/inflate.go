// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

// Package inflate decodes raw DEFLATE streams (RFC 1951) with no zlib
// framing and no Adler32. The decoder optionally tolerates the RsLi EOF+1
// quirk, where the final block terminator leaves exactly one declared input
// byte unconsumed.
package inflate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/valentineus/rsli/bitstream"
)

// Sentinel errors for DEFLATE streams. Use errors.Is in callers.
var (
	// ErrStreamTruncated means input ended inside a block.
	ErrStreamTruncated = errors.New("inflate: stream truncated")
	// ErrTrailingGarbage means more than one byte follows the final block.
	ErrTrailingGarbage = errors.New("inflate: trailing garbage after final block")
	// ErrEOFPlusOneRejected means the one-byte terminator overhang was seen
	// while the tolerance toggle is off.
	ErrEOFPlusOneRejected = errors.New("inflate: EOF+1 terminator quirk rejected")
	// ErrBlockTypeReserved means a block used the reserved BTYPE 3.
	ErrBlockTypeReserved = errors.New("inflate: reserved block type")
	// ErrLenNlenMismatch means a stored block's LEN/NLEN pair is inconsistent.
	ErrLenNlenMismatch = errors.New("inflate: stored block LEN/NLEN mismatch")
	// ErrCodeLengthInvalid means a Huffman code-length set is malformed.
	ErrCodeLengthInvalid = errors.New("inflate: invalid Huffman code lengths")
	// ErrInvalidDistance means a back-reference points before the output start.
	ErrInvalidDistance = errors.New("inflate: distance past window start")
)

const (
	// endOfBlock terminates the symbol stream of one block.
	endOfBlock = 256
	// maxLitLen and maxDist bound the dynamic header alphabet sizes.
	maxLitLen = 286
	maxDist   = 30
	// numClenCodes is the size of the code-length meta-alphabet.
	numClenCodes = 19
)

// clenOrder is the canonical permutation of code-length code lengths.
var clenOrder = [numClenCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase and lengthExtra map length symbols 257..285 per RFC 1951.
var (
	lengthBase = [29]int{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
		35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
	}
	lengthExtra = [29]uint{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
	}
	distBase = [30]int{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
		257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
	}
	distExtra = [30]uint{
		0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
		7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
	}
)

var (
	fixedOnce sync.Once
	fixedLit  huffman
	fixedDist huffman
)

// fixedInit builds the fixed-Huffman tables: literal/length lengths are
// 8,9,7,8 over the RFC's four symbol ranges, distances are all length 5.
func fixedInit() {
	var lit [288]byte
	for i := 0; i < 144; i++ {
		lit[i] = 8
	}
	for i := 144; i < 256; i++ {
		lit[i] = 9
	}
	for i := 256; i < 280; i++ {
		lit[i] = 7
	}
	for i := 280; i < 288; i++ {
		lit[i] = 8
	}

	var dist [30]byte
	for i := range dist {
		dist[i] = 5
	}

	// The fixed code sets are complete by construction.
	_ = fixedLit.build(lit[:])
	_ = fixedDist.build(dist[:])
}

// Decompress decodes a raw DEFLATE stream from src. sizeHint preallocates
// the output and is advisory only; the stream itself terminates decoding.
// When allowEOFPlusOne is set, exactly one unconsumed trailing byte after
// the final block is tolerated.
func Decompress(src []byte, sizeHint int, allowEOFPlusOne bool) ([]byte, error) {
	if sizeHint < 0 {
		sizeHint = 0
	}

	br := bitstream.NewReader(src)
	out := make([]byte, 0, sizeHint)

	d := decompressor{br: br}
	for {
		final, err := br.ReadBit()
		if err != nil {
			return nil, fmt.Errorf("%w: missing block header", ErrStreamTruncated)
		}

		btype, err := br.ReadBits(2)
		if err != nil {
			return nil, fmt.Errorf("%w: missing block type", ErrStreamTruncated)
		}

		switch btype {
		case 0:
			out, err = d.storedBlock(out)
		case 1:
			fixedOnce.Do(fixedInit)
			out, err = d.compressedBlock(out, &fixedLit, &fixedDist)
		case 2:
			out, err = d.dynamicBlock(out)
		default:
			return nil, ErrBlockTypeReserved
		}
		if err != nil {
			return nil, err
		}

		if final == 1 {
			break
		}
	}

	switch rem := br.Remaining(); {
	case rem == 0:
	case rem == 1:
		if !allowEOFPlusOne {
			return nil, ErrEOFPlusOneRejected
		}
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingGarbage, rem)
	}

	return out, nil
}

// decompressor holds per-call decode state; dynamic tables are reused
// across blocks of the same stream.
type decompressor struct {
	br   *bitstream.Reader
	lit  huffman
	dist huffman
	clen huffman
}

// storedBlock copies a byte-aligned verbatim block.
func (d *decompressor) storedBlock(out []byte) ([]byte, error) {
	d.br.AlignToByte()

	length, err := d.br.ReadLEUint16()
	if err != nil {
		return nil, fmt.Errorf("%w: stored block length", ErrStreamTruncated)
	}

	nlen, err := d.br.ReadLEUint16()
	if err != nil {
		return nil, fmt.Errorf("%w: stored block ~length", ErrStreamTruncated)
	}

	if length != ^nlen {
		return nil, ErrLenNlenMismatch
	}

	data, err := d.br.Bytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("%w: stored block payload", ErrStreamTruncated)
	}

	return append(out, data...), nil
}

// dynamicBlock reads the dynamic Huffman header, builds the two data code
// sets, and decodes the block body.
func (d *decompressor) dynamicBlock(out []byte) ([]byte, error) {
	hlit, err := d.br.ReadBits(5)
	if err != nil {
		return nil, fmt.Errorf("%w: dynamic header", ErrStreamTruncated)
	}

	hdist, err := d.br.ReadBits(5)
	if err != nil {
		return nil, fmt.Errorf("%w: dynamic header", ErrStreamTruncated)
	}

	hclen, err := d.br.ReadBits(4)
	if err != nil {
		return nil, fmt.Errorf("%w: dynamic header", ErrStreamTruncated)
	}

	numLit := int(hlit) + 257
	numDist := int(hdist) + 1
	numClen := int(hclen) + 4
	if numLit > maxLitLen || numDist > maxDist {
		return nil, fmt.Errorf("%w: alphabet sizes %d/%d", ErrCodeLengthInvalid, numLit, numDist)
	}

	var clenLengths [numClenCodes]byte
	for i := 0; i < numClen; i++ {
		v, err := d.br.ReadBits(3)
		if err != nil {
			return nil, fmt.Errorf("%w: code-length codes", ErrStreamTruncated)
		}

		clenLengths[clenOrder[i]] = byte(v)
	}

	if err := d.clen.build(clenLengths[:]); err != nil {
		return nil, err
	}

	lengths := make([]byte, numLit+numDist)
	for i := 0; i < len(lengths); {
		sym, err := d.decodeSym(&d.clen)
		if err != nil {
			return nil, err
		}

		switch {
		case sym < 16:
			lengths[i] = byte(sym)
			i++
		case sym == 16:
			if i == 0 {
				return nil, fmt.Errorf("%w: repeat with no previous length", ErrCodeLengthInvalid)
			}

			repeat, err := d.br.ReadBits(2)
			if err != nil {
				return nil, fmt.Errorf("%w: repeat count", ErrStreamTruncated)
			}

			i, err = fillLengths(lengths, i, int(repeat)+3, lengths[i-1])
			if err != nil {
				return nil, err
			}
		case sym == 17:
			repeat, err := d.br.ReadBits(3)
			if err != nil {
				return nil, fmt.Errorf("%w: repeat count", ErrStreamTruncated)
			}

			i, err = fillLengths(lengths, i, int(repeat)+3, 0)
			if err != nil {
				return nil, err
			}
		default: // 18
			repeat, err := d.br.ReadBits(7)
			if err != nil {
				return nil, fmt.Errorf("%w: repeat count", ErrStreamTruncated)
			}

			i, err = fillLengths(lengths, i, int(repeat)+11, 0)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := d.lit.build(lengths[:numLit]); err != nil {
		return nil, err
	}
	if err := d.dist.build(lengths[numLit:]); err != nil {
		return nil, err
	}

	return d.compressedBlock(out, &d.lit, &d.dist)
}

// fillLengths appends a run of identical code lengths with a bounds check.
func fillLengths(lengths []byte, i, count int, value byte) (int, error) {
	if i+count > len(lengths) {
		return 0, fmt.Errorf("%w: repeat run past alphabet end", ErrCodeLengthInvalid)
	}

	for n := 0; n < count; n++ {
		lengths[i] = value
		i++
	}

	return i, nil
}

// compressedBlock decodes literal/length symbols until end-of-block. Copy
// semantics are byte-by-byte, so length may exceed distance.
func (d *decompressor) compressedBlock(out []byte, lit, dist *huffman) ([]byte, error) {
	for {
		sym, err := d.decodeSym(lit)
		if err != nil {
			return nil, err
		}

		if sym < endOfBlock {
			out = append(out, byte(sym))
			continue
		}
		if sym == endOfBlock {
			return out, nil
		}
		if sym >= 257+len(lengthBase) {
			return nil, fmt.Errorf("%w: length symbol %d", ErrCodeLengthInvalid, sym)
		}

		length := lengthBase[sym-257]
		if extra := lengthExtra[sym-257]; extra > 0 {
			bits, err := d.br.ReadBits(extra)
			if err != nil {
				return nil, fmt.Errorf("%w: length extra bits", ErrStreamTruncated)
			}

			length += int(bits)
		}

		dsym, err := d.decodeSym(dist)
		if err != nil {
			return nil, err
		}
		if dsym >= len(distBase) {
			return nil, fmt.Errorf("%w: distance symbol %d", ErrCodeLengthInvalid, dsym)
		}

		distance := distBase[dsym]
		if extra := distExtra[dsym]; extra > 0 {
			bits, err := d.br.ReadBits(extra)
			if err != nil {
				return nil, fmt.Errorf("%w: distance extra bits", ErrStreamTruncated)
			}

			distance += int(bits)
		}

		if distance > len(out) {
			return nil, fmt.Errorf("%w: distance %d, output %d", ErrInvalidDistance, distance, len(out))
		}

		from := len(out) - distance
		for n := 0; n < length; n++ {
			out = append(out, out[from+n])
		}
	}
}

// decodeSym reads one Huffman symbol, mapping bitstream EOF to truncation.
func (d *decompressor) decodeSym(h *huffman) (int, error) {
	sym, err := h.decode(d.br)
	if err != nil {
		if errors.Is(err, bitstream.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: input ended inside symbol", ErrStreamTruncated)
		}

		return 0, err
	}

	return sym, nil
}
