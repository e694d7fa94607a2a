// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

// Package lzss decodes the RsLi sliding-window LZSS stream: a flag byte
// supplies eight LSB-first tags, tag 1 is a literal byte, tag 0 is a 16-bit
// little-endian reference word carrying a 12-bit ring offset and a 4-bit
// copy length biased by 3.
package lzss

import (
	"errors"
	"fmt"
)

const (
	// ringSize is the sliding window size in bytes.
	ringSize = 0x1000
	// ringStart is the initial window cursor position.
	ringStart = 0xFEE
	// ringFill is the byte the window is seeded with.
	ringFill = 0x20
	// minMatch is the shortest back-reference copy.
	minMatch = 3
)

// ErrDecode means the packed stream ended before the declared output size
// was produced, or the declared output size is negative.
var ErrDecode = errors.New("lzss: malformed stream")

// Decompress decodes src until exactly dstSize output bytes are produced.
// Flag bits past the final output byte are not consulted.
func Decompress(src []byte, dstSize int) ([]byte, error) {
	if dstSize < 0 {
		return nil, fmt.Errorf("%w: negative output size", ErrDecode)
	}

	var ring [ringSize]byte
	for i := range ring {
		ring[i] = ringFill
	}

	ringPos := ringStart
	out := make([]byte, 0, dstSize)
	pos := 0

	var control byte
	var bitsLeft uint

	for len(out) < dstSize {
		if bitsLeft == 0 {
			if pos >= len(src) {
				return nil, fmt.Errorf("%w: unexpected EOF at flag byte", ErrDecode)
			}

			control = src[pos]
			pos++
			bitsLeft = 8
		}

		if control&1 != 0 {
			if pos >= len(src) {
				return nil, fmt.Errorf("%w: unexpected EOF at literal", ErrDecode)
			}

			b := src[pos]
			pos++

			out = append(out, b)
			ring[ringPos] = b
			ringPos = (ringPos + 1) & (ringSize - 1)
		} else {
			if pos+1 >= len(src) {
				return nil, fmt.Errorf("%w: unexpected EOF at reference word", ErrDecode)
			}

			low := src[pos]
			high := src[pos+1]
			pos += 2

			offset := int(low) | int(high&0xF0)<<4
			length := int(high&0x0F) + minMatch

			for step := 0; step < length; step++ {
				b := ring[(offset+step)&(ringSize-1)]
				out = append(out, b)
				ring[ringPos] = b
				ringPos = (ringPos + 1) & (ringSize - 1)
				if len(out) >= dstSize {
					break
				}
			}
		}

		control >>= 1
		bitsLeft--
	}

	return out, nil
}
