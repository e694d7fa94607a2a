// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package lzss

// maxMatch is the longest back-reference copy one reference word encodes.
const maxMatch = minMatch + 0x0F

// Compress encodes src into the flag-driven LZSS stream understood by
// Decompress, using a greedy longest-match search over the sliding window.
func Compress(src []byte) []byte {
	var ring [ringSize]byte
	for i := range ring {
		ring[i] = ringFill
	}

	ringPos := ringStart
	out := make([]byte, 0, len(src)/2+16)

	flagIdx := -1
	flagBit := uint(8)
	emit := func(literal bool, data ...byte) {
		if flagBit == 8 {
			out = append(out, 0)
			flagIdx = len(out) - 1
			flagBit = 0
		}

		if literal {
			out[flagIdx] |= 1 << flagBit
		}

		out = append(out, data...)
		flagBit++
	}

	push := func(b byte) {
		ring[ringPos] = b
		ringPos = (ringPos + 1) & (ringSize - 1)
	}

	for i := 0; i < len(src); {
		length, offset := findRingMatch(&ring, ringPos, src[i:])
		if length < minMatch {
			emit(true, src[i])
			push(src[i])
			i++
			continue
		}

		emit(false, byte(offset), byte(offset>>4&0xF0)|byte(length-minMatch))
		for n := 0; n < length; n++ {
			push(src[i+n])
		}

		i += length
	}

	return out
}

// findRingMatch searches the window for the longest match of want at an
// offset whose source range stays clear of the bytes the copy rewrites, so
// the decoder reads the same snapshot the encoder saw.
func findRingMatch(ring *[ringSize]byte, ringPos int, want []byte) (int, int) {
	limit := len(want)
	if limit > maxMatch {
		limit = maxMatch
	}

	bestLen, bestOffset := 0, 0
	for offset := 0; offset < ringSize; offset++ {
		length := 0
		for length < limit && ring[(offset+length)&(ringSize-1)] == want[length] {
			length++
		}

		if length > bestLen && !rangesOverlap(offset, ringPos, length) {
			bestLen, bestOffset = length, offset
			if length == limit {
				break
			}
		}
	}

	return bestLen, bestOffset
}

// rangesOverlap reports whether the copy source [offset, offset+length)
// intersects the write window [ringPos, ringPos+length) modulo the ring.
func rangesOverlap(offset, ringPos, length int) bool {
	for n := 0; n < length; n++ {
		src := (offset + n) & (ringSize - 1)
		for w := 0; w < length; w++ {
			if src == (ringPos+w)&(ringSize-1) {
				return true
			}
		}
	}

	return false
}
