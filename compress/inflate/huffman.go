// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package inflate

import (
	"fmt"

	"github.com/valentineus/rsli/bitstream"
)

const (
	// maxCodeBits is the longest DEFLATE Huffman code.
	maxCodeBits = 15
	// fastBits sizes the single-lookup root table.
	fastBits = 9
)

// huffman is a canonical Huffman decoder built from code lengths, following
// the RFC 1951 construction: count codes per length, derive the first code
// of each length, assign codes in ascending symbol order. A 9-bit root
// table resolves common codes in one lookup; longer codes fall back to a
// bit-by-bit canonical descent.
type huffman struct {
	// count[n] is the number of codes of length n.
	count [maxCodeBits + 1]uint16
	// symbols holds symbol values ordered by (code length, symbol).
	symbols []uint16
	// fast maps a bit-reversed fastBits prefix to sym<<4|len; zero entries
	// fall through to the slow path.
	fast [1 << fastBits]uint16
}

// build initializes the decoder from per-symbol code lengths. Lengths of
// zero mean the symbol is absent. An over-subscribed set of lengths is
// rejected; incomplete sets are accepted (single-symbol distance trees
// occur in real streams).
func (h *huffman) build(lengths []byte) error {
	for i := range h.count {
		h.count[i] = 0
	}
	for i := range h.fast {
		h.fast[i] = 0
	}

	live := 0
	for _, l := range lengths {
		if l > maxCodeBits {
			return fmt.Errorf("%w: code length %d", ErrCodeLengthInvalid, l)
		}
		if l > 0 {
			h.count[l]++
			live++
		}
	}
	if live == 0 {
		h.symbols = h.symbols[:0]
		return nil
	}

	// Over-subscription check: each length halves the remaining code space.
	left := 1
	for n := 1; n <= maxCodeBits; n++ {
		left <<= 1
		left -= int(h.count[n])
		if left < 0 {
			return fmt.Errorf("%w: over-subscribed code set", ErrCodeLengthInvalid)
		}
	}

	var offsets [maxCodeBits + 1]uint16
	for n := 1; n < maxCodeBits; n++ {
		offsets[n+1] = offsets[n] + h.count[n]
	}

	if cap(h.symbols) < live {
		h.symbols = make([]uint16, live)
	} else {
		h.symbols = h.symbols[:live]
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}

		h.symbols[offsets[l]] = uint16(sym)
		offsets[l]++
	}

	h.buildFast(lengths)
	return nil
}

// buildFast fills the root table for codes no longer than fastBits.
func (h *huffman) buildFast(lengths []byte) {
	code := uint32(0)
	var nextCode [maxCodeBits + 1]uint32
	for n := 1; n <= maxCodeBits; n++ {
		code = (code + uint32(h.count[n-1])) << 1
		nextCode[n] = code
	}

	for sym, l := range lengths {
		if l == 0 || int(l) > fastBits {
			if l != 0 {
				nextCode[l]++
			}
			continue
		}

		c := nextCode[l]
		nextCode[l]++

		rev := reverseBits(c, uint(l))
		entry := uint16(sym)<<4 | uint16(l)
		// Replicate across every suffix of the unfilled low bits.
		step := uint32(1) << l
		for idx := rev; idx < 1<<fastBits; idx += step {
			h.fast[idx] = entry
		}
	}
}

// decode reads one symbol from br.
func (h *huffman) decode(br *bitstream.Reader) (int, error) {
	if peek, avail := br.PeekBits(fastBits); avail > 0 {
		if entry := h.fast[peek]; entry != 0 {
			l := uint(entry & 0xF)
			if l <= avail {
				br.Drop(l)
				return int(entry >> 4), nil
			}
		}
	}

	return h.decodeSlow(br)
}

// decodeSlow walks the canonical code space one bit at a time; used for
// codes longer than the root table and near end of input.
func (h *huffman) decodeSlow(br *bitstream.Reader) (int, error) {
	code := 0
	first := 0
	index := 0
	for n := 1; n <= maxCodeBits; n++ {
		bit, err := br.ReadBit()
		if err != nil {
			return 0, err
		}

		code |= int(bit)
		count := int(h.count[n])
		if code-first < count {
			return int(h.symbols[index+code-first]), nil
		}

		index += count
		first = (first + count) << 1
		code <<= 1
	}

	return 0, fmt.Errorf("%w: code outside code set", ErrCodeLengthInvalid)
}

// reverseBits reverses the low n bits of v.
func reverseBits(v uint32, n uint) uint32 {
	var out uint32
	for i := uint(0); i < n; i++ {
		out = out<<1 | v&1
		v >>= 1
	}

	return out
}
