// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

// Package lzhuf decodes the RsLi LZSS-with-adaptive-Huffman stream. The
// entropy coder runs over a 314-symbol alphabet (256 literal bytes plus 58
// copy lengths, length = symbol - 253) with a canonical frequency-ordered
// tree of 627 nodes. Copy distances use a separate 64-group prefix table:
// a table-decoded prefix supplies the high 6 bits, raw bits fill the rest.
package lzhuf

import (
	"errors"
	"fmt"

	"github.com/valentineus/rsli/bitstream"
)

const (
	// ringSize is the sliding window size in bytes.
	ringSize = 4096
	// lookAhead is the longest match the encoder emits.
	lookAhead = 60
	// threshold is one less than the shortest match stored as a reference.
	threshold = 2
	// numChar counts the leaf alphabet: 256 literals + length codes.
	numChar = 256 - threshold + lookAhead
	// tableSize is the node count of the adaptive tree.
	tableSize = numChar*2 - 1
	// rootNode is the tree root index.
	rootNode = tableSize - 1
	// maxFreq triggers the halving rebalance when the root reaches it.
	maxFreq = 0x8000
)

// ErrDecode means the packed stream is malformed or ended early.
var ErrDecode = errors.New("lzhuf: malformed stream")

// Decompress decodes src until exactly dstSize output bytes are produced.
func Decompress(src []byte, dstSize int) ([]byte, error) {
	if dstSize < 0 {
		return nil, fmt.Errorf("%w: negative output size", ErrDecode)
	}

	d := newDecoder(src)
	return d.decode(dstSize)
}

// model carries the adaptive tree as parallel integer arrays; nodes are
// never allocated individually and rebalancing runs in place. The encoder
// and decoder drive identical models, so both sides stay in sync by
// construction.
type model struct {
	freq   [tableSize + 1]uint16
	parent [tableSize + numChar]int
	son    [tableSize]int

	dCode [256]byte
	dLen  [256]byte
}

// decoder pairs the adaptive model with the bit source and the text ring.
type decoder struct {
	model

	bits    *bitstream.MSBReader
	text    [ringSize]byte
	ringPos int
}

func newDecoder(src []byte) *decoder {
	d := &decoder{
		bits:    bitstream.NewMSBReader(src),
		ringPos: ringSize - lookAhead,
	}
	for i := range d.text {
		d.text[i] = 0x20
	}

	d.initDistanceTables()
	d.startHuff()
	return d
}

func (d *decoder) decode(dstSize int) ([]byte, error) {
	out := make([]byte, 0, dstSize)

	for len(out) < dstSize {
		c, err := d.decodeChar()
		if err != nil {
			return nil, err
		}

		if c < 256 {
			b := byte(c)
			out = append(out, b)
			d.text[d.ringPos] = b
			d.ringPos = (d.ringPos + 1) & (ringSize - 1)
			continue
		}

		dist, err := d.decodePosition()
		if err != nil {
			return nil, err
		}

		offset := (d.ringPos - dist - 1) & (ringSize - 1)
		length := c - 253

		for length > 0 && len(out) < dstSize {
			b := d.text[offset]
			out = append(out, b)
			d.text[d.ringPos] = b
			d.ringPos = (d.ringPos + 1) & (ringSize - 1)
			offset = (offset + 1) & (ringSize - 1)
			length--
		}
	}

	return out, nil
}

// initDistanceTables fills the prefix/suffix distance decode tables. The
// upper 6 distance bits are grouped by code length 3..8; shorter codes
// cover wider runs of the 8-bit table index.
func (d *model) initDistanceTables() {
	codeGroups := [6]int{1, 3, 8, 12, 24, 16}
	lenGroups := [6]int{32, 48, 64, 48, 48, 16}

	group := byte(0)
	idx := 0
	run := 32
	for _, count := range codeGroups {
		for i := 0; i < count; i++ {
			for j := 0; j < run; j++ {
				d.dCode[idx] = group
				idx++
			}

			group++
		}

		run >>= 1
	}

	length := byte(3)
	idx = 0
	for _, count := range lenGroups {
		for i := 0; i < count; i++ {
			d.dLen[idx] = length
			idx++
		}

		length++
	}
}

// startHuff seeds every leaf with frequency 1 and links internal nodes
// bottom-up as sums of their children.
func (d *model) startHuff() {
	for i := 0; i < numChar; i++ {
		d.freq[i] = 1
		d.son[i] = i + tableSize
		d.parent[i+tableSize] = i
	}

	i, j := 0, numChar
	for j <= rootNode {
		d.freq[j] = d.freq[i] + d.freq[i+1]
		d.son[j] = i
		d.parent[i] = j
		d.parent[i+1] = j
		i += 2
		j++
	}

	// Sentinel past the root keeps the rebalance scan bounded.
	d.freq[tableSize] = 0xFFFF
	d.parent[rootNode] = 0
}

// decodeChar descends from the root one bit per step until a leaf, then
// updates the adaptive tree for the decoded symbol.
func (d *decoder) decodeChar() (int, error) {
	node := d.son[rootNode]
	for node < tableSize {
		bit, err := d.bits.ReadBit()
		if err != nil {
			return 0, fmt.Errorf("%w: unexpected EOF in symbol", ErrDecode)
		}

		branch := node + bit
		if branch < 0 || branch >= len(d.son) {
			return 0, fmt.Errorf("%w: tree descent out of bounds", ErrDecode)
		}

		node = d.son[branch]
	}

	c := node - tableSize
	d.update(c)
	return c, nil
}

// decodePosition reads the 8-bit table index, maps it to the distance high
// bits, then pulls the remaining raw suffix bits.
func (d *decoder) decodePosition() (int, error) {
	first, err := d.bits.ReadBits(8)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected EOF in distance prefix", ErrDecode)
	}

	i := int(first)
	c := int(d.dCode[i]) << 6
	j := int(d.dLen[i]) - 2

	for j > 0 {
		j--
		bit, err := d.bits.ReadBit()
		if err != nil {
			return 0, fmt.Errorf("%w: unexpected EOF in distance suffix", ErrDecode)
		}

		c |= bit << j
	}

	return c | i&0x3F, nil
}

// update increments the symbol's leaf frequency and restores the canonical
// frequency ordering by swapping subtrees on the way to the root.
func (d *model) update(c int) {
	if d.freq[rootNode] == maxFreq {
		d.reconstruct()
	}

	current := d.parent[c+tableSize]
	for {
		d.freq[current]++
		f := d.freq[current]

		if current+1 < len(d.freq) && f > d.freq[current+1] {
			swapIdx := current + 1
			for swapIdx+1 < len(d.freq) && f > d.freq[swapIdx+1] {
				swapIdx++
			}

			d.freq[current], d.freq[swapIdx] = d.freq[swapIdx], d.freq[current]

			left := d.son[current]
			right := d.son[swapIdx]
			d.son[current] = right
			d.son[swapIdx] = left

			d.parent[left] = swapIdx
			if left < tableSize {
				d.parent[left+1] = swapIdx
			}

			d.parent[right] = current
			if right < tableSize {
				d.parent[right+1] = current
			}

			current = swapIdx
		}

		current = d.parent[current]
		if current == 0 {
			break
		}
	}
}

// reconstruct halves every leaf frequency (rounded up), then rebuilds the
// internal nodes in frequency order and relinks all parents.
func (d *model) reconstruct() {
	j := 0
	for i := 0; i < tableSize; i++ {
		if d.son[i] >= tableSize {
			d.freq[j] = (d.freq[i] + 1) / 2
			d.son[j] = d.son[i]
			j++
		}
	}

	i, current := 0, numChar
	for current < tableSize {
		sum := d.freq[i] + d.freq[i+1]
		d.freq[current] = sum

		insertAt := current
		for insertAt > 0 && sum < d.freq[insertAt-1] {
			insertAt--
		}

		copy(d.freq[insertAt+1:current+1], d.freq[insertAt:current])
		copy(d.son[insertAt+1:current+1], d.son[insertAt:current])

		d.freq[insertAt] = sum
		d.son[insertAt] = i

		i += 2
		current++
	}

	for idx := 0; idx < tableSize; idx++ {
		node := d.son[idx]
		d.parent[node] = idx
		if node < tableSize {
			d.parent[node+1] = idx
		}
	}

	d.freq[tableSize] = 0xFFFF
	d.parent[rootNode] = 0
}
