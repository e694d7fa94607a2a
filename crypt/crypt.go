// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

// Package crypt implements the RsLi 16-bit self-modifying XOR keystream.
// The same stream decrypts the entry directory and the optional per-entry
// payload prelude. The cipher is its own inverse on a clean stream.
package crypt

// Keystream is the running cipher state. Create one per decrypted stream;
// the state depends on every byte processed so far, so an instance must
// never be shared across entries.
type Keystream struct {
	lo byte
	hi byte
}

// New seeds a keystream from a 16-bit key.
func New(key uint16) *Keystream {
	return &Keystream{
		lo: byte(key),
		hi: byte(key >> 8),
	}
}

// Next transforms one byte and advances the state.
func (k *Keystream) Next(b byte) byte {
	k.lo = k.hi ^ (k.lo << 1)
	out := b ^ k.lo
	k.hi = k.lo ^ (k.hi >> 1)
	return out
}

// Apply transforms buf in place with a stream continued from the current state.
func (k *Keystream) Apply(buf []byte) {
	for i := range buf {
		buf[i] = k.Next(buf[i])
	}
}

// Stream returns a transformed copy of data under a fresh keystream seeded
// with key. Applying Stream twice with the same key restores the input.
func Stream(data []byte, key uint16) []byte {
	k := New(key)
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = k.Next(b)
	}

	return out
}
