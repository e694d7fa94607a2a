// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package crypt

import (
	"bytes"
	"testing"
)

func TestStream_IsInvolution(t *testing.T) {
	t.Parallel()

	plain := make([]byte, 257)
	for i := range plain {
		plain[i] = byte(i * 7)
	}

	for _, key := range []uint16{0x0000, 0x0001, 0xCAFE, 0xFFFF, 0x1234} {
		enc := Stream(plain, key)
		dec := Stream(enc, key)
		if !bytes.Equal(dec, plain) {
			t.Errorf("key %#04x: double Stream diverged from input", key)
		}
	}
}

func TestStream_ZeroPlaintextRoundTrip(t *testing.T) {
	t.Parallel()

	plain := make([]byte, 64)
	enc := Stream(plain, 0xCAFE)
	if bytes.Equal(enc, plain) {
		t.Fatal("keystream left zero plaintext unchanged")
	}

	dec := Stream(enc, 0xCAFE)
	if !bytes.Equal(dec, plain) {
		t.Fatal("decode of encoded zeros is not all zero")
	}
}

func TestStream_IsDeterministic(t *testing.T) {
	t.Parallel()

	data := []byte("RESOURCE LIBRARY DIRECTORY ROW")
	a := Stream(data, 0x5678)
	b := Stream(data, 0x5678)
	if !bytes.Equal(a, b) {
		t.Error("same key produced different streams")
	}
}

func TestStream_KeyMatters(t *testing.T) {
	t.Parallel()

	data := make([]byte, 32)
	a := Stream(data, 0x0001)
	b := Stream(data, 0x0100)
	if bytes.Equal(a, b) {
		t.Error("different keys produced identical streams")
	}
}

func TestKeystream_StateDependsOnProcessedBytes(t *testing.T) {
	t.Parallel()

	// The key schedule folds produced bytes back into the state, so the
	// same instance must never be reused across streams.
	k := New(0x4242)
	first := k.Next(0x10)
	second := k.Next(0x10)
	if first == second {
		t.Error("state did not advance between bytes")
	}

	fresh := New(0x4242)
	if fresh.Next(0x10) != first {
		t.Error("reseeded stream diverged from first run")
	}
}

func TestApply_ContinuesState(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3, 4, 5, 6}

	whole := Stream(data, 0x77AA)

	k := New(0x77AA)
	split := make([]byte, len(data))
	copy(split, data)
	k.Apply(split[:3])
	k.Apply(split[3:])

	if !bytes.Equal(whole, split) {
		t.Error("split Apply diverged from one-shot Stream")
	}
}
