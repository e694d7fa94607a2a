// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ReadHeader reads only the 32-byte header of an RsLi archive without
// decrypting the directory.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("open RsLi: %w", err)
	}
	defer func() { _ = f.Close() }()

	var raw [headerSize]byte
	if _, err := f.ReadAt(raw[:], 0); err != nil {
		return Header{}, fmt.Errorf("%w: short header", ErrEntryTableOutOfBounds)
	}

	if raw[0] != 'N' || raw[1] != 'L' || raw[2] != 0x00 {
		return Header{}, fmt.Errorf("%w: % X", ErrInvalidMagic, raw[0:3])
	}
	if raw[3] != 0x01 {
		return Header{}, fmt.Errorf("%w: %#x", ErrUnsupportedVersion, raw[3])
	}

	header := Header{
		Raw:       raw,
		Version:   raw[3],
		Presorted: binary.LittleEndian.Uint16(raw[offPresortedFlag:]) == presorted,
		XorSeed:   binary.LittleEndian.Uint32(raw[offXorSeed:]),
	}
	header.EntryCount = int16(binary.LittleEndian.Uint16(raw[offEntryCount:]))
	if header.EntryCount < 0 {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidEntryCount, header.EntryCount)
	}

	return header, nil
}

// ListEntries opens an RsLi archive and returns entry metadata without
// decoding any payload.
func ListEntries(path string) ([]EntryInfo, error) {
	return ListEntriesWithOptions(path, DefaultOpenOptions())
}

// ListEntriesWithOptions opens an RsLi archive with explicit options and
// returns entry metadata without decoding any payload.
func ListEntriesWithOptions(path string, opts OpenOptions) ([]EntryInfo, error) {
	lib, err := OpenWithOptions(path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lib.Close() }()

	return lib.Entries(), nil
}
