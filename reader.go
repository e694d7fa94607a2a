// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/valentineus/rsli/crypt"
)

// Library provides read-only access to a parsed RsLi archive. All state is
// immutable after parse except the optional decoded-payload cache; one
// caller drives a handle at a time, but independent handles over the same
// bytes are safe to use concurrently.
type Library struct {
	// data is the full archive; borrowed from the caller or owned by Open.
	data []byte
	// header stores the parsed 32-byte prefix.
	header Header
	// entries stores parsed immutable entry records.
	entries []entryRecord
	// byName maps uppercased raw names to the first entry index.
	byName map[string]int
	// anomalies records tolerated directory oddities, e.g. duplicate names.
	anomalies []string
	// trailer is the AO trailer when present and allowed.
	trailer *AOTrailer
	// opts is the resolved open configuration.
	opts OpenOptions
	// cache holds decoded payloads when OpenOptions.CacheSize is positive.
	cache *lru.Cache[int, []byte]
	// mu guards closed state.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// entryRecord pairs public entry metadata with resolved decode state.
type entryRecord struct {
	// info is the caller-visible metadata.
	info EntryInfo
	// key16 seeds the per-entry XOR keystream; equal to the sort index.
	key16 uint16
	// effectiveOffset is DataOffset plus the AO overlay shift.
	effectiveOffset int64
	// packedAvail is the addressable payload length in bytes.
	packedAvail int
	// eofPlusOne marks a DEFLATE payload whose declared range overruns the
	// file by exactly one byte.
	eofPlusOne bool
}

// Open reads an RsLi archive from path with the permissive default options.
func Open(path string) (*Library, error) {
	return OpenWithOptions(path, DefaultOpenOptions())
}

// OpenWithOptions reads an RsLi archive from path with explicit options.
// The returned Library owns the loaded bytes.
func OpenWithOptions(path string, opts OpenOptions) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open RsLi: %w", err)
	}

	return New(data, opts)
}

// New parses an RsLi archive from caller-provided bytes. The Library
// borrows data; the caller must keep it immutable for the handle lifetime.
// This is the constructor for memory-mapped use.
func New(data []byte, opts OpenOptions) (*Library, error) {
	lib := &Library{data: data, opts: opts}
	if err := lib.parse(); err != nil {
		return nil, err
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[int, []byte](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create payload cache: %w", err)
		}

		lib.cache = cache
	}

	return lib, nil
}

// parse validates the header, decrypts the directory, and materializes
// entry records with resolved payload spans.
func (l *Library) parse() error {
	if len(l.data) < headerSize {
		return fmt.Errorf("%w: file %d bytes, header needs %d", ErrEntryTableOutOfBounds, len(l.data), headerSize)
	}

	copy(l.header.Raw[:], l.data[:headerSize])

	if !bytes.Equal(l.data[0:3], []byte{'N', 'L', 0x00}) {
		return fmt.Errorf("%w: % X", ErrInvalidMagic, l.data[0:3])
	}

	l.header.Version = l.data[3]
	if l.header.Version != 0x01 {
		return fmt.Errorf("%w: %#x", ErrUnsupportedVersion, l.header.Version)
	}

	l.header.EntryCount = int16(binary.LittleEndian.Uint16(l.data[offEntryCount:]))
	if l.header.EntryCount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidEntryCount, l.header.EntryCount)
	}

	l.header.Presorted = binary.LittleEndian.Uint16(l.data[offPresortedFlag:]) == presorted
	l.header.XorSeed = binary.LittleEndian.Uint32(l.data[offXorSeed:])

	count := int(l.header.EntryCount)
	tableEnd := headerSize + count*entrySize
	if tableEnd > len(l.data) {
		return fmt.Errorf("%w: table [%d, %d), file %d bytes",
			ErrEntryTableOutOfBounds, headerSize, tableEnd, len(l.data))
	}

	table := crypt.Stream(l.data[headerSize:tableEnd], uint16(l.header.XorSeed))

	overlay, trailer, err := parseAOTrailer(l.data, l.opts.AllowAOTrailer)
	if err != nil {
		return err
	}
	l.trailer = trailer

	l.entries = make([]entryRecord, 0, count)
	for idx := 0; idx < count; idx++ {
		rec, err := parseEntry(table[idx*entrySize:(idx+1)*entrySize], idx, overlay, len(l.data))
		if err != nil {
			return err
		}

		l.entries = append(l.entries, rec)
	}

	if l.header.Presorted {
		if err := l.validateSortPermutation(); err != nil {
			return err
		}
	} else {
		l.rebuildSortIndices()
	}

	l.buildNameIndex()
	return nil
}

// parseEntry decodes one decrypted 32-byte directory row.
func parseEntry(row []byte, idx int, overlay uint32, fileLen int) (entryRecord, error) {
	var rec entryRecord

	copy(rec.info.NameRaw[:], row[0:nameSize])
	copy(rec.info.ServiceTail[:], row[nameSize:16])

	rec.info.Flags = int16(binary.LittleEndian.Uint16(row[16:]))
	rec.info.SortIndex = int16(binary.LittleEndian.Uint16(row[18:]))
	rec.info.UnpackedSize = binary.LittleEndian.Uint32(row[20:])
	rec.info.DataOffset = binary.LittleEndian.Uint32(row[24:])
	rec.info.PackedSize = binary.LittleEndian.Uint32(row[28:])

	rec.info.Method = PackMethod(uint32(uint16(rec.info.Flags)) & methodMask)
	rec.info.Name = decodeName(cName(rec.info.NameRaw[:]))
	rec.key16 = uint16(rec.info.SortIndex)

	rec.effectiveOffset = int64(rec.info.DataOffset) + int64(overlay)
	rec.packedAvail = int(rec.info.PackedSize)

	end := rec.effectiveOffset + int64(rec.info.PackedSize)
	if end > int64(fileLen) {
		if rec.info.Method == MethodDeflate && end == int64(fileLen)+1 {
			// One-byte overhang from the original engine's readahead; the
			// toggle decision is taken at load time.
			rec.packedAvail--
			rec.eofPlusOne = true
		} else {
			return rec, fmt.Errorf("%w: entry %d, range [%d, %d), file %d bytes",
				ErrPackedSizePastEof, idx, rec.effectiveOffset, end, fileLen)
		}
	}

	return rec, nil
}

// parseAOTrailer detects the optional "AO" + overlay tail.
func parseAOTrailer(data []byte, allow bool) (uint32, *AOTrailer, error) {
	if !allow || len(data) < trailerLen {
		return 0, nil, nil
	}

	tail := data[len(data)-trailerLen:]
	if tail[0] != 'A' || tail[1] != 'O' {
		return 0, nil, nil
	}

	trailer := &AOTrailer{}
	copy(trailer.Raw[:], tail)
	trailer.Overlay = binary.LittleEndian.Uint32(tail[2:])

	if int64(trailer.Overlay) > int64(len(data)) {
		return 0, nil, fmt.Errorf("%w: overlay %d, file %d bytes",
			ErrAOTrailerOutOfBounds, trailer.Overlay, len(data))
	}

	return trailer.Overlay, trailer, nil
}

// validateSortPermutation checks that stored sort indices form a
// permutation of the directory before the lookup path trusts them.
func (l *Library) validateSortPermutation() error {
	count := len(l.entries)
	seen := make([]bool, count)
	for _, rec := range l.entries {
		idx := int(rec.info.SortIndex)
		if idx < 0 || idx >= count || seen[idx] {
			return fmt.Errorf("%w: sort index %d is not a permutation slot", ErrCorruptEntryTable, idx)
		}

		seen[idx] = true
	}

	return nil
}

// rebuildSortIndices assigns sort indices from a stable case-insensitive
// ascending ordering over names, and reseeds each entry's XOR key.
func (l *Library) rebuildSortIndices() {
	order := make([]int, len(l.entries))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return bytes.Compare(upperASCII(cName(l.entries[order[a]].info.NameRaw[:])), upperASCII(cName(l.entries[order[b]].info.NameRaw[:]))) < 0
	})

	for i := range l.entries {
		l.entries[i].info.SortIndex = int16(order[i])
		l.entries[i].key16 = uint16(order[i])
	}
}

// buildNameIndex builds the case-insensitive lookup map. The first
// occurrence of a duplicate name wins; duplicates are recorded as
// non-fatal anomalies.
func (l *Library) buildNameIndex() {
	l.byName = make(map[string]int, len(l.entries))
	for i := range l.entries {
		key := string(upperASCII(cName(l.entries[i].info.NameRaw[:])))
		if first, ok := l.byName[key]; ok {
			l.anomalies = append(l.anomalies,
				fmt.Sprintf("duplicate entry name %q at index %d, first at %d", key, i, first))
			continue
		}

		l.byName[key] = i
	}
}

// Find resolves a case-insensitive entry name to its index.
func (l *Library) Find(name string) (int, bool) {
	if l == nil || l.byName == nil {
		return 0, false
	}

	idx, ok := l.byName[string(upperASCII([]byte(name)))]
	return idx, ok
}

// Entries returns a copy of the parsed entry metadata.
func (l *Library) Entries() []EntryInfo {
	if l == nil {
		return nil
	}

	out := make([]EntryInfo, len(l.entries))
	for i := range l.entries {
		out[i] = l.entries[i].info
	}

	return out
}

// Entry returns metadata for one entry index.
func (l *Library) Entry(index int) (EntryInfo, error) {
	if l == nil {
		return EntryInfo{}, ErrNilLibrary
	}

	rec, err := l.entryByIndex(index)
	if err != nil {
		return EntryInfo{}, err
	}

	return rec.info, nil
}

// EntryCount returns the number of directory entries.
func (l *Library) EntryCount() int {
	if l == nil {
		return 0
	}

	return len(l.entries)
}

// Header returns the parsed header, reserved bytes included.
func (l *Library) Header() Header {
	if l == nil {
		return Header{}
	}

	return l.header
}

// AOTrailer returns the parsed trailer when present and allowed.
func (l *Library) AOTrailer() (AOTrailer, bool) {
	if l == nil || l.trailer == nil {
		return AOTrailer{}, false
	}

	return *l.trailer, true
}

// Anomalies returns tolerated structural oddities recorded during parse.
func (l *Library) Anomalies() []string {
	if l == nil {
		return nil
	}

	out := make([]string, len(l.anomalies))
	copy(out, l.anomalies)
	return out
}

// Size returns the archive length in bytes.
func (l *Library) Size() int64 {
	if l == nil {
		return 0
	}

	return int64(len(l.data))
}

// Close releases the handle. Borrowed bytes are not touched; loads after
// Close fail with ErrClosed.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	if l.cache != nil {
		l.cache.Purge()
	}

	return nil
}

// isClosed reports the closed state under the handle lock.
func (l *Library) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// entryByIndex resolves an entry index with a bounds check.
func (l *Library) entryByIndex(index int) (*entryRecord, error) {
	if index < 0 || index >= len(l.entries) {
		return nil, fmt.Errorf("%w: index %d, count %d", ErrEntryIndexOutOfRange, index, len(l.entries))
	}

	return &l.entries[index], nil
}

// cName trims the NUL-padded name field to its logical bytes.
func cName(raw []byte) []byte {
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		return raw[:idx]
	}

	return raw
}

// upperASCII uppercases ASCII letters without touching high bytes.
func upperASCII(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}

		out[i] = b
	}

	return out
}

// decodeName maps raw name bytes to a string byte-transparently.
func decodeName(raw []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// ISO 8859-1 decodes any byte; keep the raw form if it ever fails.
		return string(raw)
	}

	return string(decoded)
}
