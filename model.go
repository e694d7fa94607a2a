// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	headerSize = 32     // fixed RsLi header size in bytes
	entrySize  = 32     // one encrypted directory record
	nameSize   = 12     // NUL-padded entry name field
	trailerLen = 6      // optional AO trailer: "AO" + uint32 overlay
	methodMask = 0x1E0  // compression bits of the entry flags word
	presorted  = 0xABBA // header marker for a trusted sort permutation
)

// Header field offsets within the 32-byte prefix.
const (
	offEntryCount    = 4
	offPresortedFlag = 14
	offXorSeed       = 20
)

// PackMethod encodes the compression family of one entry, including the
// presence of the XOR keystream prelude.
type PackMethod uint32

// Recognized pack-method codes.
const (
	// MethodNone stores the payload verbatim.
	MethodNone PackMethod = 0x000
	// MethodXor applies only the XOR keystream.
	MethodXor PackMethod = 0x020
	// MethodLzss packs with the sliding-window LZSS kernel.
	MethodLzss PackMethod = 0x040
	// MethodXorLzss is LZSS over an XOR-deciphered stream.
	MethodXorLzss PackMethod = 0x060
	// MethodLzssHuffman packs with the adaptive-Huffman LZSS kernel.
	MethodLzssHuffman PackMethod = 0x080
	// MethodXorLzssHuffman is LZHUF over an XOR-deciphered stream.
	MethodXorLzssHuffman PackMethod = 0x0A0
	// MethodDeflate packs with raw DEFLATE (no zlib framing).
	MethodDeflate PackMethod = 0x100
)

// Supported reports whether m is one of the seven recognized codes.
func (m PackMethod) Supported() bool {
	switch m {
	case MethodNone, MethodXor, MethodLzss, MethodXorLzss,
		MethodLzssHuffman, MethodXorLzssHuffman, MethodDeflate:
		return true
	}

	return false
}

// HasXor reports whether the method carries an XOR keystream prelude.
func (m PackMethod) HasXor() bool {
	return m == MethodXor || m == MethodXorLzss || m == MethodXorLzssHuffman
}

// String returns the method name used in errors and listings.
func (m PackMethod) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodXor:
		return "xor"
	case MethodLzss:
		return "lzss"
	case MethodXorLzss:
		return "xor+lzss"
	case MethodLzssHuffman:
		return "lzss-huffman"
	case MethodXorLzssHuffman:
		return "xor+lzss-huffman"
	case MethodDeflate:
		return "deflate"
	}

	return "unknown"
}

// Header is the parsed 32-byte file prefix. Raw preserves every byte,
// including reserved fields, bit-exact.
type Header struct {
	// Raw is the verbatim header block.
	Raw [headerSize]byte `json:"raw" yaml:"raw"`
	// Version is the format marker byte; always 0x01 for supported files.
	Version byte `json:"version" yaml:"version"`
	// EntryCount is the signed directory length from the header.
	EntryCount int16 `json:"entry_count" yaml:"entry_count"`
	// Presorted reports whether the directory carries a trusted sort permutation.
	Presorted bool `json:"presorted" yaml:"presorted"`
	// XorSeed is the raw 32-bit directory keystream seed; only the low
	// 16 bits enter the cipher.
	XorSeed uint32 `json:"xor_seed" yaml:"xor_seed"`
}

// EntryInfo describes a single directory entry after decryption.
type EntryInfo struct {
	// Name is the uppercase lookup name decoded from NameRaw.
	Name string `json:"name" yaml:"name"`
	// NameRaw is the verbatim NUL-padded name field.
	NameRaw [nameSize]byte `json:"name_raw" yaml:"name_raw"`
	// ServiceTail is the opaque reserved field; round-tripped unmodified.
	ServiceTail [4]byte `json:"service_tail" yaml:"service_tail"`
	// Flags is the raw entry flags word carrying the method bits.
	Flags int16 `json:"flags" yaml:"flags"`
	// SortIndex is the entry position in case-insensitive name order. For
	// non-presorted directories it is rebuilt at parse time.
	SortIndex int16 `json:"sort_index" yaml:"sort_index"`
	// Method is the decoded pack-method code.
	Method PackMethod `json:"method" yaml:"method"`
	// UnpackedSize is the declared size after decompression.
	UnpackedSize uint32 `json:"unpacked_size" yaml:"unpacked_size"`
	// PackedSize is the declared on-disk payload size.
	PackedSize uint32 `json:"packed_size" yaml:"packed_size"`
	// DataOffset is the payload offset as stored, before any AO overlay shift.
	DataOffset uint32 `json:"data_offset" yaml:"data_offset"`
}

// AOTrailer is the optional 6-byte media-overlay tail. The core treats it
// as opaque; Overlay shifts every payload offset when the trailer is allowed.
type AOTrailer struct {
	// Raw is the verbatim trailer block.
	Raw [trailerLen]byte `json:"raw" yaml:"raw"`
	// Overlay is the offset shift decoded from the trailer.
	Overlay uint32 `json:"overlay" yaml:"overlay"`
}

// OpenOptions configures archive parsing. Both quirk toggles are explicit;
// the reader never guesses. DefaultOpenOptions matches the original engine.
type OpenOptions struct {
	// AllowAOTrailer permits the appended AO chunk and applies its payload
	// offset shift. When false a present trailer is ignored.
	AllowAOTrailer bool `json:"allow_ao_trailer" yaml:"allow_ao_trailer"`
	// AllowDeflateEOFPlusOne tolerates DEFLATE streams whose terminator
	// lands one byte past the declared packed size.
	AllowDeflateEOFPlusOne bool `json:"allow_deflate_eof_plus_one" yaml:"allow_deflate_eof_plus_one"`
	// CacheSize enables an LRU cache of decoded payloads when positive.
	CacheSize int `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
}

// DefaultOpenOptions returns the permissive configuration used by Open.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{
		AllowAOTrailer:         true,
		AllowDeflateEOFPlusOne: true,
	}
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// Rules is an include/exclude name filter; empty means all entries.
	Rules []pathrules.Rule `json:"-" yaml:"-"`
	// RuleMatcherOptions configures Rules compilation.
	RuleMatcherOptions pathrules.MatcherOptions `json:"-" yaml:"-"`
	// MaxWorkers is the number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default output name sanitization.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}
