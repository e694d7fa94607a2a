// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"errors"

	"github.com/valentineus/rsli/bitstream"
	"github.com/valentineus/rsli/compress/inflate"
	"github.com/valentineus/rsli/compress/lzhuf"
	"github.com/valentineus/rsli/compress/lzss"
)

// Sentinel errors for RsLi operations. Use errors.Is in callers.
var (
	// ErrInvalidMagic means the file does not start with the NL magic triplet.
	ErrInvalidMagic = errors.New("invalid RsLi file: bad magic")
	// ErrUnsupportedVersion means the header version byte is not 0x01.
	ErrUnsupportedVersion = errors.New("unsupported RsLi version")
	// ErrInvalidEntryCount means the header entry count is negative.
	ErrInvalidEntryCount = errors.New("invalid entry count")
	// ErrEntryTableOutOfBounds means the directory span does not fit the file.
	ErrEntryTableOutOfBounds = errors.New("entry table out of bounds")
	// ErrCorruptEntryTable means the decrypted directory is inconsistent.
	ErrCorruptEntryTable = errors.New("corrupt entry table")
	// ErrEntryIndexOutOfRange means the entry index exceeds the directory.
	ErrEntryIndexOutOfRange = errors.New("entry index out of range")
	// ErrPackedSizePastEof means an entry payload range overruns the file.
	ErrPackedSizePastEof = errors.New("packed range past end of file")
	// ErrUnsupportedMethod means the pack-method code is not recognized.
	ErrUnsupportedMethod = errors.New("unsupported packing method")
	// ErrBufferTooSmall means the caller buffer cannot hold the unpacked entry.
	ErrBufferTooSmall = errors.New("destination buffer too small")
	// ErrUnpackedSizeMismatch means kernel output diverged from the declared size.
	ErrUnpackedSizeMismatch = errors.New("unpacked size mismatch")
	// ErrAOTrailerOutOfBounds means the AO trailer overlay exceeds the file.
	ErrAOTrailerOutOfBounds = errors.New("AO trailer overlay out of bounds")
	// ErrNilLibrary means the library handle is nil.
	ErrNilLibrary = errors.New("library is nil")
	// ErrClosed means the library was already closed.
	ErrClosed = errors.New("library already closed")
	// ErrInvalidExtractName means an entry name cannot map to an output file.
	ErrInvalidExtractName = errors.New("invalid extract name")
	// ErrInvalidExtractRules means one or more extract filter rules are invalid.
	ErrInvalidExtractRules = errors.New("invalid extract rules")
)

// Kernel sentinels re-exported under the reader's error taxonomy.
var (
	// ErrLzssDecode means a malformed LZSS stream.
	ErrLzssDecode = lzss.ErrDecode
	// ErrLzhufDecode means a malformed LZHUF stream.
	ErrLzhufDecode = lzhuf.ErrDecode
	// ErrUnexpectedEOF means a bitstream read past the packed slice end.
	ErrUnexpectedEOF = bitstream.ErrUnexpectedEOF
	// ErrDeflateStreamTruncated means DEFLATE input ended inside a block.
	ErrDeflateStreamTruncated = inflate.ErrStreamTruncated
	// ErrDeflateStreamTrailingGarbage means more than one byte followed the
	// final DEFLATE block.
	ErrDeflateStreamTrailingGarbage = inflate.ErrTrailingGarbage
	// ErrDeflateEofPlusOneQuirkRejected means the EOF+1 terminator quirk was
	// seen while AllowDeflateEOFPlusOne is off.
	ErrDeflateEofPlusOneQuirkRejected = inflate.ErrEOFPlusOneRejected
	// ErrDeflateBlockTypeReserved means a DEFLATE block used reserved type 3.
	ErrDeflateBlockTypeReserved = inflate.ErrBlockTypeReserved
	// ErrDeflateLenNlenMismatch means a stored block LEN/NLEN inconsistency.
	ErrDeflateLenNlenMismatch = inflate.ErrLenNlenMismatch
	// ErrDeflateCodeLengthInvalid means a malformed DEFLATE code-length set.
	ErrDeflateCodeLengthInvalid = inflate.ErrCodeLengthInvalid
	// ErrDeflateInvalidDistance means a DEFLATE back-reference before output start.
	ErrDeflateInvalidDistance = inflate.ErrInvalidDistance
)
