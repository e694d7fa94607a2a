// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

/*
Package rsli reads RsLi resource-library archives: single-file containers
whose directory sits at a fixed pre-header offset, is encrypted with a
16-bit self-modifying XOR keystream, and whose payloads are packed with one
of seven methods (verbatim, XOR stream, LZSS, adaptive-Huffman LZSS, either
LZ variant behind an XOR prelude, or raw DEFLATE).

# Reading

Open an archive and load entries by name:

	lib, err := rsli.Open("textures.rl")
	if err != nil {
	    return err
	}
	defer lib.Close()

	idx, ok := lib.Find("sky0")
	if !ok {
	    return fmt.Errorf("entry not found")
	}
	data, err := lib.Load(idx)
	if err != nil {
	    return err
	}
	// use data

Lookup is case-insensitive: "SKY0", "sky0" and "Sky0" resolve to the same
entry. For memory-mapped or already-loaded archives, parse borrowed bytes:

	lib, err := rsli.New(mapped, rsli.OpenOptions{
	    AllowAOTrailer:         true,
	    AllowDeflateEOFPlusOne: true,
	})

Both archive quirks are explicit at open time: AllowAOTrailer applies the
optional appended media-overlay chunk's payload offset shift, and
AllowDeflateEOFPlusOne tolerates DEFLATE payloads whose terminator lands
one byte past the declared packed size. Open uses DefaultOpenOptions,
which enables both, matching the original engine.

Uncompressed entries have a zero-copy path:

	data, err := lib.LoadFast(idx) // borrowed slice for method none

Decode into a caller-provided buffer, or replay a packed payload outside
any handle:

	n, err := lib.LoadInto(idx, buf)
	raw, err := lib.LoadPacked(idx)
	out, err := rsli.Unpack(raw, entry.Method, entry.UnpackedSize, uint32(len(raw)), uint16(entry.SortIndex))

# Extracting

Extract all or selected entries to a directory (parallel workers):

	err := lib.Extract(ctx, "out/", rsli.ExtractOptions{
	    MaxWorkers: 4,
	    Rules: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "*.msh"},
	    },
	    RuleMatcherOptions: pathrules.MatcherOptions{
	        CaseInsensitive: true,
	        DefaultAction:   pathrules.ActionExclude,
	    },
	})

Output names are sanitized for the local filesystem by default; pass
RawNames to keep archive names verbatim.
*/
package rsli
