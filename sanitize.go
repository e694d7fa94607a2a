// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Valentin Popov
// Source: github.com/valentineus/rsli

package rsli

import (
	"fmt"
	"strings"
)

// reservedDOSNames contains case-insensitive reserved DOS/Windows device
// names. RsLi names come from the same DOS era and can collide with them.
var reservedDOSNames = map[string]struct{}{
	"aux":    {},
	"clock$": {},
	"com1":   {},
	"com2":   {},
	"com3":   {},
	"com4":   {},
	"com5":   {},
	"com6":   {},
	"com7":   {},
	"com8":   {},
	"com9":   {},
	"con":    {},
	"lpt1":   {},
	"lpt2":   {},
	"lpt3":   {},
	"lpt4":   {},
	"lpt5":   {},
	"lpt6":   {},
	"lpt7":   {},
	"lpt8":   {},
	"lpt9":   {},
	"nul":    {},
	"prn":    {},
}

// sanitizeEntryName rewrites an entry name to a filesystem-safe flat file
// name. Separator and control bytes become underscores; reserved device
// names get an underscore prefix.
func sanitizeEntryName(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c < 0x20 || c == 0x7F:
			b.WriteByte('_')
		case strings.ContainsRune(`/\:*?"<>|`, rune(c)):
			b.WriteByte('_')
		default:
			b.WriteByte(c)
		}
	}

	out := strings.TrimSpace(b.String())
	out = strings.TrimRight(out, ".")
	if out == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractName, name)
	}

	base := out
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}
	if _, reserved := reservedDOSNames[strings.ToLower(base)]; reserved {
		out = "_" + out
	}

	return out, nil
}
