package elf64

import (
	"strconv"
	"strings"
)

type intName struct {
	i uint64
	s string
}

// valueRange is a reserved range of a coded field whose members are legal
// even when they have no name.
type valueRange struct {
	lo, hi uint64
	base   string
}

func lookupName(i uint64, names []intName) (string, bool) {
	for _, n := range names {
		if n.i == i {
			return n.s, true
		}
	}
	return "", false
}

// known reports whether i is named or falls inside one of the ranges.
func known(i uint64, names []intName, ranges []valueRange) bool {
	if _, ok := lookupName(i, names); ok {
		return true
	}
	for _, r := range ranges {
		if i >= r.lo && i <= r.hi {
			return true
		}
	}
	return false
}

func stringName(i uint64, names []intName, ranges []valueRange) string {
	if s, ok := lookupName(i, names); ok {
		return s
	}
	for _, r := range ranges {
		if i >= r.lo && i <= r.hi {
			return r.base + "+0x" + strconv.FormatUint(i-r.lo, 16)
		}
	}
	return strconv.FormatUint(i, 10)
}

// flagName renders the named bits of v joined by '+', followed by any
// leftover bits in hex.
func flagName(v uint64, names []intName) string {
	var b strings.Builder
	for _, n := range names {
		if v&n.i == n.i {
			if b.Len() > 0 {
				b.WriteByte('+')
			}
			b.WriteString(n.s)
			v &^= n.i
		}
	}
	if b.Len() == 0 {
		return "0x" + strconv.FormatUint(v, 16)
	}
	if v != 0 {
		b.WriteString("+0x")
		b.WriteString(strconv.FormatUint(v, 16))
	}
	return b.String()
}
