// Package elfcheck lints a decoded ELF64 object for layout problems the
// decoder itself tolerates: odd record sizes, tables or sections that run
// past the end of the file, bad alignments and inconsistent segment sizes.
package elfcheck

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kyleseneker/tinyld/internal/diag"
	"github.com/kyleseneker/tinyld/internal/elf64"
)

// Rule names, as accepted by Options.Disable.
const (
	RuleHeaderSize    = "header-size"
	RuleTableBounds   = "table-bounds"
	RuleTableDecode   = "table-decode"
	RuleAlignment     = "alignment"
	RuleSectionBounds = "section-bounds"
	RuleSegmentSize   = "segment-size"
	RuleShstrndx      = "shstrndx"
)

// Rules lists every rule in the order Check runs them.
var Rules = []string{
	RuleHeaderSize,
	RuleTableBounds,
	RuleTableDecode,
	RuleAlignment,
	RuleSectionBounds,
	RuleSegmentSize,
	RuleShstrndx,
}

// KnownRule reports whether name is one of Rules.
func KnownRule(name string) bool {
	return slices.Contains(Rules, name)
}

// Finding is a single rule violation.
type Finding struct {
	Rule string
	Msg  string
}

func (f Finding) String() string {
	return f.Rule + ": " + f.Msg
}

// Options controls which rules run.
type Options struct {
	Disable []string
}

func (o Options) enabled(rule string) bool {
	return !slices.Contains(o.Disable, rule)
}

type checker struct {
	f        *elf64.File
	findings []Finding
}

func (c *checker) report(rule, format string, args ...any) {
	c.findings = append(c.findings, Finding{Rule: rule, Msg: fmt.Sprintf(format, args...)})
}

// Check runs every enabled rule over f and returns the findings in rule
// order. A nil result means f is clean.
func Check(f *elf64.File, opts Options) []Finding {
	c := &checker{f: f}
	rules := map[string]func(){
		RuleHeaderSize:    c.headerSize,
		RuleTableBounds:   c.tableBounds,
		RuleTableDecode:   c.tableDecode,
		RuleAlignment:     c.alignment,
		RuleSectionBounds: c.sectionBounds,
		RuleSegmentSize:   c.segmentSize,
		RuleShstrndx:      c.shstrndx,
	}
	for _, name := range Rules {
		if opts.enabled(name) {
			rules[name]()
		}
	}
	return c.findings
}

// Validate runs Check and folds any findings into a single diag error.
func Validate(f *elf64.File, opts Options) error {
	findings := Check(f, opts)
	if len(findings) == 0 {
		return nil
	}
	lines := make([]string, len(findings))
	for i, fd := range findings {
		lines[i] = fd.String()
	}
	return &diag.Error{
		Stage:  diag.StageCheck,
		Err:    fmt.Errorf("%d finding(s), first: %s", len(findings), findings[0]),
		Detail: strings.Join(lines, "\n"),
		Hint:   "the object decodes but its layout is inconsistent; rebuild it or disable the rule in the config",
	}
}

func hasSections(h *elf64.Header) bool { return h.Shoff != 0 && h.Shnum != 0 }
func hasProgs(h *elf64.Header) bool    { return h.Phoff != 0 && h.Phnum != 0 }

func (c *checker) headerSize() {
	h := &c.f.Header
	if h.Ehsize != elf64.HeaderSize {
		c.report(RuleHeaderSize, "e_ehsize is %d, want %d", h.Ehsize, elf64.HeaderSize)
	}
	if hasSections(h) && h.Shentsize != elf64.SectionHeaderSize {
		c.report(RuleHeaderSize, "e_shentsize is %d, want %d", h.Shentsize, elf64.SectionHeaderSize)
	}
	if hasProgs(h) && h.Phentsize != elf64.ProgHeaderSize {
		c.report(RuleHeaderSize, "e_phentsize is %d, want %d", h.Phentsize, elf64.ProgHeaderSize)
	}
}

func (c *checker) tableBounds() {
	h := &c.f.Header
	size := uint64(c.f.Size())
	check := func(what string, off uint64, entsize, num uint16) {
		ext := uint64(entsize) * uint64(num)
		if off > size || ext > size-off {
			c.report(RuleTableBounds, "%s table %#x+%#x ends past the file size %#x", what, off, ext, size)
		}
	}
	if hasSections(h) {
		check("section header", h.Shoff, h.Shentsize, h.Shnum)
	}
	if hasProgs(h) {
		check("program header", h.Phoff, h.Phentsize, h.Phnum)
	}
}

func (c *checker) tableDecode() {
	i := 0
	for _, err := range c.f.SectionHeaders() {
		if err != nil {
			c.report(RuleTableDecode, "section %d: %v", i, err)
		}
		i++
	}
	i = 0
	for _, err := range c.f.ProgHeaders() {
		if err != nil {
			c.report(RuleTableDecode, "program header %d: %v", i, err)
		}
		i++
	}
}

func powerOfTwo(v uint64) bool { return v&(v-1) == 0 }

func (c *checker) alignment() {
	i := 0
	for s, err := range c.f.SectionHeaders() {
		if err == nil && !powerOfTwo(s.Addralign) {
			c.report(RuleAlignment, "section %d: sh_addralign %#x is not a power of two", i, s.Addralign)
		}
		i++
	}
	i = 0
	for p, err := range c.f.ProgHeaders() {
		switch {
		case err != nil:
		case !powerOfTwo(p.Align):
			c.report(RuleAlignment, "program header %d: p_align %#x is not a power of two", i, p.Align)
		case p.Type == elf64.PT_LOAD && p.Align > 1 && p.Off%p.Align != p.Vaddr%p.Align:
			c.report(RuleAlignment, "program header %d: p_offset %#x and p_vaddr %#x disagree modulo %#x",
				i, p.Off, p.Vaddr, p.Align)
		}
		i++
	}
}

func (c *checker) sectionBounds() {
	i := 0
	for s, err := range c.f.SectionHeaders() {
		if err == nil && s.Type != elf64.SHT_NOBITS {
			if _, err := c.f.Bytes(s.Offset, s.Size); err != nil {
				c.report(RuleSectionBounds, "section %d: %v", i, err)
			}
		}
		i++
	}
}

func (c *checker) segmentSize() {
	i := 0
	for p, err := range c.f.ProgHeaders() {
		if err == nil && p.Filesz > p.Memsz {
			c.report(RuleSegmentSize, "program header %d: p_filesz %#x exceeds p_memsz %#x", i, p.Filesz, p.Memsz)
		}
		i++
	}
}

func (c *checker) shstrndx() {
	h := &c.f.Header
	if hasSections(h) && h.Shstrndx >= h.Shnum {
		c.report(RuleShstrndx, "e_shstrndx %d is not below e_shnum %d", h.Shstrndx, h.Shnum)
	}
}
