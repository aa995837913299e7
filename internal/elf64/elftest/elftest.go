// Package elftest builds little-endian ELF64 images byte by byte for tests.
package elftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Section is a section header as written to the image.
type Section struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// Prog is a program header as written to the image.
type Prog struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Builder lays out an image as: header, appended data, program header
// table, section name table, section header table.
type Builder struct {
	hdr      []byte
	strtab   []byte
	data     []byte
	sections []Section
	progs    []Prog
}

// New returns a builder for a relocatable System V object for machine.
func New(machine uint16) *Builder {
	hdr := make([]byte, 64)
	copy(hdr[0:4], []byte{0x7f, 'E', 'L', 'F'})
	hdr[4] = 2 // ELFCLASS64
	hdr[5] = 1 // ELFDATA2LSB
	hdr[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(hdr[16:18], 1)
	binary.LittleEndian.PutUint16(hdr[18:20], machine)
	binary.LittleEndian.PutUint32(hdr[20:24], 1)
	binary.LittleEndian.PutUint16(hdr[52:54], 64)
	binary.LittleEndian.PutUint16(hdr[54:56], 56)
	binary.LittleEndian.PutUint16(hdr[58:60], 64)
	return &Builder{hdr: hdr}
}

// Ident overwrites byte i of e_ident.
func (b *Builder) Ident(i int, v byte) *Builder {
	b.hdr[i] = v
	return b
}

// Type sets e_type.
func (b *Builder) Type(t uint16) *Builder {
	binary.LittleEndian.PutUint16(b.hdr[16:18], t)
	return b
}

// Entry sets e_entry.
func (b *Builder) Entry(addr uint64) *Builder {
	binary.LittleEndian.PutUint64(b.hdr[24:32], addr)
	return b
}

// Name adds name to the section name table and returns its offset. The
// table is emitted as the last section when at least one name was added.
func (b *Builder) Name(name string) uint32 {
	if len(b.strtab) == 0 {
		b.strtab = []byte{0}
	}
	off := len(b.strtab)
	b.strtab = append(b.strtab, name...)
	b.strtab = append(b.strtab, 0)
	return uint32(off)
}

// Data appends p to the data area and returns its absolute file offset.
func (b *Builder) Data(p []byte) uint64 {
	off := uint64(len(b.hdr) + len(b.data))
	b.data = append(b.data, p...)
	for len(b.data)%8 != 0 {
		b.data = append(b.data, 0)
	}
	return off
}

// Section appends a section header and returns its index.
func (b *Builder) Section(s Section) int {
	b.sections = append(b.sections, s)
	return len(b.sections) - 1
}

// Prog appends a program header.
func (b *Builder) Prog(p Prog) *Builder {
	b.progs = append(b.progs, p)
	return b
}

// Bytes renders the image.
func (b *Builder) Bytes() []byte {
	hdr := append([]byte(nil), b.hdr...)
	out := append(hdr, b.data...)

	if len(b.progs) > 0 {
		binary.LittleEndian.PutUint64(out[32:40], uint64(len(out)))
		binary.LittleEndian.PutUint16(out[56:58], uint16(len(b.progs)))
		for _, p := range b.progs {
			out = appendProg(out, p)
		}
	}

	sections := b.sections
	if len(b.strtab) > 0 {
		strtab := append([]byte(nil), b.strtab...)
		nameOff := uint32(len(strtab))
		strtab = append(strtab, ".shstrtab\x00"...)
		strtabOff := uint64(len(out))
		out = append(out, strtab...)
		for len(out)%8 != 0 {
			out = append(out, 0)
		}
		sections = append(append([]Section(nil), sections...), Section{
			Name:      nameOff,
			Type:      3, // SHT_STRTAB
			Offset:    strtabOff,
			Size:      uint64(len(strtab)),
			Addralign: 1,
		})
		binary.LittleEndian.PutUint16(out[62:64], uint16(len(sections)-1))
	}

	if len(sections) > 0 {
		binary.LittleEndian.PutUint64(out[40:48], uint64(len(out)))
		binary.LittleEndian.PutUint16(out[60:62], uint16(len(sections)))
		for _, s := range sections {
			out = appendSection(out, s)
		}
	}
	return out
}

func appendSection(out []byte, s Section) []byte {
	sh := make([]byte, 64)
	binary.LittleEndian.PutUint32(sh[0:4], s.Name)
	binary.LittleEndian.PutUint32(sh[4:8], s.Type)
	binary.LittleEndian.PutUint64(sh[8:16], s.Flags)
	binary.LittleEndian.PutUint64(sh[16:24], s.Addr)
	binary.LittleEndian.PutUint64(sh[24:32], s.Offset)
	binary.LittleEndian.PutUint64(sh[32:40], s.Size)
	binary.LittleEndian.PutUint32(sh[40:44], s.Link)
	binary.LittleEndian.PutUint32(sh[44:48], s.Info)
	binary.LittleEndian.PutUint64(sh[48:56], s.Addralign)
	binary.LittleEndian.PutUint64(sh[56:64], s.Entsize)
	return append(out, sh...)
}

func appendProg(out []byte, p Prog) []byte {
	ph := make([]byte, 56)
	binary.LittleEndian.PutUint32(ph[0:4], p.Type)
	binary.LittleEndian.PutUint32(ph[4:8], p.Flags)
	binary.LittleEndian.PutUint64(ph[8:16], p.Off)
	binary.LittleEndian.PutUint64(ph[16:24], p.Vaddr)
	binary.LittleEndian.PutUint64(ph[24:32], p.Paddr)
	binary.LittleEndian.PutUint64(ph[32:40], p.Filesz)
	binary.LittleEndian.PutUint64(ph[40:48], p.Memsz)
	binary.LittleEndian.PutUint64(ph[48:56], p.Align)
	return append(out, ph...)
}

// Object returns a small valid relocatable x86-64 object with a null
// section, an executable .text, a writable .data, a .bss and the section
// name table.
func Object() []byte {
	b := New(62)
	text := b.Name(".text")
	data := b.Name(".data")
	bss := b.Name(".bss")
	code := b.Data([]byte{0x31, 0xc0, 0xc3})
	vars := b.Data([]byte{1, 2, 3, 4})
	b.Section(Section{})
	b.Section(Section{Name: text, Type: 1, Flags: 0x6, Offset: code, Size: 3, Addralign: 16})
	b.Section(Section{Name: data, Type: 1, Flags: 0x3, Offset: vars, Size: 4, Addralign: 4})
	b.Section(Section{Name: bss, Type: 8, Flags: 0x3, Offset: vars + 8, Size: 64, Addralign: 32})
	return b.Bytes()
}

// Executable returns a small valid executable with two PT_LOAD segments and
// a PT_GNU_STACK entry, and no section header table.
func Executable() []byte {
	b := New(62).Type(2).Entry(0x401000)
	code := b.Data(make([]byte, 16))
	b.Prog(Prog{Type: 1, Flags: 0x5, Off: 0, Vaddr: 0x400000, Paddr: 0x400000, Filesz: code + 16, Memsz: code + 16, Align: 0x1000})
	b.Prog(Prog{Type: 1, Flags: 0x6, Off: code, Vaddr: 0x600000 + code, Paddr: 0x600000 + code, Filesz: 16, Memsz: 0x100, Align: 0x1000})
	b.Prog(Prog{Type: 0x6474e551, Flags: 0x6})
	return b.Bytes()
}

// Write stores img in a temporary directory and returns its path.
func Write(tb testing.TB, name string, img []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}
