// Package elf64 decodes and validates the fixed header, section header table
// and program header table of little-endian 64-bit ELF object files.
//
// A File is built once from a byte source and is immutable afterwards. Its
// tables are decoded lazily, one entry per pull, straight out of the bytes
// that follow the fixed header; nothing is cached between iterations.
package elf64

import (
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
)

// Policy selects which identification blocks a File accepts. The decoder
// only understands ELFCLASS64 with ELFDATA2LSB, so those are fixed; the set
// of OS/ABI values is configurable.
type Policy struct {
	OSABIs []OSABI
}

// DefaultPolicy accepts System V objects only.
var DefaultPolicy = Policy{OSABIs: []OSABI{ELFOSABI_NONE}}

// Check returns an error unless id is accepted by p.
func (p Policy) Check(id Ident) error {
	if id.Class != ELFCLASS64 || id.Data != ELFDATA2LSB || !slices.Contains(p.OSABIs, id.OSABI) {
		return unsupported("unsupported format")
	}
	return nil
}

// File is a decoded ELF64 object: its header plus every byte that follows
// the fixed header, in file order.
type File struct {
	Header Header

	// data starts at file offset HeaderSize.
	data []byte
}

// NewFile reads an object from r using DefaultPolicy.
func NewFile(r io.Reader) (*File, error) {
	return DefaultPolicy.NewFile(r)
}

// Open reads the named file using DefaultPolicy.
func Open(name string) (*File, error) {
	return DefaultPolicy.Open(name)
}

// Open reads the named file using p.
func (p Policy) Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()
	return p.NewFile(f)
}

// NewFile reads the identification block, applies p, reads the remaining
// header fields and then everything left in r. It returns either a complete
// File or an error; r is consumed to the end on success.
func (p Policy) NewFile(r io.Reader) (*File, error) {
	var ident [IdentSize]byte
	if n, err := io.ReadFull(r, ident[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, structural("ident contains %d bytes", n)
		}
		return nil, ioFailure("reading ident", err)
	}
	id, err := decodeIdent(ident)
	if err != nil {
		return nil, err
	}
	if err := p.Check(id); err != nil {
		return nil, err
	}

	var rest [HeaderSize - IdentSize]byte
	if _, err := io.ReadFull(r, rest[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, structural("invalid ELF header")
		}
		return nil, ioFailure("reading header", err)
	}
	hdr, err := decodeHeader(id, rest)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ioFailure("reading object data", err)
	}
	return &File{Header: hdr, data: data}, nil
}

// Size is the number of bytes the object was decoded from.
func (f *File) Size() int64 {
	return HeaderSize + int64(len(f.data))
}

// Data returns the bytes following the fixed header. The slice is shared
// with f and must not be modified.
func (f *File) Data() []byte {
	return f.data
}

// Bytes returns the size bytes at absolute file offset off, without
// copying. Ranges that start inside the fixed header are rejected unless
// empty.
func (f *File) Bytes(off, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if off < HeaderSize {
		return nil, structural("range %#x+%#x overlaps the ELF header", off, size)
	}
	start := off - HeaderSize
	end := start + size
	if end < start || end > uint64(len(f.data)) {
		return nil, structural("range %#x+%#x is outside the file", off, size)
	}
	return f.data[start:end:end], nil
}
