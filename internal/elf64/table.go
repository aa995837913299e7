package elf64

import "iter"

// table describes one header table: where it starts, its declared shape and
// how to decode one record.
type table[T any] struct {
	off     uint64 // absolute file offset, 0 if absent
	entsize uint16
	num     uint16
	recsize uint64
	sizeMsg string
	decode  func([]byte) (T, error)
}

func (f *File) sectionTable() table[SectionHeader] {
	h := &f.Header
	return table[SectionHeader]{
		off:     h.Shoff,
		entsize: h.Shentsize,
		num:     h.Shnum,
		recsize: SectionHeaderSize,
		sizeMsg: "the size of a section header is invalid",
		decode:  decodeSectionHeader,
	}
}

func (f *File) progTable() table[ProgHeader] {
	h := &f.Header
	return table[ProgHeader]{
		off:     h.Phoff,
		entsize: h.Phentsize,
		num:     h.Phnum,
		recsize: ProgHeaderSize,
		sizeMsg: "the size of a program header is invalid",
		decode:  decodeProgHeader,
	}
}

// window returns the trailing bytes starting at the table, and false when
// the table cannot hold a single record: it starts inside the fixed header
// or its declared stride is smaller than a record.
func (t table[T]) window(data []byte) ([]byte, bool) {
	if t.off < HeaderSize || uint64(t.entsize) < t.recsize {
		return nil, false
	}
	rel := t.off - HeaderSize
	if rel > uint64(len(data)) {
		return nil, true
	}
	return data[rel:], true
}

// at decodes the record at position pos of win, or reports the table's size
// error if win is too short to hold it.
func (t table[T]) at(win []byte, pos uint64) (T, error) {
	if uint64(len(win)) < t.recsize || pos > uint64(len(win))-t.recsize {
		var zero T
		return zero, structuralMsg(t.sizeMsg)
	}
	return t.decode(win[pos : pos+t.recsize])
}

// entries yields up to num records, one per pull. A size error is yielded
// once and ends the sequence. A field error is yielded in place of its
// record and the cursor still moves past it.
func (t table[T]) entries(data []byte) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if t.off == 0 || t.num == 0 {
			return
		}
		win, ok := t.window(data)
		if !ok {
			var zero T
			yield(zero, structuralMsg(t.sizeMsg))
			return
		}
		stride := uint64(t.entsize)
		end := stride * uint64(t.num)
		for pos := uint64(0); pos < end; pos += stride {
			v, err := t.at(win, pos)
			if err != nil && IsKind(err, KindStructural) {
				yield(v, err)
				return
			}
			if !yield(v, err) {
				return
			}
		}
	}
}

// index decodes record i directly.
func (t table[T]) index(data []byte, i int, what string) (T, error) {
	var zero T
	if t.off == 0 || i < 0 || i >= int(t.num) {
		return zero, structural("%s index %d out of range", what, i)
	}
	win, ok := t.window(data)
	if !ok {
		return zero, structuralMsg(t.sizeMsg)
	}
	return t.at(win, uint64(i)*uint64(t.entsize))
}

// collect pulls every record, stopping at the first error.
func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SectionHeaders returns a lazy sequence over the section header table. It
// is empty when Shoff is zero, whatever Shnum says.
func (f *File) SectionHeaders() iter.Seq2[SectionHeader, error] {
	return f.sectionTable().entries(f.data)
}

// ProgHeaders returns a lazy sequence over the program header table. It is
// empty when Phoff is zero, whatever Phnum says.
func (f *File) ProgHeaders() iter.Seq2[ProgHeader, error] {
	return f.progTable().entries(f.data)
}

// Sections decodes the whole section header table.
func (f *File) Sections() ([]SectionHeader, error) {
	return collect(f.SectionHeaders())
}

// Progs decodes the whole program header table.
func (f *File) Progs() ([]ProgHeader, error) {
	return collect(f.ProgHeaders())
}

// Section decodes entry i of the section header table.
func (f *File) Section(i int) (SectionHeader, error) {
	return f.sectionTable().index(f.data, i, "section")
}

// Prog decodes entry i of the program header table.
func (f *File) Prog(i int) (ProgHeader, error) {
	return f.progTable().index(f.data, i, "program header")
}
