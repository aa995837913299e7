package elf64

// ProgType is p_type, the kind of segment a program header describes.
type ProgType uint32

const (
	PT_NULL         ProgType = 0
	PT_LOAD         ProgType = 1
	PT_DYNAMIC      ProgType = 2
	PT_INTERP       ProgType = 3
	PT_NOTE         ProgType = 4
	PT_SHLIB        ProgType = 5
	PT_PHDR         ProgType = 6
	PT_TLS          ProgType = 7
	PT_LOOS         ProgType = 0x60000000
	PT_GNU_EH_FRAME ProgType = 0x6474e550
	PT_GNU_STACK    ProgType = 0x6474e551
	PT_GNU_RELRO    ProgType = 0x6474e552
	PT_GNU_PROPERTY ProgType = 0x6474e553
	PT_SUNWBSS      ProgType = 0x6ffffffa
	PT_SUNWSTACK    ProgType = 0x6ffffffb
	PT_HIOS         ProgType = 0x6fffffff
	PT_LOPROC       ProgType = 0x70000000
	PT_HIPROC       ProgType = 0x7fffffff
)

var ptStrings = []intName{
	{0, "PT_NULL"},
	{1, "PT_LOAD"},
	{2, "PT_DYNAMIC"},
	{3, "PT_INTERP"},
	{4, "PT_NOTE"},
	{5, "PT_SHLIB"},
	{6, "PT_PHDR"},
	{7, "PT_TLS"},
	{0x6474e550, "PT_GNU_EH_FRAME"},
	{0x6474e551, "PT_GNU_STACK"},
	{0x6474e552, "PT_GNU_RELRO"},
	{0x6474e553, "PT_GNU_PROPERTY"},
	{0x6ffffffa, "PT_SUNWBSS"},
	{0x6ffffffb, "PT_SUNWSTACK"},
}

var ptRanges = []valueRange{
	{0x60000000, 0x6fffffff, "PT_LOOS"},
	{0x70000000, 0x7fffffff, "PT_LOPROC"},
}

func (t ProgType) String() string { return stringName(uint64(t), ptStrings, ptRanges) }

func decodeProgType(v uint32) (ProgType, error) {
	if !known(uint64(v), ptStrings, ptRanges) {
		return 0, unsupported("invalid program header type")
	}
	return ProgType(v), nil
}

// ProgFlag is the p_flags bit set.
type ProgFlag uint32

const (
	PF_X        ProgFlag = 0x1
	PF_W        ProgFlag = 0x2
	PF_R        ProgFlag = 0x4
	PF_MASKOS   ProgFlag = 0x0ff00000
	PF_MASKPROC ProgFlag = 0xf0000000
)

var pfStrings = []intName{
	{0x1, "PF_X"},
	{0x2, "PF_W"},
	{0x4, "PF_R"},
}

const pfValid = PF_X | PF_W | PF_R | PF_MASKOS | PF_MASKPROC

func (f ProgFlag) String() string { return flagName(uint64(f), pfStrings) }

// Has reports whether every bit of flag is set in f.
func (f ProgFlag) Has(flag ProgFlag) bool { return f&flag == flag }

func decodeProgFlag(v uint32) (ProgFlag, error) {
	if v&^uint32(pfValid) != 0 {
		return 0, malformedFlags("a program header has invalid flags: %#x", v)
	}
	return ProgFlag(v), nil
}

// ProgHeader is one entry of the program header table.
type ProgHeader struct {
	Type   ProgType
	Flags  ProgFlag
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// decodeProgHeader decodes one record; b holds at least ProgHeaderSize
// bytes.
func decodeProgHeader(b []byte) (ProgHeader, error) {
	var ph ProgHeader
	var err error
	if ph.Type, err = decodeProgType(u32(&b)); err != nil {
		return ProgHeader{}, err
	}
	if ph.Flags, err = decodeProgFlag(u32(&b)); err != nil {
		return ProgHeader{}, err
	}
	ph.Off = u64(&b)
	ph.Vaddr = u64(&b)
	ph.Paddr = u64(&b)
	ph.Filesz = u64(&b)
	ph.Memsz = u64(&b)
	ph.Align = u64(&b)
	return ph, nil
}
