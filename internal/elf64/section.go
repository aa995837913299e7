package elf64

// SectionType is sh_type.
type SectionType uint32

const (
	SHT_NULL           SectionType = 0
	SHT_PROGBITS       SectionType = 1
	SHT_SYMTAB         SectionType = 2
	SHT_STRTAB         SectionType = 3
	SHT_RELA           SectionType = 4
	SHT_HASH           SectionType = 5
	SHT_DYNAMIC        SectionType = 6
	SHT_NOTE           SectionType = 7
	SHT_NOBITS         SectionType = 8
	SHT_REL            SectionType = 9
	SHT_SHLIB          SectionType = 10
	SHT_DYNSYM         SectionType = 11
	SHT_INIT_ARRAY     SectionType = 14
	SHT_FINI_ARRAY     SectionType = 15
	SHT_PREINIT_ARRAY  SectionType = 16
	SHT_GROUP          SectionType = 17
	SHT_SYMTAB_SHNDX   SectionType = 18
	SHT_RELR           SectionType = 19
	SHT_LOOS           SectionType = 0x60000000
	SHT_LLVM_ADDRSIG   SectionType = 0x6fff4c03
	SHT_GNU_ATTRIBUTES SectionType = 0x6ffffff5
	SHT_GNU_HASH       SectionType = 0x6ffffff6
	SHT_GNU_LIBLIST    SectionType = 0x6ffffff7
	SHT_GNU_VERDEF     SectionType = 0x6ffffffd
	SHT_GNU_VERNEED    SectionType = 0x6ffffffe
	SHT_GNU_VERSYM     SectionType = 0x6fffffff
	SHT_HIOS           SectionType = 0x6fffffff
	SHT_LOPROC         SectionType = 0x70000000
	SHT_HIPROC         SectionType = 0x7fffffff
	SHT_LOUSER         SectionType = 0x80000000
	SHT_HIUSER         SectionType = 0xffffffff
)

var shtStrings = []intName{
	{0, "SHT_NULL"},
	{1, "SHT_PROGBITS"},
	{2, "SHT_SYMTAB"},
	{3, "SHT_STRTAB"},
	{4, "SHT_RELA"},
	{5, "SHT_HASH"},
	{6, "SHT_DYNAMIC"},
	{7, "SHT_NOTE"},
	{8, "SHT_NOBITS"},
	{9, "SHT_REL"},
	{10, "SHT_SHLIB"},
	{11, "SHT_DYNSYM"},
	{14, "SHT_INIT_ARRAY"},
	{15, "SHT_FINI_ARRAY"},
	{16, "SHT_PREINIT_ARRAY"},
	{17, "SHT_GROUP"},
	{18, "SHT_SYMTAB_SHNDX"},
	{19, "SHT_RELR"},
	{0x6fff4c03, "SHT_LLVM_ADDRSIG"},
	{0x6ffffff5, "SHT_GNU_ATTRIBUTES"},
	{0x6ffffff6, "SHT_GNU_HASH"},
	{0x6ffffff7, "SHT_GNU_LIBLIST"},
	{0x6ffffffd, "SHT_GNU_VERDEF"},
	{0x6ffffffe, "SHT_GNU_VERNEED"},
	{0x6fffffff, "SHT_GNU_VERSYM"},
}

var shtRanges = []valueRange{
	{0x60000000, 0x6fffffff, "SHT_LOOS"},
	{0x70000000, 0x7fffffff, "SHT_LOPROC"},
	{0x80000000, 0xffffffff, "SHT_LOUSER"},
}

func (t SectionType) String() string { return stringName(uint64(t), shtStrings, shtRanges) }

func decodeSectionType(v uint32) (SectionType, error) {
	if !known(uint64(v), shtStrings, shtRanges) {
		return 0, unsupported("invalid section type")
	}
	return SectionType(v), nil
}

// SectionFlag is the sh_flags bit set.
type SectionFlag uint64

const (
	SHF_WRITE            SectionFlag = 0x1
	SHF_ALLOC            SectionFlag = 0x2
	SHF_EXECINSTR        SectionFlag = 0x4
	SHF_MERGE            SectionFlag = 0x10
	SHF_STRINGS          SectionFlag = 0x20
	SHF_INFO_LINK        SectionFlag = 0x40
	SHF_LINK_ORDER       SectionFlag = 0x80
	SHF_OS_NONCONFORMING SectionFlag = 0x100
	SHF_GROUP            SectionFlag = 0x200
	SHF_TLS              SectionFlag = 0x400
	SHF_COMPRESSED       SectionFlag = 0x800
	SHF_MASKOS           SectionFlag = 0x0ff00000
	SHF_MASKPROC         SectionFlag = 0xf0000000
)

var shfStrings = []intName{
	{0x1, "SHF_WRITE"},
	{0x2, "SHF_ALLOC"},
	{0x4, "SHF_EXECINSTR"},
	{0x10, "SHF_MERGE"},
	{0x20, "SHF_STRINGS"},
	{0x40, "SHF_INFO_LINK"},
	{0x80, "SHF_LINK_ORDER"},
	{0x100, "SHF_OS_NONCONFORMING"},
	{0x200, "SHF_GROUP"},
	{0x400, "SHF_TLS"},
	{0x800, "SHF_COMPRESSED"},
}

// shfValid is every bit a section may carry: the named flags plus the
// OS- and processor-specific masks.
const shfValid = SHF_WRITE | SHF_ALLOC | SHF_EXECINSTR | SHF_MERGE | SHF_STRINGS |
	SHF_INFO_LINK | SHF_LINK_ORDER | SHF_OS_NONCONFORMING | SHF_GROUP | SHF_TLS |
	SHF_COMPRESSED | SHF_MASKOS | SHF_MASKPROC

func (f SectionFlag) String() string { return flagName(uint64(f), shfStrings) }

// Has reports whether every bit of flag is set in f.
func (f SectionFlag) Has(flag SectionFlag) bool { return f&flag == flag }

func decodeSectionFlag(v uint64) (SectionFlag, error) {
	if v&^uint64(shfValid) != 0 {
		return 0, malformedFlags("a section has invalid flags: %#x", v)
	}
	return SectionFlag(v), nil
}

// SectionHeader is one entry of the section header table. Name is an offset
// into the section name string table and is not resolved here.
type SectionHeader struct {
	Name      uint32
	Type      SectionType
	Flags     SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// decodeSectionHeader decodes one record; b holds at least
// SectionHeaderSize bytes.
func decodeSectionHeader(b []byte) (SectionHeader, error) {
	var sh SectionHeader
	var err error
	sh.Name = u32(&b)
	if sh.Type, err = decodeSectionType(u32(&b)); err != nil {
		return SectionHeader{}, err
	}
	if sh.Flags, err = decodeSectionFlag(u64(&b)); err != nil {
		return SectionHeader{}, err
	}
	sh.Addr = u64(&b)
	sh.Offset = u64(&b)
	sh.Size = u64(&b)
	sh.Link = u32(&b)
	sh.Info = u32(&b)
	sh.Addralign = u64(&b)
	sh.Entsize = u64(&b)
	return sh, nil
}
