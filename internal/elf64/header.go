package elf64

// Type is e_type, the object file type.
type Type uint16

const (
	ET_NONE Type = 0
	ET_REL  Type = 1
	ET_EXEC Type = 2
	ET_DYN  Type = 3
	ET_CORE Type = 4
)

var typeStrings = []intName{
	{0, "ET_NONE"},
	{1, "ET_REL"},
	{2, "ET_EXEC"},
	{3, "ET_DYN"},
	{4, "ET_CORE"},
}

func (t Type) String() string { return stringName(uint64(t), typeStrings, nil) }

func decodeType(v uint16) (Type, error) {
	if !known(uint64(v), typeStrings, nil) {
		return 0, unsupported("invalid object file type")
	}
	return Type(v), nil
}

// Machine is e_machine, the target architecture.
type Machine uint16

const (
	EM_NONE         Machine = 0
	EM_M32          Machine = 1
	EM_SPARC        Machine = 2
	EM_386          Machine = 3
	EM_68K          Machine = 4
	EM_88K          Machine = 5
	EM_IAMCU        Machine = 6
	EM_860          Machine = 7
	EM_MIPS         Machine = 8
	EM_S370         Machine = 9
	EM_MIPS_RS3_LE  Machine = 10
	EM_PARISC       Machine = 15
	EM_VPP500       Machine = 17
	EM_SPARC32PLUS  Machine = 18
	EM_960          Machine = 19
	EM_PPC          Machine = 20
	EM_PPC64        Machine = 21
	EM_S390         Machine = 22
	EM_SPU          Machine = 23
	EM_V800         Machine = 36
	EM_FR20         Machine = 37
	EM_RH32         Machine = 38
	EM_RCE          Machine = 39
	EM_ARM          Machine = 40
	EM_ALPHA        Machine = 41
	EM_SH           Machine = 42
	EM_SPARCV9      Machine = 43
	EM_TRICORE      Machine = 44
	EM_ARC          Machine = 45
	EM_H8_300       Machine = 46
	EM_H8_300H      Machine = 47
	EM_H8S          Machine = 48
	EM_H8_500       Machine = 49
	EM_IA_64        Machine = 50
	EM_MIPS_X       Machine = 51
	EM_COLDFIRE     Machine = 52
	EM_68HC12       Machine = 53
	EM_MMA          Machine = 54
	EM_PCP          Machine = 55
	EM_NCPU         Machine = 56
	EM_NDR1         Machine = 57
	EM_STARCORE     Machine = 58
	EM_ME16         Machine = 59
	EM_ST100        Machine = 60
	EM_TINYJ        Machine = 61
	EM_X86_64       Machine = 62
	EM_VAX          Machine = 75
	EM_AVR          Machine = 83
	EM_V850         Machine = 87
	EM_M32R         Machine = 88
	EM_OPENRISC     Machine = 92
	EM_XTENSA       Machine = 94
	EM_MSP430       Machine = 105
	EM_BLACKFIN     Machine = 106
	EM_ALTERA_NIOS2 Machine = 113
	EM_TI_C6000     Machine = 140
	EM_AARCH64      Machine = 183
	EM_TILEPRO      Machine = 188
	EM_MICROBLAZE   Machine = 189
	EM_TILEGX       Machine = 191
	EM_Z80          Machine = 220
	EM_AMDGPU       Machine = 224
	EM_RISCV        Machine = 243
	EM_BPF          Machine = 247
	EM_CSKY         Machine = 252
	EM_LOONGARCH    Machine = 258
)

var machineStrings = []intName{
	{0, "EM_NONE"},
	{1, "EM_M32"},
	{2, "EM_SPARC"},
	{3, "EM_386"},
	{4, "EM_68K"},
	{5, "EM_88K"},
	{6, "EM_IAMCU"},
	{7, "EM_860"},
	{8, "EM_MIPS"},
	{9, "EM_S370"},
	{10, "EM_MIPS_RS3_LE"},
	{15, "EM_PARISC"},
	{17, "EM_VPP500"},
	{18, "EM_SPARC32PLUS"},
	{19, "EM_960"},
	{20, "EM_PPC"},
	{21, "EM_PPC64"},
	{22, "EM_S390"},
	{23, "EM_SPU"},
	{36, "EM_V800"},
	{37, "EM_FR20"},
	{38, "EM_RH32"},
	{39, "EM_RCE"},
	{40, "EM_ARM"},
	{41, "EM_ALPHA"},
	{42, "EM_SH"},
	{43, "EM_SPARCV9"},
	{44, "EM_TRICORE"},
	{45, "EM_ARC"},
	{46, "EM_H8_300"},
	{47, "EM_H8_300H"},
	{48, "EM_H8S"},
	{49, "EM_H8_500"},
	{50, "EM_IA_64"},
	{51, "EM_MIPS_X"},
	{52, "EM_COLDFIRE"},
	{53, "EM_68HC12"},
	{54, "EM_MMA"},
	{55, "EM_PCP"},
	{56, "EM_NCPU"},
	{57, "EM_NDR1"},
	{58, "EM_STARCORE"},
	{59, "EM_ME16"},
	{60, "EM_ST100"},
	{61, "EM_TINYJ"},
	{62, "EM_X86_64"},
	{75, "EM_VAX"},
	{83, "EM_AVR"},
	{87, "EM_V850"},
	{88, "EM_M32R"},
	{92, "EM_OPENRISC"},
	{94, "EM_XTENSA"},
	{105, "EM_MSP430"},
	{106, "EM_BLACKFIN"},
	{113, "EM_ALTERA_NIOS2"},
	{140, "EM_TI_C6000"},
	{183, "EM_AARCH64"},
	{188, "EM_TILEPRO"},
	{189, "EM_MICROBLAZE"},
	{191, "EM_TILEGX"},
	{220, "EM_Z80"},
	{224, "EM_AMDGPU"},
	{243, "EM_RISCV"},
	{247, "EM_BPF"},
	{252, "EM_CSKY"},
	{258, "EM_LOONGARCH"},
}

func (m Machine) String() string { return stringName(uint64(m), machineStrings, nil) }

func decodeMachine(v uint16) (Machine, error) {
	if !known(uint64(v), machineStrings, nil) {
		return 0, unsupported("invalid machine")
	}
	return Machine(v), nil
}

// Header is the ELF64 file header.
//
// A zero Phoff or Shoff means the corresponding table is absent; the entry
// counts are only meaningful when the offset is set.
type Header struct {
	Ident     Ident
	Type      Type
	Machine   Machine
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// decodeHeader decodes the fields following the identification block, in
// file order, stopping at the first invalid one.
func decodeHeader(id Ident, rest [HeaderSize - IdentSize]byte) (Header, error) {
	b := rest[:]
	h := Header{Ident: id}
	var err error
	if h.Type, err = decodeType(u16(&b)); err != nil {
		return Header{}, err
	}
	if h.Machine, err = decodeMachine(u16(&b)); err != nil {
		return Header{}, err
	}
	h.Version = u32(&b)
	if _, err = decodeVersion(h.Version); err != nil {
		return Header{}, err
	}
	h.Entry = u64(&b)
	h.Phoff = u64(&b)
	h.Shoff = u64(&b)
	h.Flags = u32(&b)
	h.Ehsize = u16(&b)
	h.Phentsize = u16(&b)
	h.Phnum = u16(&b)
	h.Shentsize = u16(&b)
	h.Shnum = u16(&b)
	h.Shstrndx = u16(&b)
	return h, nil
}
