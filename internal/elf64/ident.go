package elf64

import (
	"strconv"
	"strings"
)

// Sizes of the fixed-size ELF64 records.
const (
	IdentSize         = 16
	HeaderSize        = 64
	SectionHeaderSize = 64
	ProgHeaderSize    = 56
)

// Magic is the signature every ELF file starts with.
var Magic = [4]byte{0x7f, 'E', 'L', 'F'}

// Class is EI_CLASS, the capacity of the file.
type Class uint8

const (
	ELFCLASSNONE Class = 0
	ELFCLASS32   Class = 1
	ELFCLASS64   Class = 2
)

var classStrings = []intName{
	{0, "ELFCLASSNONE"},
	{1, "ELFCLASS32"},
	{2, "ELFCLASS64"},
}

func (c Class) String() string { return stringName(uint64(c), classStrings, nil) }

func decodeClass(v uint8) (Class, error) {
	if !known(uint64(v), classStrings, nil) {
		return 0, unsupported("invalid ELF class")
	}
	return Class(v), nil
}

// Data is EI_DATA, the encoding of multi-byte fields.
type Data uint8

const (
	ELFDATANONE Data = 0
	ELFDATA2LSB Data = 1
	ELFDATA2MSB Data = 2
)

var dataStrings = []intName{
	{0, "ELFDATANONE"},
	{1, "ELFDATA2LSB"},
	{2, "ELFDATA2MSB"},
}

func (d Data) String() string { return stringName(uint64(d), dataStrings, nil) }

func decodeData(v uint8) (Data, error) {
	if !known(uint64(v), dataStrings, nil) {
		return 0, unsupported("invalid data encoding")
	}
	return Data(v), nil
}

// Version is the ELF format version, found in both EI_VERSION and e_version.
type Version uint8

const (
	EV_NONE    Version = 0
	EV_CURRENT Version = 1
)

var versionStrings = []intName{
	{0, "EV_NONE"},
	{1, "EV_CURRENT"},
}

func (v Version) String() string { return stringName(uint64(v), versionStrings, nil) }

// decodeVersion accepts only EV_CURRENT. EV_NONE is a recognized value and
// is reported separately from values that mean nothing at all.
func decodeVersion(v uint32) (Version, error) {
	switch {
	case v == uint32(EV_CURRENT):
		return EV_CURRENT, nil
	case v == uint32(EV_NONE):
		return 0, unsupported("unsupported ELF version")
	default:
		return 0, unsupported("invalid ELF version")
	}
}

// OSABI is EI_OSABI, the operating system and ABI the object targets.
type OSABI uint8

const (
	ELFOSABI_NONE       OSABI = 0
	ELFOSABI_HPUX       OSABI = 1
	ELFOSABI_NETBSD     OSABI = 2
	ELFOSABI_LINUX      OSABI = 3
	ELFOSABI_HURD       OSABI = 4
	ELFOSABI_SOLARIS    OSABI = 6
	ELFOSABI_AIX        OSABI = 7
	ELFOSABI_IRIX       OSABI = 8
	ELFOSABI_FREEBSD    OSABI = 9
	ELFOSABI_TRU64      OSABI = 10
	ELFOSABI_MODESTO    OSABI = 11
	ELFOSABI_OPENBSD    OSABI = 12
	ELFOSABI_OPENVMS    OSABI = 13
	ELFOSABI_NSK        OSABI = 14
	ELFOSABI_AROS       OSABI = 15
	ELFOSABI_FENIXOS    OSABI = 16
	ELFOSABI_CLOUDABI   OSABI = 17
	ELFOSABI_ARM_AEABI  OSABI = 64
	ELFOSABI_ARM        OSABI = 97
	ELFOSABI_STANDALONE OSABI = 255
)

var osabiStrings = []intName{
	{0, "ELFOSABI_NONE"},
	{1, "ELFOSABI_HPUX"},
	{2, "ELFOSABI_NETBSD"},
	{3, "ELFOSABI_LINUX"},
	{4, "ELFOSABI_HURD"},
	{6, "ELFOSABI_SOLARIS"},
	{7, "ELFOSABI_AIX"},
	{8, "ELFOSABI_IRIX"},
	{9, "ELFOSABI_FREEBSD"},
	{10, "ELFOSABI_TRU64"},
	{11, "ELFOSABI_MODESTO"},
	{12, "ELFOSABI_OPENBSD"},
	{13, "ELFOSABI_OPENVMS"},
	{14, "ELFOSABI_NSK"},
	{15, "ELFOSABI_AROS"},
	{16, "ELFOSABI_FENIXOS"},
	{17, "ELFOSABI_CLOUDABI"},
	{64, "ELFOSABI_ARM_AEABI"},
	{97, "ELFOSABI_ARM"},
	{255, "ELFOSABI_STANDALONE"},
}

func (o OSABI) String() string { return stringName(uint64(o), osabiStrings, nil) }

func decodeOSABI(v uint8) (OSABI, error) {
	if !known(uint64(v), osabiStrings, nil) {
		return 0, unsupported("invalid OS ABI")
	}
	return OSABI(v), nil
}

// ParseOSABI maps a short name ("sysv", "linux", ...), a constant name
// ("ELFOSABI_LINUX") or a number to its value.
func ParseOSABI(s string) (OSABI, bool) {
	if s == "sysv" || s == "none" {
		return ELFOSABI_NONE, true
	}
	if v, err := strconv.ParseUint(s, 0, 8); err == nil {
		o, err := decodeOSABI(uint8(v))
		return o, err == nil
	}
	for _, n := range osabiStrings {
		if n.s == s || n.s == "ELFOSABI_"+strings.ToUpper(s) {
			return OSABI(n.i), true
		}
	}
	return 0, false
}

// Ident is the e_ident block at the start of every ELF file.
type Ident struct {
	Magic      [4]byte
	Class      Class
	Data       Data
	Version    Version
	OSABI      OSABI
	ABIVersion uint8
	Pad        [7]byte
}

// decodeIdent validates and materializes the identification block. The
// ABI version and padding are taken as-is.
func decodeIdent(b [IdentSize]byte) (Ident, error) {
	var id Ident
	copy(id.Magic[:], b[0:4])
	if id.Magic != Magic {
		return Ident{}, structural("magic is not for ELF")
	}
	var err error
	if id.Class, err = decodeClass(b[4]); err != nil {
		return Ident{}, err
	}
	if id.Data, err = decodeData(b[5]); err != nil {
		return Ident{}, err
	}
	if id.Version, err = decodeVersion(uint32(b[6])); err != nil {
		return Ident{}, err
	}
	if id.OSABI, err = decodeOSABI(b[7]); err != nil {
		return Ident{}, err
	}
	id.ABIVersion = b[8]
	copy(id.Pad[:], b[9:16])
	return id, nil
}
