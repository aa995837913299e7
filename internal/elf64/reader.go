package elf64

import "encoding/binary"

// The readers below consume a fixed-width little-endian integer from the
// front of *b and advance it. Callers guarantee len(*b) covers the width.

func u8(b *[]byte) uint8 {
	v := (*b)[0]
	*b = (*b)[1:]
	return v
}

func u16(b *[]byte) uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func u32(b *[]byte) uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func u64(b *[]byte) uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

func i8(b *[]byte) int8   { return int8(u8(b)) }
func i16(b *[]byte) int16 { return int16(u16(b)) }
func i32(b *[]byte) int32 { return int32(u32(b)) }
func i64(b *[]byte) int64 { return int64(u64(b)) }
