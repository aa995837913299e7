package elfcheck

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyleseneker/tinyld/internal/diag"
	"github.com/kyleseneker/tinyld/internal/elf64"
	"github.com/kyleseneker/tinyld/internal/elf64/elftest"
)

func decode(t *testing.T, img []byte) *elf64.File {
	t.Helper()
	f, err := elf64.NewFile(bytes.NewReader(img))
	require.NoError(t, err)
	return f
}

func rules(findings []Finding) []string {
	var out []string
	for _, f := range findings {
		out = append(out, f.Rule)
	}
	return out
}

func put16(img []byte, off int, v uint16) []byte {
	binary.LittleEndian.PutUint16(img[off:], v)
	return img
}

func TestCheckClean(t *testing.T) {
	for name, img := range map[string][]byte{
		"object":     elftest.Object(),
		"executable": elftest.Executable(),
		"empty":      elftest.New(62).Bytes(),
	} {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, Check(decode(t, img), Options{}))
			require.NoError(t, Validate(decode(t, img), Options{}))
		})
	}
}

func TestCheckRules(t *testing.T) {
	tests := []struct {
		name    string
		img     func() []byte
		want    []string
		wantMsg string
	}{
		{
			name:    "ehsize",
			img:     func() []byte { return put16(elftest.Object(), 52, 80) },
			want:    []string{RuleHeaderSize},
			wantMsg: "e_ehsize is 80, want 64",
		},
		{
			name:    "shnum past end of file",
			img:     func() []byte { return put16(elftest.Object(), 60, 6) },
			want:    []string{RuleTableBounds, RuleTableDecode},
			wantMsg: "section header table",
		},
		{
			name:    "shentsize too large",
			img:     func() []byte { return put16(elftest.Object(), 58, 72) },
			want:    []string{RuleHeaderSize, RuleTableBounds, RuleTableDecode},
			wantMsg: "e_shentsize is 72, want 64",
		},
		{
			name: "section alignment",
			img: func() []byte {
				b := elftest.New(62)
				b.Section(elftest.Section{})
				b.Section(elftest.Section{Type: 1, Addralign: 3})
				return b.Bytes()
			},
			want:    []string{RuleAlignment},
			wantMsg: "section 1: sh_addralign 0x3 is not a power of two",
		},
		{
			name: "load congruence",
			img: func() []byte {
				b := elftest.New(62).Type(2)
				b.Prog(elftest.Prog{Type: 1, Off: 0x10, Vaddr: 0x400000, Align: 0x1000})
				return b.Bytes()
			},
			want:    []string{RuleAlignment},
			wantMsg: "disagree modulo 0x1000",
		},
		{
			name: "section past end of file",
			img: func() []byte {
				b := elftest.New(62)
				b.Section(elftest.Section{})
				b.Section(elftest.Section{Type: 1, Offset: 64, Size: 0x10000})
				b.Section(elftest.Section{Type: 8, Offset: 64, Size: 0x10000})
				return b.Bytes()
			},
			want:    []string{RuleSectionBounds},
			wantMsg: "section 1: range 0x40+0x10000 is outside the file",
		},
		{
			name: "filesz exceeds memsz",
			img: func() []byte {
				b := elftest.New(62).Type(2)
				b.Prog(elftest.Prog{Type: 1, Filesz: 0x200, Memsz: 0x100})
				return b.Bytes()
			},
			want:    []string{RuleSegmentSize},
			wantMsg: "p_filesz 0x200 exceeds p_memsz 0x100",
		},
		{
			name:    "shstrndx",
			img:     func() []byte { return put16(elftest.Object(), 62, 9) },
			want:    []string{RuleShstrndx},
			wantMsg: "e_shstrndx 9 is not below e_shnum 5",
		},
		{
			name: "bad entry",
			img: func() []byte {
				img := elftest.Object()
				shoff := binary.LittleEndian.Uint64(img[40:48])
				binary.LittleEndian.PutUint32(img[shoff+2*64+4:], 0x7fff)
				return img
			},
			want:    []string{RuleTableDecode},
			wantMsg: "section 2: invalid section type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := Check(decode(t, tt.img()), Options{})
			got := rules(findings)
			for _, r := range tt.want {
				require.Contains(t, got, r)
			}
			var msgs []string
			for _, f := range findings {
				msgs = append(msgs, f.String())
			}
			require.Contains(t, joinLines(msgs), tt.wantMsg)
		})
	}
}

func joinLines(s []string) string {
	var b bytes.Buffer
	for _, l := range s {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestCheckDisable(t *testing.T) {
	img := put16(elftest.Object(), 62, 9)
	f := decode(t, img)
	require.NotEmpty(t, Check(f, Options{}))
	require.Empty(t, Check(f, Options{Disable: []string{RuleShstrndx}}))
}

func TestValidate(t *testing.T) {
	f := decode(t, put16(put16(elftest.Object(), 62, 9), 52, 80))
	err := Validate(f, Options{})
	require.Error(t, err)
	require.True(t, diag.IsStage(err, diag.StageCheck))
	require.Contains(t, err.Error(), "2 finding(s), first: header-size")
	require.Contains(t, err.Error(), "shstrndx: e_shstrndx 9")
}

func TestKnownRule(t *testing.T) {
	for _, r := range Rules {
		require.True(t, KnownRule(r), r)
	}
	require.False(t, KnownRule("symbols"))
}
