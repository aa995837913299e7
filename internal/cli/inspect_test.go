package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/kyleseneker/tinyld/internal/elf64/elftest"
)

func badSectionType() []byte {
	img := elftest.Object()
	shoff := binary.LittleEndian.Uint64(img[40:48])
	binary.LittleEndian.PutUint32(img[shoff+64+4:], 0x7fff)
	return img
}

func TestInspectCommands(t *testing.T) {
	obj := elftest.Write(t, "a.o", elftest.Object())
	exe := elftest.Write(t, "b", elftest.Executable())
	bad := elftest.Write(t, "bad.o", badSectionType())
	linux := elftest.Write(t, "linux.o", elftest.New(62).Ident(7, 3).Bytes())

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  []string
		wantErr  string
	}{
		{
			name:    "header",
			args:    []string{"header", obj},
			wantOut: []string{"ELF Header:", "7f 45 4c 46", "ELFCLASS64", "ET_REL", "EM_X86_64", "Number of section headers:", "Section header string table index:  4"},
		},
		{
			name:    "header of executable",
			args:    []string{"header", exe},
			wantOut: []string{"ET_EXEC", "0x401000", "Number of program headers:"},
		},
		{
			name:     "header rejects os abi",
			args:     []string{"header", linux},
			wantCode: 1,
			wantErr:  "unsupported format",
		},
		{
			name:    "header accepts os abi from flag",
			args:    []string{"header", "--os-abi", "linux", linux},
			wantOut: []string{"ELFOSABI_LINUX"},
		},
		{
			name:    "sections",
			args:    []string{"sections", obj},
			wantOut: []string{"TYPE", "SHT_PROGBITS", "ALLOC+EXECINSTR", "WRITE+ALLOC", "SHT_NOBITS", "SHT_STRTAB"},
		},
		{
			name:    "sections of executable",
			args:    []string{"sections", exe},
			wantOut: []string{"There are no sections in this file."},
		},
		{
			name:     "sections with bad entry",
			args:     []string{"sections", bad},
			wantCode: 1,
			wantOut:  []string{"SHT_NULL"},
			wantErr:  "section 1: invalid section type",
		},
		{
			name:    "segments",
			args:    []string{"segments", exe},
			wantOut: []string{"PT_LOAD", "PT_GNU_STACK", "0x400000", "0x1000"},
		},
		{
			name:    "segments of object",
			args:    []string{"segments", obj},
			wantOut: []string{"There are no program headers in this file."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := Run(context.Background(), tt.args, &out, &errOut)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d, stderr=%s", tt.wantCode, code, errOut.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected %q in stdout, got:\n%s", want, out.String())
				}
			}
			if tt.wantErr != "" && !strings.Contains(errOut.String(), tt.wantErr) {
				t.Fatalf("expected %q in stderr, got: %s", tt.wantErr, errOut.String())
			}
		})
	}
}

func TestRunCheck(t *testing.T) {
	obj := elftest.Write(t, "a.o", elftest.Object())
	exe := elftest.Write(t, "b", elftest.Executable())

	badIdx := elftest.Object()
	binary.LittleEndian.PutUint16(badIdx[62:], 9)
	bad := elftest.Write(t, "bad.o", badIdx)
	notELF := elftest.Write(t, "junk", bytes.Repeat([]byte{0xaa}, 80))

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"clean", []string{"check", obj, exe}, 0, obj + ": ok", ""},
		{"parallel", []string{"check", "-j", "4", obj, exe, obj}, 0, exe + ": ok", ""},
		{"findings", []string{"check", obj, bad}, 1, bad + ": shstrndx: e_shstrndx 9 is not below e_shnum 5", ""},
		{"disabled by config", []string{"check", "--config", writeConfig(t, "checks:\n  disable: [shstrndx]\n"), bad}, 0, bad + ": ok", ""},
		{"decode error", []string{"check", obj, notELF}, 1, "", "magic is not for ELF"},
		{"size limit", []string{"check", "--max-size", "64B", obj}, 1, "", "input is larger than 64 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			code := Run(context.Background(), tt.args, &out, &errOut)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d, stderr=%s", tt.wantCode, code, errOut.String())
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Fatalf("expected %q in stdout, got: %s", tt.wantOut, out.String())
			}
			if tt.wantErr != "" && !strings.Contains(errOut.String(), tt.wantErr) {
				t.Fatalf("expected %q in stderr, got: %s", tt.wantErr, errOut.String())
			}
		})
	}
}
