package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/kyleseneker/tinyld/internal/elf64/elftest"
)

func TestRunLink(t *testing.T) {
	obj := elftest.Write(t, "a.o", elftest.Object())
	exe := elftest.Write(t, "b", elftest.Executable())

	badIdx := elftest.Object()
	binary.LittleEndian.PutUint16(badIdx[62:], 9)
	bad := elftest.Write(t, "bad.o", badIdx)

	tests := []struct {
		name     string
		args     func(out string) []string
		wantCode int
		wantOut  string
		wantErr  string
		wantFile bool
	}{
		{
			name:     "single input",
			args:     func(out string) []string { return []string{"-o", out, obj} },
			wantOut:  "wrote ",
			wantFile: true,
		},
		{
			name:     "parallel inputs",
			args:     func(out string) []string { return []string{"-o", out, "-j", "2", obj, exe} },
			wantOut:  "wrote ",
			wantFile: true,
		},
		{
			name:     "finding fails the link",
			args:     func(out string) []string { return []string{"-o", out, obj, bad} },
			wantCode: 1,
			wantErr:  `stage "elf-check" failed`,
		},
		{
			name: "disabled rule",
			args: func(out string) []string {
				cfg := writeConfig(t, "checks:\n  disable: [shstrndx]\n")
				return []string{"-o", out, "--config", cfg, bad}
			},
			wantOut:  "wrote ",
			wantFile: true,
		},
		{
			name: "bad config",
			args: func(out string) []string {
				cfg := writeConfig(t, "checks:\n  disable: [nope]\n")
				return []string{"-o", out, "--config", cfg, obj}
			},
			wantCode: 1,
			wantErr:  `unknown rule "nope"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), "a.out")
			var out, errOut bytes.Buffer
			code := Run(context.Background(), append([]string{"link"}, tt.args(output)...), &out, &errOut)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d, stderr=%s", tt.wantCode, code, errOut.String())
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Fatalf("expected %q in stdout, got: %s", tt.wantOut, out.String())
			}
			if tt.wantErr != "" && !strings.Contains(errOut.String(), tt.wantErr) {
				t.Fatalf("expected %q in stderr, got: %s", tt.wantErr, errOut.String())
			}
			fi, err := os.Stat(output)
			if tt.wantFile {
				if err != nil {
					t.Fatalf("output not created: %v", err)
				}
				if fi.Mode().Perm() != 0o777 {
					t.Fatalf("expected mode 0777, got %v", fi.Mode().Perm())
				}
			} else if err == nil {
				t.Fatal("output should not be created on failure")
			}
		})
	}
}

func TestStartProfiling(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T) string
		wantErr    string
		wantOutput string
	}{
		{
			name:       "success",
			setup:      func(t *testing.T) string { t.Helper(); return filepath.Join(t.TempDir(), "test") },
			wantOutput: "link profile: memory ",
		},
		{
			name:    "bad path",
			setup:   func(t *testing.T) string { t.Helper(); return "/does/not/exist/prof" },
			wantErr: "creating CPU profile",
		},
		{
			name: "CPU already running",
			setup: func(t *testing.T) string {
				t.Helper()
				tmp := t.TempDir()
				f, _ := os.Create(filepath.Join(tmp, "block.prof"))
				pprof.StartCPUProfile(f)
				t.Cleanup(func() { pprof.StopCPUProfile(); f.Close() })
				return filepath.Join(tmp, "second")
			},
			wantErr: "starting CPU profile",
		},
		{
			name: "heap profile create error",
			setup: func(t *testing.T) string {
				t.Helper()
				base := filepath.Join(t.TempDir(), "test")
				if err := os.Mkdir(base+".mem.prof", 0o755); err != nil {
					t.Fatal(err)
				}
				return base
			},
			wantOutput: "warning: link profile: memory:",
		},
		{
			name: "heap profile write error",
			setup: func(t *testing.T) string {
				t.Helper()
				orig := writeHeapProfile
				t.Cleanup(func() { writeHeapProfile = orig })
				writeHeapProfile = func(w io.Writer) error {
					return fmt.Errorf("injected write error")
				}
				return filepath.Join(t.TempDir(), "test")
			},
			wantOutput: "warning: link profile: memory: injected write error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basePath := tt.setup(t)
			var w bytes.Buffer

			cleanup, err := startProfiling(basePath, &w)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected %q in error, got: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			cleanup()

			if tt.wantOutput != "" && !strings.Contains(w.String(), tt.wantOutput) {
				t.Fatalf("expected %q in output, got: %s", tt.wantOutput, w.String())
			}
		})
	}
}

func TestRunLinkWithProfile(t *testing.T) {
	tmp := t.TempDir()
	profBase := filepath.Join(tmp, "prof")
	obj := elftest.Write(t, "a.o", elftest.Object())

	var out, errOut bytes.Buffer
	code := Run(context.Background(), []string{
		"link", "-o", filepath.Join(tmp, "a.out"), "--profile", profBase, obj,
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d, stderr=%s", code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "link profile: cpu "+profBase+".cpu.prof") {
		t.Fatalf("expected profile path on stderr, got: %s", errOut.String())
	}
	for _, suffix := range []string{".cpu.prof", ".mem.prof"} {
		if _, err := os.Stat(profBase + suffix); err != nil {
			t.Fatalf("%s not created: %v", suffix, err)
		}
	}
}
