package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/kyleseneker/tinyld/internal/diag"
)

// outputMode is applied to the output with fchmod so the umask does not
// narrow it.
const outputMode = 0o777

// createOutput creates or truncates path and marks it executable.
func createOutput(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &diag.Error{Stage: diag.StageOutput, Input: path, Err: err,
			Hint: "failed to create output directory"}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, outputMode)
	if err != nil {
		return &diag.Error{Stage: diag.StageOutput, Input: path, Err: err,
			Hint: "check that the output location is writable"}
	}
	if err := unix.Fchmod(int(f.Fd()), outputMode); err != nil {
		_ = f.Close()
		return &diag.Error{Stage: diag.StageOutput, Input: path, Err: errors.Wrap(err, "fchmod"),
			Hint: "the output was created but its mode could not be set"}
	}
	if err := f.Close(); err != nil {
		return &diag.Error{Stage: diag.StageOutput, Input: path, Err: errors.Wrap(err, "close")}
	}
	return nil
}
