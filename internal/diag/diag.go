// Package diag provides structured, stage-attributed error types for
// tinyld. Every failure names the stage that produced it and, where one
// exists, an actionable hint.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies which step of reading an object produced an error.
type Stage string

const (
	StageConfig   Stage = "config"
	StageInput    Stage = "read-input"
	StageDecode   Stage = "decode"
	StageSections Stage = "section-table"
	StagePrograms Stage = "program-table"
	StageCheck    Stage = "elf-check"
	StageOutput   Stage = "output"
)

// Error is a structured error carrying stage context, the input it concerns
// and a user-facing hint for remediation.
type Error struct {
	Stage  Stage
	Input  string
	Detail string
	Hint   string
	Err    error
}

// Error formats the diagnostic into a multi-section string.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %q failed", e.Stage)
	if e.Input != "" {
		fmt.Fprintf(&b, ": %s", e.Input)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Detail != "" {
		b.WriteString("\n--- details ---\n")
		b.WriteString(trimLong(e.Detail, 20))
	}
	if e.Hint != "" {
		b.WriteString("\n--- hint ---\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attributes err to stage and input. It returns nil when err is nil.
func Wrap(stage Stage, input string, err error, hint string) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Input: input, Err: err, Hint: hint}
}

// IsStage reports whether err is a diag.Error from the given stage.
func IsStage(err error, stage Stage) bool {
	var derr *Error
	if !errors.As(err, &derr) {
		return false
	}
	return derr.Stage == stage
}

func trimLong(s string, maxLines int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:maxLines], "\n") + "\n...(truncated)"
}
