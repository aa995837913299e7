// Package pipeline reads a set of ELF64 inputs, decodes and lints each one,
// and produces the output file a link step writes into.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/kyleseneker/tinyld/internal/diag"
	"github.com/kyleseneker/tinyld/internal/elf64"
	"github.com/kyleseneker/tinyld/internal/elfcheck"
)

// Config holds all settings for a pipeline run.
type Config struct {
	Inputs []string
	// Output is created (or truncated) when non-empty.
	Output string
	// Jobs bounds how many inputs are decoded at once.
	Jobs   int
	Policy elf64.Policy
	// MaxInputSize rejects inputs larger than this many bytes; 0 disables
	// the limit.
	MaxInputSize uint64
	Checks       elfcheck.Options
	// Strict turns table decode errors and lint findings into errors
	// instead of recording them on the Object.
	Strict bool
	Logger log.Logger
}

// Object is one decoded input.
type Object struct {
	Path     string
	File     *elf64.File
	Findings []elfcheck.Finding
}

// Run decodes every input, checks it, and creates the output file. Objects
// are returned in input order.
func Run(ctx context.Context, cfg Config) ([]Object, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	objs, err := decodeInputs(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Output != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := createOutput(cfg.Output); err != nil {
			return nil, err
		}
		level.Info(cfg.Logger).Log("msg", "created output", "path", cfg.Output, "inputs", len(objs))
	}
	return objs, nil
}

// validateConfig applies defaults and checks required fields.
func validateConfig(cfg *Config) error {
	if len(cfg.Inputs) == 0 {
		return &diag.Error{Stage: diag.StageInput, Err: fmt.Errorf("no inputs provided"),
			Hint: "provide at least one ELF object"}
	}
	for _, in := range cfg.Inputs {
		if strings.TrimSpace(in) == "" {
			return &diag.Error{Stage: diag.StageInput, Err: fmt.Errorf("empty input path"),
				Hint: "remove the empty argument"}
		}
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.Policy.OSABIs == nil {
		cfg.Policy = elf64.DefaultPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	return nil
}
