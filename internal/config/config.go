// Package config loads tinyld's optional configuration file.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kyleseneker/tinyld/internal/elf64"
	"github.com/kyleseneker/tinyld/internal/elfcheck"
)

// Config is the validated configuration.
type Config struct {
	// OSABIs is the set of accepted EI_OSABI values.
	OSABIs []elf64.OSABI
	// Jobs bounds how many inputs are decoded at once.
	Jobs int
	// MaxInputSize caps the bytes read per input; 0 means no limit.
	MaxInputSize uint64
	// DisabledChecks names elfcheck rules to skip.
	DisabledChecks []string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		OSABIs: append([]elf64.OSABI(nil), elf64.DefaultPolicy.OSABIs...),
		Jobs:   1,
	}
}

// Policy returns the decoder acceptance policy described by c.
func (c *Config) Policy() elf64.Policy {
	return elf64.Policy{OSABIs: c.OSABIs}
}

// file mirrors the on-disk layout.
type file struct {
	Policy struct {
		OSABI []string `yaml:"os_abi"`
	} `yaml:"policy"`
	Jobs         *int   `yaml:"jobs"`
	MaxInputSize string `yaml:"max_input_size"`
	Checks       struct {
		Disable []string `yaml:"disable"`
	} `yaml:"checks"`
}

// Load reads, parses and validates a configuration file. JSON files are
// accepted since they are valid YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}

	var raw file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "parsing config %q", path)
	}

	cfg, err := raw.validate()
	if err != nil {
		return nil, errors.Wrapf(err, "config %q", path)
	}
	return cfg, nil
}

func (f *file) validate() (*Config, error) {
	cfg := Default()

	if len(f.Policy.OSABI) > 0 {
		cfg.OSABIs = cfg.OSABIs[:0]
		for i, s := range f.Policy.OSABI {
			o, ok := elf64.ParseOSABI(strings.TrimSpace(s))
			if !ok {
				return nil, errors.Errorf("policy.os_abi[%d]: unknown OS ABI %q", i, s)
			}
			cfg.OSABIs = append(cfg.OSABIs, o)
		}
	}

	if f.Jobs != nil {
		if *f.Jobs < 1 {
			return nil, errors.Errorf("jobs: must be at least 1, got %d", *f.Jobs)
		}
		cfg.Jobs = *f.Jobs
	}

	if s := strings.TrimSpace(f.MaxInputSize); s != "" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return nil, errors.Wrap(err, "max_input_size")
		}
		cfg.MaxInputSize = n
	}

	for i, name := range f.Checks.Disable {
		if !elfcheck.KnownRule(name) {
			return nil, errors.Errorf("checks.disable[%d]: unknown rule %q", i, name)
		}
		cfg.DisabledChecks = append(cfg.DisabledChecks, name)
	}

	return cfg, nil
}
