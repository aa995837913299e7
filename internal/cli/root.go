// Package cli implements the tinyld command-line interface.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/kyleseneker/tinyld/internal/config"
	"github.com/kyleseneker/tinyld/internal/diag"
	"github.com/kyleseneker/tinyld/internal/elf64"
	"github.com/kyleseneker/tinyld/internal/elfcheck"
	"github.com/kyleseneker/tinyld/internal/pipeline"
)

// Version is set at build time via ldflags:
//
//	go build -ldflags "-X github.com/kyleseneker/tinyld/internal/cli.Version=v0.1.0"
var Version = "(dev)"

// multiStringFlag is a flag that can be set multiple times.
type multiStringFlag []string

// String returns the multiStringFlag as a comma-separated string.
func (m *multiStringFlag) String() string {
	return strings.Join(*m, ",")
}

// Set appends the value to the multiStringFlag.
func (m *multiStringFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("value cannot be empty")
	}
	*m = append(*m, value)
	return nil
}

// Run is the top-level entrypoint.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "header":
		return runHeader(ctx, args[1:], stdout, stderr)
	case "sections":
		return runSections(ctx, args[1:], stdout, stderr)
	case "segments":
		return runSegments(ctx, args[1:], stdout, stderr)
	case "check":
		return runCheck(ctx, args[1:], stdout, stderr)
	case "link":
		return runLink(ctx, args[1:], stdout, stderr)
	case "version", "--version", "-version":
		return runVersion(stdout)
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

// printUsage prints the usage information for the CLI.
func printUsage(w io.Writer) {
	fmt.Fprintf(w, `tinyld %s - Inspect and validate ELF64 objects

Usage:
  tinyld header [flags] <file>        Print the ELF file header
  tinyld sections [flags] <file>      List the section header table
  tinyld segments [flags] <file>      List the program header table
  tinyld check [flags] <file>...      Decode and lint objects
  tinyld link -o <out> [flags] <file>...
                                      Validate inputs and create the output file
  tinyld version                      Print version information
  tinyld help                         Show this message

Run 'tinyld <command> --help' for details on a specific command.
`, Version)
}

// newFlagSet creates a FlagSet with consistent usage formatting.
func newFlagSet(w io.Writer, usage, desc string) *flag.FlagSet {
	fs := flag.NewFlagSet("tinyld", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: %s\n\n%s\n", usage, desc)
		var hasFlags bool
		fs.VisitAll(func(f *flag.Flag) {
			if f.Usage != "" {
				hasFlags = true
			}
		})
		if !hasFlags {
			return
		}
		fmt.Fprintln(w, "\nFlags:")
		fs.VisitAll(func(f *flag.Flag) {
			if f.Usage == "" {
				return
			}
			fmt.Fprintf(w, "  -%s", f.Name)
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
				fmt.Fprintf(w, " (default %s)", f.DefValue)
			}
			fmt.Fprintf(w, "\n    \t%s\n", f.Usage)
		})
	}
	return fs
}

// parseFlags parses args and returns (exitCode, ok).
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// runVersion prints the version information for the CLI.
func runVersion(stdout io.Writer) int {
	fmt.Fprintf(stdout, "tinyld %s\n", Version)
	return 0
}

// commonFlags are the flags every object-reading command accepts.
type commonFlags struct {
	configPath string
	verbose    bool
	osABIs     multiStringFlag
	jobs       int
	maxSize    string
}

// registerCommonFlags binds the shared flags. Jobs is only registered for
// commands that take several inputs.
func registerCommonFlags(fs *flag.FlagSet, c *commonFlags, withJobs bool) {
	fs.StringVar(&c.configPath, "config", "", "Path to a YAML or JSON config file.")
	fs.BoolVar(&c.verbose, "verbose", false, "Enable debug logging.")
	fs.BoolVar(&c.verbose, "v", false, "Enable debug logging (shorthand).")
	fs.Var(&c.osABIs, "os-abi", "Accepted OS ABI (sysv, linux, freebsd, ... or a number). Repeat for multiple. Overrides the config.")
	fs.StringVar(&c.maxSize, "max-size", "", "Reject inputs larger than this size (e.g. 64MiB). Overrides the config.")
	if withJobs {
		fs.IntVar(&c.jobs, "jobs", 0, "Number of inputs decoded in parallel. Overrides the config.")
		fs.IntVar(&c.jobs, "j", 0, "Number of inputs decoded in parallel (shorthand).")
	}
}

// pipelineConfig merges the config file and flag overrides into a pipeline
// configuration.
func (c *commonFlags) pipelineConfig(inputs []string, stderr io.Writer) (pipeline.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return pipeline.Config{}, &diag.Error{Stage: diag.StageConfig, Err: err,
				Hint: "fix the config file or drop --config"}
		}
		cfg = loaded
	}

	if len(c.osABIs) > 0 {
		cfg.OSABIs = nil
		for _, s := range c.osABIs {
			o, ok := elf64.ParseOSABI(s)
			if !ok {
				return pipeline.Config{}, fmt.Errorf("unknown --os-abi %q", s)
			}
			cfg.OSABIs = append(cfg.OSABIs, o)
		}
	}
	if c.jobs < 0 {
		return pipeline.Config{}, fmt.Errorf("--jobs must not be negative, got %d", c.jobs)
	}
	if c.jobs > 0 {
		cfg.Jobs = c.jobs
	}
	if c.maxSize != "" {
		n, err := humanize.ParseBytes(c.maxSize)
		if err != nil {
			return pipeline.Config{}, fmt.Errorf("invalid --max-size %q: %w", c.maxSize, err)
		}
		cfg.MaxInputSize = n
	}

	return pipeline.Config{
		Inputs:       inputs,
		Jobs:         cfg.Jobs,
		Policy:       cfg.Policy(),
		MaxInputSize: cfg.MaxInputSize,
		Checks:       elfcheck.Options{Disable: cfg.DisabledChecks},
		Logger:       newLogger(stderr, c.verbose),
	}, nil
}

// newLogger returns a logfmt logger on w. Only warnings and errors pass
// unless verbose is set.
func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowWarn())
}

// cliErrorf prints a formatted error message and returns exit code 1.
func cliErrorf(w io.Writer, format string, args ...any) int {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
	return 1
}

// usageErrorf prints a formatted error message, shows the flagset usage, and returns exit code 2.
func usageErrorf(fs *flag.FlagSet, w io.Writer, format string, args ...any) int {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
	fs.Usage()
	return 2
}
