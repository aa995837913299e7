package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/kyleseneker/tinyld/internal/pipeline"
)

// runLink validates every input strictly and creates the output file.
func runLink(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	var output, profilePath string

	fs := newFlagSet(stderr, "tinyld link -o <out> [flags] <file>...", "Validate ELF64 inputs and create the output file.")
	fs.StringVar(&output, "output", "a.out", "Output file path.")
	fs.StringVar(&output, "o", "a.out", "Output file path (shorthand).")
	registerCommonFlags(fs, &common, true)
	fs.StringVar(&profilePath, "profile", "", "")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		return usageErrorf(fs, stderr, "at least one input file is required")
	}

	cfg, err := common.pipelineConfig(fs.Args(), stderr)
	if err != nil {
		return cliErrorf(stderr, "%v", err)
	}
	cfg.Output = output
	cfg.Strict = true

	if profilePath != "" {
		cleanup, err := startProfiling(profilePath, stderr)
		if err != nil {
			fmt.Fprintf(stderr, "warning: profiling failed to start: %v\n", err)
		} else {
			defer cleanup()
		}
	}

	if _, err := pipeline.Run(ctx, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", cfg.Output)
	return 0
}

var writeHeapProfile = pprof.WriteHeapProfile

// startProfiling records a CPU profile of the link at <base>.cpu.prof. The
// returned func stops it and writes a heap profile to <base>.mem.prof; heap
// failures are reported on w and do not fail the link.
func startProfiling(base string, w io.Writer) (func(), error) {
	cpuPath, memPath := base+".cpu.prof", base+".mem.prof"
	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, fmt.Errorf("creating CPU profile %s: %w", cpuPath, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("starting CPU profile %s: %w", cpuPath, err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
		fmt.Fprintf(w, "link profile: cpu %s\n", cpuPath)
		if err := writeMemProfile(memPath); err != nil {
			fmt.Fprintf(w, "warning: link profile: memory: %v\n", err)
			return
		}
		fmt.Fprintf(w, "link profile: memory %s\n", memPath)
	}, nil
}

func writeMemProfile(path string) error {
	mf, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := writeHeapProfile(mf); err != nil {
		_ = mf.Close()
		return err
	}
	return mf.Close()
}
