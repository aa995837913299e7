package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/kyleseneker/tinyld/internal/pipeline"
)

// runCheck decodes and lints every input and prints the findings.
func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var common commonFlags
	fs := newFlagSet(stderr, "tinyld check [flags] <file>...", "Decode ELF64 objects and report layout problems.")
	registerCommonFlags(fs, &common, true)
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
	objs, err := pipeline.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	code := 0
	for _, obj := range objs {
		if len(obj.Findings) == 0 {
			fmt.Fprintf(stdout, "%s: ok\n", obj.Path)
			continue
		}
		code = 1
		for _, fd := range obj.Findings {
			fmt.Fprintf(stdout, "%s: %s\n", obj.Path, fd)
		}
	}
	return code
}
