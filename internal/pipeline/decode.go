package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"

	"github.com/kyleseneker/tinyld/internal/diag"
	"github.com/kyleseneker/tinyld/internal/elf64"
	"github.com/kyleseneker/tinyld/internal/elfcheck"
)

// decodeInputs decodes every input, in parallel when cfg.Jobs allows it.
func decodeInputs(ctx context.Context, cfg Config) ([]Object, error) {
	if cfg.Jobs > 1 && len(cfg.Inputs) > 1 {
		return decodeInputsParallel(ctx, cfg)
	}
	return decodeInputsSeq(ctx, cfg)
}

// decodeInputsSeq stops at the first failing input.
func decodeInputsSeq(ctx context.Context, cfg Config) ([]Object, error) {
	objs := make([]Object, 0, len(cfg.Inputs))
	for _, input := range cfg.Inputs {
		obj, err := decodeSingle(ctx, cfg, input)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// decodeInputsParallel decodes inputs concurrently, bounded by cfg.Jobs, and
// reports every failing input.
func decodeInputsParallel(ctx context.Context, cfg Config) ([]Object, error) {
	type indexedResult struct {
		index int
		obj   Object
		err   error
	}

	sem := make(chan struct{}, cfg.Jobs)
	results := make(chan indexedResult, len(cfg.Inputs))
	var wg sync.WaitGroup

	for i, input := range cfg.Inputs {
		wg.Add(1)
		go func(idx int, inp string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- indexedResult{index: idx, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			obj, err := decodeSingle(ctx, cfg, inp)
			results <- indexedResult{index: idx, obj: obj, err: err}
		}(i, input)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]Object, len(cfg.Inputs))
	errs := make([]error, len(cfg.Inputs))
	for r := range results {
		if r.err != nil {
			errs[r.index] = r.err
			continue
		}
		ordered[r.index] = r.obj
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return ordered, nil
}

// decodeSingle reads, decodes and checks one input.
func decodeSingle(ctx context.Context, cfg Config, input string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	level.Debug(cfg.Logger).Log("msg", "decoding", "input", input)

	f, err := readInput(cfg, input)
	if err != nil {
		return Object{}, err
	}

	obj := Object{Path: input, File: f}
	var sections, segments int
	if cfg.Strict {
		secs, err := f.Sections()
		if err != nil {
			return Object{}, &diag.Error{Stage: diag.StageSections, Input: input, Err: err,
				Detail: tableDetail("e_shoff", f.Header.Shoff, f.Header.Shentsize, f.Header.Shnum, f.Size()),
				Hint:   "the section header table is truncated or holds an unknown entry"}
		}
		progs, err := f.Progs()
		if err != nil {
			return Object{}, &diag.Error{Stage: diag.StagePrograms, Input: input, Err: err,
				Detail: tableDetail("e_phoff", f.Header.Phoff, f.Header.Phentsize, f.Header.Phnum, f.Size()),
				Hint:   "the program header table is truncated or holds an unknown entry"}
		}
		sections, segments = len(secs), len(progs)
		if err := elfcheck.Validate(f, cfg.Checks); err != nil {
			var derr *diag.Error
			if errors.As(err, &derr) {
				derr.Input = input
			}
			return Object{}, err
		}
	} else {
		sections, segments = count(f.SectionHeaders()), count(f.ProgHeaders())
		obj.Findings = elfcheck.Check(f, cfg.Checks)
	}

	level.Info(cfg.Logger).Log(
		"msg", "decoded",
		"input", input,
		"size", humanize.IBytes(uint64(f.Size())),
		"type", f.Header.Type,
		"machine", f.Header.Machine,
		"sections", sections,
		"segments", segments,
		"findings", len(obj.Findings),
	)
	return obj, nil
}

// readInput opens input and decodes its header under cfg's policy and size
// limit.
func readInput(cfg Config, input string) (*elf64.File, error) {
	fh, err := os.Open(input)
	if err != nil {
		return nil, diag.Wrap(diag.StageInput, input, err, "check that the input exists and is readable")
	}
	defer func() { _ = fh.Close() }()

	var r io.Reader = fh
	if limit := cfg.MaxInputSize; limit > 0 {
		if fi, err := fh.Stat(); err == nil && fi.Mode().IsRegular() && uint64(fi.Size()) > limit {
			return nil, tooLarge(input, uint64(fi.Size()), limit)
		}
		n := int64(math.MaxInt64)
		if limit < math.MaxInt64 {
			n = int64(limit) + 1
		}
		r = io.LimitReader(fh, n)
	}

	f, err := cfg.Policy.NewFile(r)
	if err != nil {
		return nil, &diag.Error{Stage: diag.StageDecode, Input: input, Err: err, Hint: decodeHint(err)}
	}
	if limit := cfg.MaxInputSize; limit > 0 && uint64(f.Size()) > limit {
		return nil, tooLarge(input, uint64(f.Size()), limit)
	}
	return f, nil
}

func tooLarge(input string, size, limit uint64) error {
	return &diag.Error{Stage: diag.StageInput, Input: input,
		Err:  fmt.Errorf("input is larger than %s (read %s)", humanize.IBytes(limit), humanize.IBytes(size)),
		Hint: "raise max_input_size or --max-size"}
}

// tableDetail describes a header table's layout against the input size.
func tableDetail(field string, off uint64, entsize, num uint16, size int64) string {
	return fmt.Sprintf("%s=%#x entsize=%d num=%d\ninput size=%d (%s)",
		field, off, entsize, num, size, humanize.IBytes(uint64(size)))
}

func decodeHint(err error) string {
	switch {
	case elf64.IsKind(err, elf64.KindUnsupported):
		return "only little-endian ELF64 objects with an accepted OS ABI are supported; see policy.os_abi"
	case elf64.IsKind(err, elf64.KindIO):
		return "the input could not be read to the end"
	default:
		return "the input is truncated or is not an ELF object"
	}
}

func count[T any](seq iter.Seq2[T, error]) int {
	n := 0
	for _, err := range seq {
		if err == nil {
			n++
		}
	}
	return n
}
