package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/kyleseneker/tinyld/internal/elf64"
	"github.com/kyleseneker/tinyld/internal/pipeline"
)

// openSingle parses the flags of a single-file command and decodes that
// file. When ok is false the command should return code.
func openSingle(ctx context.Context, args []string, usage, desc string, stderr io.Writer) (f *elf64.File, code int, ok bool) {
	var common commonFlags
	fs := newFlagSet(stderr, usage, desc)
	registerCommonFlags(fs, &common, false)
	if code, ok := parseFlags(fs, args); !ok {
		return nil, code, false
	}
	if fs.NArg() != 1 {
		return nil, usageErrorf(fs, stderr, "expected exactly one input file, got %d", fs.NArg()), false
	}

	cfg, err := common.pipelineConfig(fs.Args(), stderr)
	if err != nil {
		return nil, cliErrorf(stderr, "%v", err), false
	}
	objs, err := pipeline.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return nil, 1, false
	}
	return objs[0].File, 0, true
}

// runHeader prints the decoded ELF file header.
func runHeader(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, code, ok := openSingle(ctx, args, "tinyld header [flags] <file>", "Print the ELF file header.", stderr)
	if !ok {
		return code
	}
	writeHeader(stdout, f)
	return 0
}

func writeHeader(w io.Writer, f *elf64.File) {
	h := &f.Header
	id := &h.Ident
	row := func(name, format string, args ...any) {
		fmt.Fprintf(w, "  %-36s"+format+"\n", append([]any{name + ":"}, args...)...)
	}
	fmt.Fprintln(w, "ELF Header:")
	fmt.Fprintf(w, "  Magic:   % x\n", id.Magic[:])
	row("Class", "%s", id.Class)
	row("Data", "%s", id.Data)
	row("Ident version", "%s", id.Version)
	row("OS/ABI", "%s", id.OSABI)
	row("ABI Version", "%d", id.ABIVersion)
	row("Type", "%s", h.Type)
	row("Machine", "%s", h.Machine)
	row("Version", "%#x", h.Version)
	row("Entry point address", "%#x", h.Entry)
	row("Start of program headers", "%d (bytes into file)", h.Phoff)
	row("Start of section headers", "%d (bytes into file)", h.Shoff)
	row("Flags", "%#x", h.Flags)
	row("Size of this header", "%d (bytes)", h.Ehsize)
	row("Size of program headers", "%d (bytes)", h.Phentsize)
	row("Number of program headers", "%d", h.Phnum)
	row("Size of section headers", "%d (bytes)", h.Shentsize)
	row("Number of section headers", "%d", h.Shnum)
	row("Section header string table index", "%d", h.Shstrndx)
	row("File size", "%s", humanize.IBytes(uint64(f.Size())))
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// runSections prints the section header table. A bad entry ends the table
// and is reported.
func runSections(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, code, ok := openSingle(ctx, args, "tinyld sections [flags] <file>", "List the section header table.", stderr)
	if !ok {
		return code
	}

	table := newTable(stdout, []string{"NR", "TYPE", "FLAGS", "ADDR", "OFFSET", "SIZE", "LINK", "INFO", "ALIGN", "ENTSIZE"})
	i := 0
	var entryErr error
	for s, err := range f.SectionHeaders() {
		if err != nil {
			entryErr = fmt.Errorf("section %d: %w", i, err)
			break
		}
		table.Append([]string{
			fmt.Sprint(i),
			s.Type.String(),
			strings.ReplaceAll(s.Flags.String(), "SHF_", ""),
			fmt.Sprintf("%#x", s.Addr),
			fmt.Sprintf("%#x", s.Offset),
			humanize.IBytes(s.Size),
			fmt.Sprint(s.Link),
			fmt.Sprint(s.Info),
			fmt.Sprint(s.Addralign),
			fmt.Sprint(s.Entsize),
		})
		i++
	}
	table.Render()
	if i == 0 && entryErr == nil {
		fmt.Fprintln(stdout, "There are no sections in this file.")
	}
	if entryErr != nil {
		return cliErrorf(stderr, "%v", entryErr)
	}
	return 0
}

// runSegments prints the program header table. A bad entry ends the table
// and is reported.
func runSegments(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, code, ok := openSingle(ctx, args, "tinyld segments [flags] <file>", "List the program header table.", stderr)
	if !ok {
		return code
	}

	table := newTable(stdout, []string{"NR", "TYPE", "FLAGS", "OFFSET", "VADDR", "PADDR", "FILESZ", "MEMSZ", "ALIGN"})
	i := 0
	var entryErr error
	for p, err := range f.ProgHeaders() {
		if err != nil {
			entryErr = fmt.Errorf("program header %d: %w", i, err)
			break
		}
		table.Append([]string{
			fmt.Sprint(i),
			p.Type.String(),
			strings.ReplaceAll(p.Flags.String(), "PF_", ""),
			fmt.Sprintf("%#x", p.Off),
			fmt.Sprintf("%#x", p.Vaddr),
			fmt.Sprintf("%#x", p.Paddr),
			humanize.IBytes(p.Filesz),
			humanize.IBytes(p.Memsz),
			fmt.Sprintf("%#x", p.Align),
		})
		i++
	}
	table.Render()
	if i == 0 && entryErr == nil {
		fmt.Fprintln(stdout, "There are no program headers in this file.")
	}
	if entryErr != nil {
		return cliErrorf(stderr, "%v", entryErr)
	}
	return 0
}
