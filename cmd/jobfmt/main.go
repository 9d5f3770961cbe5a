// Command jobfmt formats a job posting file into rich text, markdown, blocks
// or bullets without any network access.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/formatter"
	"github.com/dgallion1/jobfmt/internal/parser"
	"github.com/dgallion1/jobfmt/internal/render"
	"github.com/dgallion1/jobfmt/internal/vocab"
	flag "github.com/spf13/pflag"
)

// Exit codes follow Unix conventions: 0=success, 1=general, 2=usage, 3=I/O.
const (
	ExitSuccess = 0
	ExitGeneral = 1
	ExitUsage   = 2
	ExitIO      = 3
)

var (
	ErrNoInput       = errors.New("no input file")
	ErrUnknownOutput = errors.New("unknown output format")
	ErrReadInput     = errors.New("read input")
)

const outputFormats = "json|richtext|markdown|blocks|bullets"

var validOutputs = map[string]bool{"json": true, "richtext": true, "markdown": true, "blocks": true, "bullets": true}

type options struct {
	output      string
	summary     string
	vocabFile   string
	inputFormat string
	maxBullets  int
	keyBullets  bool
	standardize bool
	quiet       bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("jobfmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.output, "output", "o", "json", "output format: "+outputFormats)
	fs.StringVarP(&opts.summary, "summary", "s", "", "summary placed first in the rich text")
	fs.StringVar(&opts.vocabFile, "vocab", "", "YAML vocabulary file")
	fs.StringVarP(&opts.inputFormat, "input-format", "f", "", "input type when reading stdin or an unknown extension: txt|md|html|docx|pdf")
	fs.IntVar(&opts.maxBullets, "max-bullets", 0, "cap on bullets (0 means no cap, key bullets default to 10)")
	fs.BoolVar(&opts.keyBullets, "key-bullets", false, "print the most important bullets, one per line")
	fs.BoolVar(&opts.standardize, "standardize", false, "print the input with every list marker rewritten")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress warnings")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jobfmt [flags] FILE|-\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	level := slog.LevelInfo
	if opts.quiet {
		level = slog.LevelError
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() != 1 {
		fs.Usage()
		return exitCodeFor(ErrNoInput)
	}
	if err := format(fs.Arg(0), opts, stdin, stdout, log); err != nil {
		log.Error("jobfmt failed", "error", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission), errors.Is(err, ErrReadInput):
		return ExitIO
	case errors.Is(err, ErrNoInput), errors.Is(err, ErrUnknownOutput),
		errors.Is(err, vocab.ErrInvalidPattern), errors.Is(err, vocab.ErrUnknownCategory):
		return ExitUsage
	}
	return ExitGeneral
}

func format(path string, opts options, stdin io.Reader, stdout io.Writer, log *slog.Logger) error {
	if !validOutputs[opts.output] {
		return fmt.Errorf("%w %q (want %s)", ErrUnknownOutput, opts.output, outputFormats)
	}
	v := vocab.Default()
	if opts.vocabFile != "" {
		loaded, err := vocab.Load(opts.vocabFile)
		if err != nil {
			return err
		}
		v = loaded
	}

	data, name, err := readInput(path, opts.inputFormat, stdin)
	if err != nil {
		return err
	}

	if opts.standardize {
		_, err := io.WriteString(stdout, strings.TrimRight(render.Standardize(string(data), v), "\n")+"\n")
		return err
	}

	p, err := parser.ForFile(name, v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	doc, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Empty() {
		log.Warn("no content found", "input", path)
	}

	if opts.keyBullets {
		return writeLines(stdout, render.KeyBullets(doc, v, opts.maxBullets))
	}
	return writeOutput(stdout, opts, doc, formatter.New(v, opts.maxBullets), log)
}

// readInput returns the input bytes and the file name used to pick a parser.
func readInput(path, inputFormat string, stdin io.Reader) ([]byte, string, error) {
	name := path
	var data []byte
	var err error
	if path == "-" {
		name = "stdin.txt"
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %w", ErrReadInput, path, err)
	}
	if inputFormat != "" {
		name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + "." + strings.TrimPrefix(inputFormat, ".")
	}
	return data, name, nil
}

func writeOutput(w io.Writer, opts options, doc *doctree.Document, f *formatter.Formatter, log *slog.Logger) error {
	switch opts.output {
	case "json":
		return writeJSON(w, f.Render(doc, opts.summary))
	case "richtext":
		out := render.RichText(doc, opts.summary, f.Vocabulary())
		if strings.HasSuffix(out, "...") {
			log.Warn("rich text truncated", "limit", render.RichTextLimit)
		}
		_, err := io.WriteString(w, out+"\n")
		return err
	case "markdown":
		_, err := io.WriteString(w, render.Markdown(doc, f.Vocabulary()))
		return err
	case "blocks":
		return writeJSON(w, render.Blocks(doc))
	case "bullets":
		return writeLines(w, render.Bullets(doc, opts.maxBullets))
	}
	return fmt.Errorf("%w %q (want %s)", ErrUnknownOutput, opts.output, outputFormats)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
