// substr packs newline-separated strings into a compact collection file and
// reads strings back out of it.
//
//	substr pack [flags] INPUT        build INPUT (or - for stdin) into INPUT.substr
//	substr get [--context N] FILE ID...
//	substr dump FILE                 print every string with its id
//	substr stats FILE                print size statistics
//	substr inspect FILE              print the payload in CBOR diagnostic notation
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/axiomhq/substr"
	"github.com/axiomhq/substr/internal/codec"
	"github.com/axiomhq/substr/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: substr pack|get|dump|stats|inspect ... (see substr help)")

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "pack":
		return runPack(args[1:], stdin, stdout, stderr)
	case "get":
		return runGet(args[1:], stdout)
	case "dump":
		return runDump(args[1:], stdout)
	case "stats":
		return runStats(args[1:], stdout)
	case "inspect":
		return runInspect(args[1:], stdout)
	case "help", "-h", "--help":
		printHelp(stdout)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `substr packs short, overlapping strings into one shared buffer.

Usage:
  substr pack [flags] INPUT        build INPUT (one string per line, - for stdin)
  substr get [--context N] FILE ID...
  substr dump FILE
  substr stats FILE
  substr inspect FILE

Run "substr pack --help" for pack flags. Pack settings may also come from a
YAML file given by --config or $SUBSTR_CONFIG.
`)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runPack(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath  string
		output      string
		compression string
		verify      bool
		progress    bool
		trimSpace   bool
		skipEmpty   bool
		verbose     bool
	)
	flagSet := pflag.NewFlagSet("substr pack", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "YAML config file (default $"+config.EnvVar+")")
	flagSet.StringVarP(&output, "output", "o", "", "output file (default INPUT.substr, required for stdin)")
	flagSet.StringVar(&compression, "compression", "", "payload compression: none, lz4, zstd")
	flagSet.BoolVar(&verify, "verify", false, "check every string after building")
	flagSet.BoolVar(&progress, "progress", false, "log build phases")
	flagSet.BoolVar(&trimSpace, "trim-space", false, "strip white space around input lines")
	flagSet.BoolVar(&skipEmpty, "skip-empty", false, "drop empty input lines")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at info level")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("pack takes exactly one INPUT, got %d", flagSet.NArg())
	}
	input := flagSet.Arg(0)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("compression") {
		cfg.Compression = compression
	}
	if flagSet.Changed("verify") {
		cfg.Verify = verify
	}
	if flagSet.Changed("progress") {
		cfg.Progress = progress
	}
	if flagSet.Changed("trim-space") {
		cfg.TrimSpace = trimSpace
	}
	if flagSet.Changed("skip-empty") {
		cfg.SkipEmpty = skipEmpty
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if output == "" {
		if input == "-" {
			return errors.New("--output is required when reading stdin")
		}
		output = input + ".substr"
	}

	logger := newLogger(stderr, verbose || cfg.Progress)

	var r io.Reader = stdin
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer file.Close()
		r = file
	}
	lines, err := readLines(r, cfg)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	opts := []substr.Option{substr.WithLogger(logger)}
	if cfg.Progress {
		opts = append(opts, substr.WithProgress(substr.LogProgress(logger)))
	}
	builder, err := substr.NewBuilder(lines, opts...)
	if err != nil {
		return err
	}
	collection, err := builder.Build()
	if err != nil {
		return err
	}
	if cfg.Verify {
		ok, err := builder.Verify()
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("verification failed")
		}
	}

	written, err := writeCollection(output, collection, cfg)
	if err != nil {
		return err
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "packed",
		slog.String("output", output),
		slog.Int("strings", collection.Len()),
		slog.Int("storage", collection.StorageLen()),
		slog.Int("naive", collection.NaiveLen()),
		slog.Int64("file", written))
	fmt.Fprintf(stdout, "%s: %d strings, %d of %d bytes\n",
		output, collection.Len(), collection.StorageLen(), collection.NaiveLen())
	return nil
}

// readLines returns one string per input line. Lines are copied because the
// scanner reuses its buffer.
func readLines(r io.Reader, cfg config.Config) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	var lines [][]byte
	for scanner.Scan() {
		line := scanner.Bytes()
		if cfg.TrimSpace {
			line = bytes.TrimSpace(line)
		}
		if cfg.SkipEmpty && len(line) == 0 {
			continue
		}
		lines = append(lines, bytes.Clone(line))
	}
	return lines, scanner.Err()
}

// writeCollection writes to a temporary file next to path and renames it into
// place, so a failed write never leaves a partial collection behind.
func writeCollection(path string, c *substr.Collection, cfg config.Config) (int64, error) {
	compression, err := cfg.CompressionTag()
	if err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".substr-*")
	if err != nil {
		return 0, fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	counter := &countingWriter{w: tmp}
	if err := substr.NewEncoder(counter, compression).Encode(c); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func openCollection(path string) (*substr.Collection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	c, err := substr.NewDecoder(bufio.NewReader(file)).Decode()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return c, nil
}

func runGet(args []string, stdout io.Writer) error {
	var contextLen int
	flagSet := pflag.NewFlagSet("substr get", pflag.ContinueOnError)
	flagSet.IntVarP(&contextLen, "context", "C", 0, "also print up to N bytes of shared buffer around each string")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() < 2 {
		return errors.New("get takes FILE and at least one ID")
	}
	c, err := openCollection(flagSet.Arg(0))
	if err != nil {
		return err
	}
	for _, arg := range flagSet.Args()[1:] {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", arg, err)
		}
		s, ok := c.Get(id)
		if !ok {
			return fmt.Errorf("id %d out of range [0, %d)", id, c.Len())
		}
		if contextLen > 0 {
			before, _ := c.Before(id, contextLen)
			after, _ := c.After(id, contextLen)
			fmt.Fprintf(stdout, "%s[%s]%s\n", before, s, after)
			continue
		}
		fmt.Fprintf(stdout, "%s\n", s)
	}
	return nil
}

func runDump(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("dump takes exactly one FILE")
	}
	c, err := openCollection(args[0])
	if err != nil {
		return err
	}
	w := bufio.NewWriter(stdout)
	for id, s := range c.All() {
		fmt.Fprintf(w, "%d\t%s\n", id, s)
	}
	return w.Flush()
}

func runStats(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("stats takes exactly one FILE")
	}
	c, err := openCollection(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	ratio := 1.0
	if c.StorageLen() > 0 {
		ratio = float64(c.NaiveLen()) / float64(c.StorageLen())
	}
	fmt.Fprintf(stdout, "strings:  %d\nstorage:  %d bytes\nnaive:    %d bytes\nratio:    %.2fx\nfile:     %d bytes\n",
		c.Len(), c.StorageLen(), c.NaiveLen(), ratio, info.Size())
	return nil
}

func runInspect(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("inspect takes exactly one FILE")
	}
	c, err := openCollection(args[0])
	if err != nil {
		return err
	}
	payload, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	diag, err := codec.Diagnose(payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, diag)
	return nil
}
