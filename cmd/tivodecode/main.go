// Command tivodecode strips the Turing-cipher encryption and TiVo
// container framing from a .tivo recording, writing plain MPEG-PS or
// MPEG-TS to stdout or a named output file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tivostream/tivodecode-go/decoder"
	"github.com/tivostream/tivodecode-go/tiverr"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("tivodecode", flag.ContinueOnError)
	mak := fs.String("mak", "", "10-digit Media Access Key (required)")
	fs.StringVar(mak, "m", "", "shorthand for -mak")
	out := fs.String("out", "", "output file path (default: stdout)")
	fs.StringVar(out, "o", "", "shorthand for -out")
	noVerify := fs.Bool("no-verify", false, "skip the MAK format check (10 decimal digits)")
	fs.BoolVar(noVerify, "n", false, "shorthand for -no-verify")
	dumpMetadata := fs.Bool("metadata", false, "write each decrypted metadata chunk to <out>-<idx>.xml")
	fs.BoolVar(dumpMetadata, "D", false, "shorthand for -metadata")
	noVideo := fs.Bool("no-video", false, "drop video elementary-stream packets")
	fs.BoolVar(noVideo, "x", false, "shorthand for -no-video")
	verbose := fs.Bool("verbose", false, "enable debug-level logging")
	fs.BoolVar(verbose, "v", false, "shorthand for -verbose")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.BoolVar(showVersion, "V", false, "shorthand for -version")
	pktDump := fs.String("pkt-dump", "", "comma-separated stream IDs/PIDs to trace at debug level")
	fs.StringVar(pktDump, "p", "", "shorthand for -pkt-dump")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(os.Stdout, "tivodecode-go", version)
		return 0
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *mak == "" {
		logger.Error("missing required -mak")
		return 2
	}

	rest := fs.Args()
	var input *os.File
	switch len(rest) {
	case 0:
		input = os.Stdin
	case 1:
		f, err := os.Open(rest[0])
		if err != nil {
			logger.Error("opening input", "error", err)
			return 6
		}
		defer f.Close()
		input = f
	default:
		logger.Error("at most one input filename may be given")
		return 2
	}

	var output *os.File
	if *out == "" || *out == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("creating output", "error", err)
			return 7
		}
		defer f.Close()
		output = f
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	cfg := decoder.Config{
		MAK:          *mak,
		NoVerify:     *noVerify,
		NoVideo:      *noVideo,
		DumpMetadata: *dumpMetadata,
		PktDump:      parsePktDump(*pktDump, logger),
		Logger:       logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	var result decoder.Result
	g.Go(func() error {
		var err error
		result, err = decoder.Process(gctx, input, output, cfg)
		return err
	})

	if err := g.Wait(); err != nil {
		return exitCodeFor(err, logger)
	}

	logger.Info("decode finished", "format", result.Format, "bytes_written", result.BytesWritten)
	if *dumpMetadata {
		if err := writeMetadataFiles(*out, result.MetadataXML, logger); err != nil {
			logger.Error("writing metadata chunks", "error", err)
			return 1
		}
	}
	return 0
}

// writeMetadataFiles writes each decrypted metadata chunk to
// "<dest>-<idx>.xml". dest "" or "-" (stdout output) falls back to the
// "tivodecode" base name.
func writeMetadataFiles(dest string, chunks [][]byte, logger *slog.Logger) error {
	base := dest
	if base == "" || base == "-" {
		base = "tivodecode"
	}
	for i, chunk := range chunks {
		name := base + "-" + strconv.Itoa(i) + ".xml"
		if err := os.WriteFile(name, chunk, 0o644); err != nil {
			return err
		}
		logger.Info("wrote metadata chunk", "file", name, "bytes", len(chunk))
	}
	return nil
}

// parsePktDump turns a comma-separated list of decimal or 0x-hex packet
// identifiers into the set decoder.Config.PktDump expects, logging and
// skipping any entry it cannot parse.
func parsePktDump(s string, logger *slog.Logger) map[uint32]bool {
	if s == "" {
		return nil
	}
	out := make(map[uint32]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseUint(tok, 0, 32)
		if err != nil {
			logger.Warn("ignoring unparsable -pkt-dump entry", "value", tok, "error", err)
			continue
		}
		out[uint32(v)] = true
	}
	return out
}

// exitCodeFor maps a pipeline failure to one of the process exit codes a
// scripted caller can branch on, logging the underlying detail either way.
func exitCodeFor(err error, logger *slog.Logger) int {
	logger.Error("decode failed", "error", err)
	var hdrErr *tiverr.HeaderError
	var chunkErr *tiverr.ChunkTypeError
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return 130
	case errors.As(err, &hdrErr) || errors.As(err, &chunkErr):
		return 8
	default:
		return 9
	}
}
