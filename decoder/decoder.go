// Package decoder wires the container parser, metadata decryptor, and the
// MPEG-PS/MPEG-TS demultiplexers into the single entry point a caller (the
// CLI, or any embedder) uses to turn an encrypted TiVo recording into
// plaintext MPEG.
package decoder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/container"
	"github.com/tivostream/tivodecode-go/keystream"
	"github.com/tivostream/tivodecode-go/metadata"
	"github.com/tivostream/tivodecode-go/psdemux"
	"github.com/tivostream/tivodecode-go/tiverr"
	"github.com/tivostream/tivodecode-go/tsdemux"
)

// Format identifies which MPEG container the payload following the TiVo
// header carries.
type Format int

const (
	FormatUnknown Format = iota
	FormatPS
	FormatTS
)

func (f Format) String() string {
	switch f {
	case FormatPS:
		return "PS"
	case FormatTS:
		return "TS"
	default:
		return "unknown"
	}
}

// Config holds every knob Process needs, gathered in one place the way a
// CLI's flag set and an embedder's programmatic config both populate.
type Config struct {
	// MAK is the 10-digit Media Access Key used to derive every session's
	// keystream.
	MAK string
	// NoVerify skips the MAK check, which only tests that MAK is 10 decimal
	// digits. No trial decrypt is performed, so a well-formed but wrong MAK
	// is not detected either way.
	NoVerify bool
	// NoVideo drops video elementary-stream packets instead of writing
	// them through (decrypted or not).
	NoVideo bool
	// DumpMetadata collects each metadata chunk's decrypted bytes into
	// Result.MetadataXML instead of discarding them.
	DumpMetadata bool
	// PktDump, when non-nil, restricts debug-level per-packet tracing to the
	// PS stream IDs / TS PIDs present as keys. Every packet is processed
	// regardless of its contents.
	PktDump map[uint32]bool
	// Logger receives structured progress and warning events. A nil
	// Logger is replaced with slog.Default().
	Logger *slog.Logger
}

// Result summarizes a completed Process call.
type Result struct {
	Format       Format
	BytesWritten int64
	MetadataXML  [][]byte
}

// Process reads a TiVo recording from src, decrypts it against cfg.MAK,
// and writes the resulting plain MPEG-PS or MPEG-TS stream to dst. It
// dispatches internally on the container header's format flag; callers
// never branch on PS vs. TS themselves.
func Process(ctx context.Context, src io.Reader, dst io.Writer, cfg Config) (Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.NoVerify && !keystream.VerifyMAK(cfg.MAK) {
		return Result{}, &tiverr.MAKVerificationError{}
	}

	bsrc := bytesource.New(src)
	cont, err := container.Parse(bsrc)
	if err != nil {
		return Result{}, fmt.Errorf("parsing container: %w", err)
	}
	logger.Info("parsed container header",
		"format", cont.Header.Format,
		"chunks", len(cont.Chunks),
		"mpeg_offset", cont.Header.MpegOffset,
	)

	// The metadata session and the payload session(s) are independent
	// keystream tapes: metadata is decrypted once, up front, while payload
	// sessions are (re)keyed as TiVo key packets arrive during demuxing.
	metaSession := keystream.New(cfg.MAK)

	metaXML, err := decryptMetadata(metaSession, cont, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("decrypting metadata: %w", err)
	}

	var format Format
	var written int64

	switch cont.Header.Format {
	case container.FormatPS:
		format = FormatPS
		payloadSession := keystream.New(cfg.MAK)
		d := psdemux.New(bsrc, dst, payloadSession, psdemux.Config{NoVideo: cfg.NoVideo, Logger: logger, PktDump: cfg.PktDump})
		written, err = d.Process()
	case container.FormatTS:
		format = FormatTS
		// tsdemux keys one session per elementary-stream PID as it
		// discovers each PID's TiVo private section, rather than sharing a
		// single session across the whole multiplex.
		d := tsdemux.New(bsrc, dst, cfg.MAK, tsdemux.Config{NoVideo: cfg.NoVideo, Logger: logger, PktDump: cfg.PktDump})
		written, err = d.Process()
	default:
		return Result{}, &tiverr.HeaderError{Reason: "unrecognized MPEG container format"}
	}
	if err != nil {
		return Result{Format: format, BytesWritten: written}, fmt.Errorf("demultiplexing payload: %w", err)
	}

	select {
	case <-ctx.Done():
		return Result{Format: format, BytesWritten: written}, ctx.Err()
	default:
	}

	logger.Info("decode complete", "format", format, "bytes_written", written)
	return Result{Format: format, BytesWritten: written, MetadataXML: metaXML}, nil
}

// decryptMetadata decrypts every encrypted-XML chunk in place against a
// freshly prepared metadata session, returning the decrypted bytes of
// every chunk (plaintext and decrypted) when cfg.DumpMetadata is set.
func decryptMetadata(session *keystream.Session, cont container.Container, cfg Config) ([][]byte, error) {
	if len(cont.Chunks) == 0 {
		return nil, nil
	}

	if err := session.PrepareFrame(metadata.StreamID()); err != nil {
		return nil, err
	}
	dec := metadata.New(session)

	var collected [][]byte
	for i, chunk := range cont.Chunks {
		if chunk.Type == container.ChunkPlaintextXML {
			dec.SetPlaintextOrigin(chunk)
			if cfg.DumpMetadata {
				collected = append(collected, chunk.Data)
			}
			continue
		}
		if err := dec.Decrypt(cont.Chunks[i]); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.ID, err)
		}
		if cfg.DumpMetadata {
			collected = append(collected, cont.Chunks[i].Data)
		}
	}
	return collected, nil
}
