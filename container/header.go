// Package container reads the fixed TiVo stream header and its variable
// metadata chunks, and classifies the payload as MPEG-PS or MPEG-TS.
package container

import (
	"encoding/binary"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/tiverr"
)

const (
	headerSize = 16
	magic      = "TiVo"
	tsFlag     = 0x20
)

// Format distinguishes the two MPEG multiplex formats a decoded payload
// may use.
type Format int

const (
	// FormatPS is MPEG Program Stream.
	FormatPS Format = iota
	// FormatTS is MPEG Transport Stream.
	FormatTS
)

// Header is the fixed 16-byte TiVo stream header.
type Header struct {
	MpegOffset uint32
	ChunkCount uint16
	Format     Format
}

// ReadHeader reads and validates the 16-byte header from src. It returns
// tiverr.HeaderError on a bad magic value or a truncated read.
func ReadHeader(src *bytesource.Source) (Header, error) {
	buf, err := src.Read(headerSize)
	if err != nil {
		return Header{}, &tiverr.HeaderError{Reason: "reading fixed header", Err: err}
	}
	if string(buf[0:4]) != magic {
		return Header{}, &tiverr.HeaderError{Reason: "bad magic"}
	}

	flags := buf[7]
	h := Header{
		MpegOffset: binary.BigEndian.Uint32(buf[8:12]),
		ChunkCount: binary.BigEndian.Uint16(buf[14:16]),
	}
	if flags&tsFlag != 0 {
		h.Format = FormatTS
	} else {
		h.Format = FormatPS
	}
	return h, nil
}
