package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/tivostream/tivodecode-go/bytesource"
)

func buildHeader(mpegOffset uint32, chunkCount uint16, ts bool) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic)
	if ts {
		buf[7] = tsFlag
	}
	binary.BigEndian.PutUint32(buf[8:12], mpegOffset)
	binary.BigEndian.PutUint16(buf[14:16], chunkCount)
	return buf
}

func TestReadHeaderPS(t *testing.T) {
	buf := buildHeader(100, 2, false)
	src := bytesource.New(bytes.NewReader(buf))
	h, err := ReadHeader(src)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Format != FormatPS {
		t.Fatalf("Format = %v, want FormatPS", h.Format)
	}
	if h.MpegOffset != 100 || h.ChunkCount != 2 {
		t.Fatalf("got %+v", h)
	}
}

func TestReadHeaderTS(t *testing.T) {
	buf := buildHeader(50, 1, true)
	src := bytesource.New(bytes.NewReader(buf))
	h, err := ReadHeader(src)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Format != FormatTS {
		t.Fatalf("Format = %v, want FormatTS", h.Format)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	buf := buildHeader(0, 0, false)
	buf[0] = 'X'
	src := bytesource.New(bytes.NewReader(buf))
	if _, err := ReadHeader(src); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func buildChunk(id uint16, typ ChunkType, data []byte, padLen int) []byte {
	chunkSize := chunkHeaderSize + len(data) + padLen
	buf := make([]byte, chunkHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(chunkSize))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(data)))
	binary.BigEndian.PutUint16(buf[8:10], id)
	binary.BigEndian.PutUint16(buf[10:12], uint16(typ))
	buf = append(buf, data...)
	buf = append(buf, make([]byte, padLen)...)
	return buf
}

func TestReadChunkRoundTrip(t *testing.T) {
	data := []byte("<TiVoContainer/>")
	buf := buildChunk(7, ChunkPlaintextXML, data, 3)
	src := bytesource.New(bytes.NewReader(buf))

	c, err := ReadChunk(src)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if c.ID != 7 || c.Type != ChunkPlaintextXML {
		t.Fatalf("got id=%d type=%d", c.ID, c.Type)
	}
	if !bytes.Equal(c.Data, data) {
		t.Fatalf("data = %q, want %q", c.Data, data)
	}
	if c.StartOffset != chunkHeaderSize {
		t.Fatalf("StartOffset = %d, want %d", c.StartOffset, chunkHeaderSize)
	}
}

func TestReadChunkRejectsUnknownType(t *testing.T) {
	buf := buildChunk(1, ChunkType(99), []byte("x"), 0)
	src := bytesource.New(bytes.NewReader(buf))
	if _, err := ReadChunk(src); err == nil {
		t.Fatal("expected error for unknown chunk type")
	}
}

func TestParseFull(t *testing.T) {
	var payload []byte
	hdrPlaceholder := make([]byte, headerSize)
	payload = append(payload, hdrPlaceholder...)

	chunk0 := buildChunk(0, ChunkPlaintextXML, []byte("<xml/>"), 0)
	chunk1 := buildChunk(1, ChunkEncryptedXML, []byte("encrypted-bytes!"), 2)
	payload = append(payload, chunk0...)
	payload = append(payload, chunk1...)

	mpegPayload := []byte{0x00, 0x00, 0x01, 0xBA}
	mpegOffset := uint32(len(payload))
	payload = append(payload, mpegPayload...)

	hdr := buildHeader(mpegOffset, 2, false)
	copy(payload[0:headerSize], hdr)

	src := bytesource.New(bytes.NewReader(payload))
	cont, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cont.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(cont.Chunks))
	}
	rest, err := src.Read(len(mpegPayload))
	if err != nil {
		t.Fatalf("reading MPEG payload: %v", err)
	}
	if !bytes.Equal(rest, mpegPayload) {
		t.Fatalf("source not positioned at MPEG payload: got %x", rest)
	}
}
