package decoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/tivostream/tivodecode-go/container"
)

const headerSize = 16
const chunkHeaderSize = 12

func buildHeader(mpegOffset uint32, chunkCount uint16, ts bool) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], "TiVo")
	if ts {
		buf[7] = 0x20
	}
	binary.BigEndian.PutUint32(buf[8:12], mpegOffset)
	binary.BigEndian.PutUint16(buf[14:16], chunkCount)
	return buf
}

func buildChunk(id uint16, typ container.ChunkType, data []byte) []byte {
	buf := make([]byte, chunkHeaderSize)
	chunkSize := chunkHeaderSize + len(data)
	binary.BigEndian.PutUint32(buf[0:4], uint32(chunkSize))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(data)))
	binary.BigEndian.PutUint16(buf[8:10], id)
	binary.BigEndian.PutUint16(buf[10:12], uint16(typ))
	return append(buf, data...)
}

func TestProcessPSPassesPlaintextMetadataAndPayload(t *testing.T) {
	plain := buildChunk(0, container.ChunkPlaintextXML, []byte("<TiVoContainer/>"))
	mpeg := []byte{0x00, 0x00, 0x01, 0xBA, 1, 2, 3, 4, 5, 6, 7, 8, 0x00}

	body := append([]byte{}, plain...)
	mpegOffset := uint32(headerSize + len(body))
	hdr := buildHeader(mpegOffset, 1, false)

	input := append([]byte{}, hdr...)
	input = append(input, body...)
	input = append(input, mpeg...)

	var out bytes.Buffer
	cfg := Config{MAK: "1234567890"}
	res, err := Process(context.Background(), bytes.NewReader(input), &out, cfg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Format != FormatPS {
		t.Fatalf("Format = %v, want FormatPS", res.Format)
	}
	if !bytes.Equal(out.Bytes(), mpeg) {
		t.Fatalf("output = %x, want %x", out.Bytes(), mpeg)
	}
}

func TestProcessRejectsBadMAKUnlessNoVerify(t *testing.T) {
	hdr := buildHeader(headerSize, 0, false)
	cfg := Config{MAK: "not-a-mak"}
	_, err := Process(context.Background(), bytes.NewReader(hdr), &bytes.Buffer{}, cfg)
	if err == nil {
		t.Fatal("expected MAK verification error")
	}

	cfg.NoVerify = true
	_, err = Process(context.Background(), bytes.NewReader(hdr), &bytes.Buffer{}, cfg)
	if err != nil {
		t.Fatalf("Process with NoVerify: %v", err)
	}
}

func TestFormatString(t *testing.T) {
	cases := map[Format]string{FormatPS: "PS", FormatTS: "TS", FormatUnknown: "unknown"}
	for f, want := range cases {
		if got := f.String(); got != want {
			t.Errorf("Format(%d).String() = %q, want %q", f, got, want)
		}
	}
}
