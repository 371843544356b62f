package container

import (
	"encoding/binary"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/tiverr"
)

const chunkHeaderSize = 12

// ChunkType distinguishes the two metadata chunk payload kinds.
type ChunkType uint16

const (
	// ChunkPlaintextXML is always the first chunk and is never encrypted.
	ChunkPlaintextXML ChunkType = 0
	// ChunkEncryptedXML chunks form one continuous logical keystream.
	ChunkEncryptedXML ChunkType = 1
)

// Chunk is one metadata chunk: its start offset (for offset-carry math in
// the metadata decryptor), ID, type, and raw data bytes.
type Chunk struct {
	StartOffset int64
	ID          uint16
	Type        ChunkType
	Data        []byte
}

// ReadChunk reads one metadata chunk from src. The returned StartOffset is
// the offset of the chunk's data relative to the start of the stream
// (src.Tell() before the read plus the 12-byte chunk header), used by the
// metadata decryptor to compute the inter-chunk skip distance.
func ReadChunk(src *bytesource.Source) (Chunk, error) {
	startOffset := src.Tell() + chunkHeaderSize

	hdr, err := src.Read(chunkHeaderSize)
	if err != nil {
		return Chunk{}, &tiverr.EOFError{Context: "reading chunk header", Err: err}
	}
	chunkSize := binary.BigEndian.Uint32(hdr[0:4])
	dataSize := binary.BigEndian.Uint32(hdr[4:8])
	id := binary.BigEndian.Uint16(hdr[8:10])
	typ := binary.BigEndian.Uint16(hdr[10:12])

	if typ != uint16(ChunkPlaintextXML) && typ != uint16(ChunkEncryptedXML) {
		return Chunk{}, &tiverr.ChunkTypeError{Type: typ}
	}
	if chunkSize < chunkHeaderSize+dataSize {
		return Chunk{}, &tiverr.HeaderError{Reason: "chunk_size smaller than header+data"}
	}

	data, err := src.Read(int(dataSize))
	if err != nil {
		return Chunk{}, &tiverr.EOFError{Context: "reading chunk data", Err: err}
	}

	padLen := int(chunkSize) - chunkHeaderSize - int(dataSize)
	if padLen > 0 {
		if _, err := src.Read(padLen); err != nil {
			return Chunk{}, &tiverr.EOFError{Context: "reading chunk padding", Err: err}
		}
	}

	return Chunk{
		StartOffset: startOffset,
		ID:          id,
		Type:        ChunkType(typ),
		Data:        data,
	}, nil
}
