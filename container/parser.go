package container

import "github.com/tivostream/tivodecode-go/bytesource"

// Container is the parsed header plus the full ordered list of metadata
// chunks, with the source left positioned at the start of the MPEG
// payload.
type Container struct {
	Header Header
	Chunks []Chunk
}

// Parse reads the fixed header, all of its metadata chunks, and seeks src
// forward to header.MpegOffset, leaving it positioned at the start of the
// MPEG payload.
func Parse(src *bytesource.Source) (Container, error) {
	h, err := ReadHeader(src)
	if err != nil {
		return Container{}, err
	}

	chunks := make([]Chunk, 0, h.ChunkCount)
	for i := uint16(0); i < h.ChunkCount; i++ {
		c, err := ReadChunk(src)
		if err != nil {
			return Container{}, err
		}
		chunks = append(chunks, c)
	}

	if err := src.SeekForward(int64(h.MpegOffset)); err != nil {
		return Container{}, err
	}

	return Container{Header: h, Chunks: chunks}, nil
}
