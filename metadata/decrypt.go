// Package metadata decrypts the container's encrypted-XML chunks,
// treating them as one continuous logical keystream across chunks with
// plaintext padding between them skipped (not XORed).
package metadata

import (
	"github.com/tivostream/tivodecode-go/container"
	"github.com/tivostream/tivodecode-go/keystream"
)

// streamID is the stream identifier folded into the metadata session's
// per-block IV (see DESIGN.md for why 0 is used); it is applied
// consistently for both session creation and every subsequent rekey.
const streamID = 0x00

// Decryptor applies a keystream.Session to the run of encrypted-XML
// chunks that follow the container's single plaintext-XML chunk.
type Decryptor struct {
	session *keystream.Session
	pos     int64
}

// New creates a metadata decryptor bound to session, which the caller
// must have already prepared for frame streamID via PrepareFrame (done
// once, before the first chunk is processed).
func New(session *keystream.Session) *Decryptor {
	return &Decryptor{session: session}
}

// StreamID is the frame identifier metadata sessions are prepared with.
func StreamID() byte { return streamID }

// Decrypt decrypts chunk.Data in place. offset is the number of plaintext
// bytes between the previous chunk's data end and this chunk's data start
// (the previous chunk's padding and this chunk's header), consumed via Skip
// before the chunk's own bytes are XORed. The decryptor's running
// position is then advanced past this chunk for the next call.
func (d *Decryptor) Decrypt(chunk container.Chunk) error {
	offset := int(chunk.StartOffset - d.pos)
	if offset > 0 {
		if err := d.session.Skip(offset); err != nil {
			return err
		}
	}
	if err := d.session.Decrypt(chunk.Data); err != nil {
		return err
	}
	d.pos = chunk.StartOffset + int64(len(chunk.Data))
	return nil
}

// SetPlaintextOrigin records the plaintext-XML chunk's end as the
// decryptor's logical stream position, establishing the base for the
// offset-carry computation on the first encrypted chunk.
func (d *Decryptor) SetPlaintextOrigin(chunk container.Chunk) {
	d.pos = chunk.StartOffset + int64(len(chunk.Data))
}
