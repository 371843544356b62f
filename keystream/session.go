// Package keystream derives a per-stream Turing keystream from a Media
// Access Key (MAK) and per-block salts, and exposes it as a pull source of
// XOR-mask bytes with explicit cursor control.
package keystream

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/tivostream/tivodecode-go/tiverr"
	"github.com/tivostream/tivodecode-go/turing"
)

const (
	frameSize = 20
	// makBufLen is the zero-padded buffer length the Turing cipher's key
	// schedule is run on: 10 MAK digits, NUL-padded to a multiple of 4 so
	// the key schedule's length%4==0 constraint holds (see DESIGN.md).
	makBufLen = 12
)

// Session is one logical keystream: a Turing cipher instance, a 20-byte
// window into its most recent 340-byte block, and a cursor within that
// window. The next keystream byte is deterministic given the session's
// MAK, turing key, block counter, and cursor.
type Session struct {
	mak [makBufLen]byte

	cipher turing.Cipher
	keyed  bool

	block     [340]byte
	cursor    int
	blockNo   uint32
	streamID  byte
	turingKey [16]byte
	salt      [4]byte
	crypted   bool
}

// New returns a Session bound to the given 10-digit MAK. The Turing cipher
// is keyed lazily on the first PrepareFrame call.
func New(mak string) *Session {
	s := &Session{}
	copy(s.mak[:], mak)
	return s
}

// PrepareFrame builds the per-block IV — the SHA-1 digest of the MAK, the
// session's 16-byte turing key, the block counter, and the stream ID — and
// re-initializes the cipher's LFSR from it, then generates a fresh 340-byte
// block and resets the session's 20-byte window to its first segment.
func (s *Session) PrepareFrame(streamID byte) error {
	s.streamID = streamID

	if !s.keyed {
		if err := s.cipher.Key(s.mak[:]); err != nil {
			return &tiverr.KeyError{Reason: "session MAK key schedule", Err: err}
		}
		s.keyed = true
	}

	h := sha1.New()
	h.Write(s.mak[:10])
	h.Write(s.turingKey[:])
	var blockBuf [4]byte
	binary.BigEndian.PutUint32(blockBuf[:], s.blockNo)
	h.Write(blockBuf[:])
	h.Write([]byte{streamID})
	digest := h.Sum(nil)

	if err := s.cipher.IV(digest[:frameSize]); err != nil {
		return &tiverr.KeyError{Reason: "session IV load", Err: err}
	}

	s.block = s.cipher.Generate()
	s.cursor = 0
	return nil
}

// Skip advances the within-frame cursor by n bytes without consuming
// keystream into output. If the skip crosses the 20-byte window boundary,
// the session is advanced to however many subsequent blocks are needed,
// each keyed with an incremented block counter and the same stream ID.
func (s *Session) Skip(n int) error {
	for n > 0 {
		remaining := frameSize - s.cursor
		if n < remaining {
			s.cursor += n
			return nil
		}
		n -= remaining
		if err := s.nextBlock(); err != nil {
			return err
		}
	}
	return nil
}

// Decrypt XORs buf in place against the session's keystream, advancing the
// cursor one byte at a time and rolling to a new block whenever the
// current 20-byte window is exhausted.
func (s *Session) Decrypt(buf []byte) error {
	for i := range buf {
		if s.cursor == frameSize {
			if err := s.nextBlock(); err != nil {
				return err
			}
		}
		buf[i] ^= s.block[s.cursor]
		s.cursor++
	}
	return nil
}

func (s *Session) nextBlock() error {
	s.blockNo++
	return s.PrepareFrame(s.streamID)
}

// Rekey installs a new block counter, salt, and 16-byte turing key (as
// carried by a TiVo private/key packet), marks the session crypted, and
// re-derives the per-block IV for streamID.
func (s *Session) Rekey(blockNo uint32, streamID byte, crypted bool, salt [4]byte, key [16]byte) error {
	s.blockNo = blockNo
	s.salt = salt
	s.turingKey = key
	s.crypted = crypted
	return s.PrepareFrame(streamID)
}

// Crypted reports whether the session has received a key at least once.
func (s *Session) Crypted() bool { return s.crypted }

// BlockNo returns the session's current block counter.
func (s *Session) BlockNo() uint32 { return s.blockNo }

// VerifyMAK reports whether mak decodes as a 10-digit numeric MAK. It
// checks the format only and performs no trial decrypt, so a well-formed
// but wrong MAK passes.
func VerifyMAK(mak string) bool {
	if len(mak) != 10 {
		return false
	}
	for _, c := range mak {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
