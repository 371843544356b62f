// Package psdemux scans an MPEG Program Stream payload for pack, system,
// TiVo-private, and PES start codes, decrypting the scrambled body of any
// PES packet whose optional header advertises non-zero scrambling control.
package psdemux

import (
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/keystream"
	"github.com/tivostream/tivodecode-go/tiverr"
)

const (
	codePack    = 0xBA
	codeSystem  = 0xBB
	codeFirstPrivate1 = 0xBC
	codeLastPrivate   = 0xFD

	videoMin = 0xE0
	videoMax = 0xEF
	audioMin = 0xC0
	audioMax = 0xDF
)

// isTiVoPrivate reports whether a start-code suffix identifies a TiVo
// private-data packet: stream IDs 0xBC..0xBF or 0xFD.
func isTiVoPrivate(id byte) bool {
	return (id >= 0xBC && id <= 0xBF) || id == 0xFD
}

func isVideo(id byte) bool { return id >= videoMin && id <= videoMax }
func isAudio(id byte) bool { return id >= audioMin && id <= audioMax }

// Config controls optional behaviors of the PS demultiplexer.
type Config struct {
	NoVideo bool
	Logger  *slog.Logger
	// PktDump, when non-empty, restricts debug tracing to frames whose
	// stream ID is a key in the map.
	PktDump map[uint32]bool
}

// Demuxer walks an MPEG-PS byte stream, applying session to decrypt
// scrambled PES bodies and forwarding everything else unchanged.
type Demuxer struct {
	src     *bytesource.Source
	dst     io.Writer
	session *keystream.Session
	cfg     Config

	pending []byte // bytes read but not yet matched to a start code
}

// New creates a PS demuxer reading from src, writing decrypted output to
// dst, and using session (already bound to the container's MAK) for any
// TiVo private packet's rekey and any scrambled PES body's decryption.
func New(src *bytesource.Source, dst io.Writer, session *keystream.Session, cfg Config) *Demuxer {
	return &Demuxer{src: src, dst: dst, session: session, cfg: cfg}
}

// Process consumes the MPEG-PS payload to EOF, returning the number of
// bytes written to dst.
func (d *Demuxer) Process() (int64, error) {
	var written int64
	for {
		frame, ok, err := d.nextFrame()
		if err != nil {
			return written, err
		}
		if !ok {
			break
		}
		n, err := d.handleFrame(frame)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// frame is one start-code-delimited unit: its 4-byte start code (with the
// trailing ID byte) plus whatever bytes logically belong to it.
type frame struct {
	id   byte
	body []byte // bytes following the 4-byte start code
}

// nextFrame locates the next "00 00 01 XX" start code and reads the frame
// it introduces, returning ok=false at a clean end of stream.
func (d *Demuxer) nextFrame() (frame, bool, error) {
	hdr, ok, err := d.read4OrPending()
	if err != nil {
		return frame{}, false, err
	}
	if !ok {
		return frame{}, false, nil
	}
	if hdr[0] != 0x00 || hdr[1] != 0x00 || hdr[2] != 0x01 {
		return frame{}, false, &tiverr.HeaderError{Reason: "expected MPEG start code 00 00 01"}
	}
	id := hdr[3]

	switch {
	case id == codePack:
		return d.readPack()
	case id == codeSystem:
		return d.readLengthPrefixed(id, 2)
	default:
		return d.readLengthPrefixed(id, 2)
	}
}

// read4OrPending returns the next 4 bytes, preferring any start-code bytes
// scanToNextStartCode already pulled out of src and buffered in d.pending.
func (d *Demuxer) read4OrPending() ([]byte, bool, error) {
	if len(d.pending) == 0 {
		return d.src.TryRead(4)
	}
	out := append([]byte{}, d.pending...)
	d.pending = nil
	for len(out) < 4 {
		b, ok, err := d.src.TryRead(1)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, &tiverr.EOFError{Context: "start code truncated at end of stream"}
		}
		out = append(out, b[0])
	}
	return out, true, nil
}

// readPack reads the fixed-structure MPEG-PS pack header: 9 bytes of
// SCR/mux-rate fields followed by a 3-bit stuffing length and that many
// stuffing bytes.
func (d *Demuxer) readPack() (frame, bool, error) {
	fixed, err := d.src.Read(9)
	if err != nil {
		return frame{}, false, err
	}
	stuffLen := int(fixed[8] & 0x07)
	stuffing, err := d.src.Read(stuffLen)
	if err != nil {
		return frame{}, false, err
	}
	body := append(fixed, stuffing...)
	return frame{id: codePack, body: body}, true, nil
}

// readLengthPrefixed reads a 2-byte big-endian length field followed by
// that many bytes, as used by the system header and every PES-shaped
// packet (private, audio, video).
func (d *Demuxer) readLengthPrefixed(id byte, lenBytes int) (frame, bool, error) {
	lb, err := d.src.Read(lenBytes)
	if err != nil {
		return frame{}, false, err
	}
	length := int(binary.BigEndian.Uint16(lb))
	if length == 0 {
		// Unbounded (legal only for video in PS): scan to next start code.
		body, err := d.scanToNextStartCode()
		if err != nil {
			return frame{}, false, err
		}
		full := append(append([]byte{}, lb...), body...)
		return frame{id: id, body: full}, true, nil
	}
	rest, err := d.src.Read(length)
	if err != nil {
		return frame{}, false, err
	}
	full := append(append([]byte{}, lb...), rest...)
	return frame{id: id, body: full}, true, nil
}

// scanToNextStartCode reads byte-by-byte until it finds (and rewinds
// logically before) the next 00 00 01 start code, or EOF. Used only for
// the unbounded video PES case.
func (d *Demuxer) scanToNextStartCode() ([]byte, error) {
	var out []byte
	for {
		b, ok, err := d.src.TryRead(1)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, b[0])
		n := len(out)
		if n >= 3 && out[n-3] == 0x00 && out[n-2] == 0x00 && out[n-1] == 0x01 {
			// Found the next start code: push its 3 bytes back into
			// pending so nextFrame re-reads it as a fresh start code.
			d.pending = append(d.pending, out[n-3:]...)
			return out[:n-3], nil
		}
	}
}

// traceFrame logs a frame's identity and length when its stream ID was
// requested via Config.PktDump.
func (d *Demuxer) traceFrame(f frame) {
	if d.cfg.Logger == nil || !d.cfg.PktDump[uint32(f.id)] {
		return
	}
	d.cfg.Logger.Debug("pkt-dump", "stream_id", f.id, "len", len(f.body))
}

func (d *Demuxer) handleFrame(f frame) (int64, error) {
	d.traceFrame(f)
	switch {
	case f.id == codePack || f.id == codeSystem:
		return d.writeVerbatim(f)
	case isTiVoPrivate(f.id):
		return d.handleTiVoPrivate(f)
	case isVideo(f.id):
		if d.cfg.NoVideo {
			return 0, nil
		}
		return d.handlePES(f)
	case isAudio(f.id):
		return d.handlePES(f)
	default:
		return d.writeVerbatim(f)
	}
}

func (d *Demuxer) writeVerbatim(f frame) (int64, error) {
	buf := make([]byte, 0, 4+len(f.body))
	buf = append(buf, 0x00, 0x00, 0x01, f.id)
	buf = append(buf, f.body...)
	n, err := d.dst.Write(buf)
	return int64(n), err
}

// tivoKeyPayloadSize is the length of the TiVo private-packet key payload:
// block_no, crypted, unknown, key.
const tivoKeyPayloadSize = 24

func (d *Demuxer) handleTiVoPrivate(f frame) (int64, error) {
	body := f.body[2:] // skip the 2-byte length prefix already consumed into f.body
	offset := parsePESOptionalHeader(f.id, body).bodyOffset
	if offset+tivoKeyPayloadSize <= len(body) {
		key := body[offset : offset+tivoKeyPayloadSize]
		blockNo := binary.BigEndian.Uint32(key[0:4])
		crypted := binary.BigEndian.Uint32(key[4:8])
		// key[8:12] is the "unknown" field; the real turing key is the
		// trailing 16 bytes.
		var salt [4]byte
		copy(salt[:], key[8:12])
		var turingKey [16]byte
		copy(turingKey[:], key[8:24])
		if err := d.session.Rekey(blockNo, f.id, crypted != 0, salt, turingKey); err != nil {
			return 0, err
		}
	} else if d.cfg.Logger != nil {
		d.cfg.Logger.Warn("TiVo private packet too short for key payload", "id", f.id, "len", len(body))
	}
	return d.writeVerbatim(f)
}

// pesOptionalHeader describes the subset of the optional PES header this
// package needs: whether scrambling is signalled, and where the PES body
// begins relative to the start of body (after the 2-byte length prefix).
type pesOptionalHeader struct {
	present        bool
	scramblingCtrl byte
	bodyOffset     int
}

// exemptFromOptionalHeader lists stream IDs that never carry an optional
// PES header (padding, private_stream_2, ECM/EMM, program stream
// directory, ITU-T Rec. H.222.1 type E).
func exemptFromOptionalHeader(id byte) bool {
	switch id {
	case 0xBE, 0xBF, 0xF0, 0xF1, 0xF2, 0xF8, 0xFF:
		return true
	}
	return false
}

// parsePESOptionalHeader parses the optional PES header fields out of
// body, which starts immediately after the PES packet's 2-byte length
// field (so body[0] is the streamID is NOT included — body here is the
// post-length-prefix bytes, starting at what the MPEG spec calls byte 6
// of the packet).
func parsePESOptionalHeader(id byte, body []byte) pesOptionalHeader {
	if exemptFromOptionalHeader(id) || len(body) < 3 {
		return pesOptionalHeader{present: false, bodyOffset: 0}
	}
	scramblingCtrl := (body[0] >> 4) & 0x03
	headerDataLen := int(body[2])
	bodyOffset := 3 + headerDataLen
	if bodyOffset > len(body) {
		bodyOffset = len(body)
	}
	return pesOptionalHeader{present: true, scramblingCtrl: scramblingCtrl, bodyOffset: bodyOffset}
}

func (d *Demuxer) handlePES(f frame) (int64, error) {
	body := f.body[2:]
	h := parsePESOptionalHeader(f.id, body)

	out := make([]byte, 0, 6+len(body))
	out = append(out, 0x00, 0x00, 0x01, f.id)
	out = append(out, f.body[0], f.body[1])

	if !h.present || h.scramblingCtrl == 0 {
		out = append(out, body...)
		n, err := d.dst.Write(out)
		return int64(n), err
	}

	hdr := append([]byte{}, body[:h.bodyOffset]...)
	hdr[0] &^= 0x30 // clear the scrambling_control bits in the output copy

	payload := append([]byte{}, body[h.bodyOffset:]...)
	if err := d.session.PrepareFrame(f.id); err != nil {
		return 0, err
	}
	if err := d.session.Decrypt(payload); err != nil {
		return 0, err
	}

	out = append(out, hdr...)
	out = append(out, payload...)
	n, err := d.dst.Write(out)
	return int64(n), err
}
