// Package tsdemux demultiplexes an MPEG Transport Stream, tracking the PAT
// and each program's PMT to recognize TiVo private sections and PES PIDs,
// and decrypts scrambled TS payload bytes in place.
package tsdemux

import (
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/keystream"
	"github.com/tivostream/tivodecode-go/tiverr"
)

const (
	packetSize = 188
	syncByte   = 0x47

	patPID = 0x0000

	// tivoPrivateStreamType is the PMT stream_type TiVo uses to mark its
	// private data PID carrying key packets.
	tivoPrivateStreamType = 0xDB
)

// packetHeader is the parsed fixed + adaptation-field portion of one TS
// packet, grounded on the pack's TS packet parser.
type packetHeader struct {
	pid                uint16
	payloadUnitStart   bool
	transportErr       bool
	scramblingControl  byte
	hasAdaptationField bool
	hasPayload         bool
	payloadOffset      int
}

func parsePacketHeader(buf []byte) (packetHeader, error) {
	if len(buf) != packetSize {
		return packetHeader{}, &tiverr.HeaderError{Reason: "TS packet size mismatch"}
	}
	if buf[0] != syncByte {
		return packetHeader{}, &tiverr.ResyncError{Offset: 0}
	}

	var h packetHeader
	h.transportErr = buf[1]&0x80 != 0
	h.payloadUnitStart = buf[1]&0x40 != 0
	h.pid = uint16(buf[1]&0x1F)<<8 | uint16(buf[2])
	h.scramblingControl = (buf[3] >> 6) & 0x03
	h.hasAdaptationField = buf[3]&0x20 != 0
	h.hasPayload = buf[3]&0x10 != 0

	offset := 4
	if h.hasAdaptationField {
		if offset >= packetSize {
			return h, nil
		}
		afLen := int(buf[offset])
		offset += 1 + afLen
		if offset > packetSize {
			offset = packetSize
		}
	}
	if h.hasPayload && offset < packetSize {
		h.payloadOffset = offset
	} else {
		h.payloadOffset = packetSize
	}
	return h, nil
}

// Config controls optional behaviors of the TS demultiplexer.
type Config struct {
	NoVideo bool
	Logger  *slog.Logger
	// PktDump, when non-empty, restricts debug tracing to packets whose
	// PID is a key in the map.
	PktDump map[uint32]bool
}

// Demuxer walks a 188-byte-aligned MPEG-TS stream, tracking PAT/PMT state
// to recognize elementary-stream PIDs and the TiVo private PID, decrypting
// scrambled payload bytes as it goes and forwarding every packet (modified
// or not) to dst.
type Demuxer struct {
	src *bytesource.Source
	dst io.Writer
	mak string
	cfg Config

	pmtPIDs        map[uint16]bool
	privatePID     uint16
	havePrivate    bool
	videoPIDs      map[uint16]bool
	audioPIDs      map[uint16]bool
	elementaryPIDs map[uint16]bool

	// sessions holds one keystream.Session per elementary-stream PID,
	// created the first time a TiVo key packet names that PID. Each PID's
	// keystream tape is independent, since the PES payload it carries
	// interleaves with every other PID's in the multiplex.
	sessions map[uint16]*keystream.Session
}

// New creates a TS demuxer reading from src, writing to dst, and keying a
// fresh per-PID keystream.Session from mak as each PID's TiVo private
// section is observed.
func New(src *bytesource.Source, dst io.Writer, mak string, cfg Config) *Demuxer {
	return &Demuxer{
		src:            src,
		dst:            dst,
		mak:            mak,
		cfg:            cfg,
		pmtPIDs:        make(map[uint16]bool),
		videoPIDs:      make(map[uint16]bool),
		audioPIDs:      make(map[uint16]bool),
		elementaryPIDs: make(map[uint16]bool),
		sessions:       make(map[uint16]*keystream.Session),
	}
}

// Process consumes whole 188-byte packets to EOF, returning the number of
// bytes written to dst. A packet that fails to resync (bad sync byte) is
// not fatal: Process discards bytes until the stream realigns and
// continues from there.
func (d *Demuxer) Process() (int64, error) {
	var written int64
	for {
		buf, ok, err := d.src.TryRead(packetSize)
		if err != nil {
			return written, err
		}
		if !ok {
			break
		}

		if buf[0] != syncByte {
			realigned, ok, err := d.resync(buf)
			if err != nil {
				return written, err
			}
			if !ok {
				break
			}
			buf = realigned
		}

		// buf[0] == syncByte is now guaranteed, so parsePacketHeader cannot
		// return a ResyncError here.
		h, err := parsePacketHeader(buf)
		if err != nil {
			return written, err
		}
		d.tracePacket(h)

		n, err := d.handlePacket(buf, h)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// resync discards buf[0] and every following byte up to the next sync
// byte, logs how many bytes it dropped, and returns a realigned
// 188-byte packet built from that sync byte onward. It reports ok=false at
// a clean end of stream while scanning.
func (d *Demuxer) resync(buf []byte) ([]byte, bool, error) {
	discarded := 0
	from := 1
	for {
		idx := -1
		for i := from; i < len(buf); i++ {
			if buf[i] == syncByte {
				idx = i
				break
			}
		}
		if idx == -1 {
			discarded += len(buf)
			from = 0
			next, ok, err := d.src.TryRead(packetSize)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				if d.cfg.Logger != nil {
					d.cfg.Logger.Warn("TS resync: end of stream before sync byte found", "discarded", discarded)
				}
				return nil, false, nil
			}
			buf = next
			continue
		}

		discarded += idx
		extra, err := d.src.Read(idx)
		if err != nil {
			return nil, false, err
		}
		if d.cfg.Logger != nil {
			d.cfg.Logger.Warn("TS resync: discarded bytes before next sync byte", "discarded", discarded)
		}
		realigned := append(append([]byte{}, buf[idx:]...), extra...)
		return realigned, true, nil
	}
}

// tracePacket logs a packet's PID and scrambling state when that PID was
// requested via Config.PktDump.
func (d *Demuxer) tracePacket(h packetHeader) {
	if d.cfg.Logger == nil || !d.cfg.PktDump[uint32(h.pid)] {
		return
	}
	d.cfg.Logger.Debug("pkt-dump", "pid", h.pid, "scrambling_control", h.scramblingControl)
}

func (d *Demuxer) handlePacket(buf []byte, h packetHeader) (int64, error) {
	switch {
	case h.pid == patPID:
		d.trackPAT(buf, h)
	case d.pmtPIDs[h.pid]:
		d.trackPMT(buf, h)
	case d.havePrivate && h.pid == d.privatePID:
		if err := d.handlePrivateSection(buf, h); err != nil {
			return 0, err
		}
		n, err := d.dst.Write(buf)
		return int64(n), err
	}

	if h.scramblingControl != 0 && h.hasPayload && h.payloadOffset < packetSize {
		if d.cfg.NoVideo && d.videoPIDs[h.pid] {
			return 0, nil
		}
		sess, ok := d.sessions[h.pid]
		if !ok || !sess.Crypted() {
			return 0, &tiverr.NoKeyError{PID: int(h.pid)}
		}

		payload := buf[h.payloadOffset:]
		if h.payloadUnitStart {
			// The PES header that opens this payload stays in the clear;
			// only the bytes after it are ciphertext. Skip the keystream
			// across the header without applying it, then decrypt the rest.
			if len(payload) < 9 {
				return 0, &tiverr.HeaderError{Reason: "TS payload-unit-start packet too short for PES header"}
			}
			pesHeaderLength := int(payload[8])
			clearLen := 9 + pesHeaderLength
			if clearLen > len(payload) {
				clearLen = len(payload)
			}
			if err := sess.Skip(clearLen); err != nil {
				return 0, err
			}
			if err := sess.Decrypt(payload[clearLen:]); err != nil {
				return 0, err
			}
		} else {
			// A continuation packet carries no PES header of its own: the
			// whole payload is ciphertext, decrypted from wherever the
			// session's cursor last left off.
			if err := sess.Decrypt(payload); err != nil {
				return 0, err
			}
		}
		buf[3] &^= 0xC0 // clear transport_scrambling_control
	} else if d.cfg.NoVideo && d.videoPIDs[h.pid] {
		return 0, nil
	}

	n, err := d.dst.Write(buf)
	return int64(n), err
}

// sectionPayload strips the pointer_field present at the start of a
// payload-unit-start section packet, per ISO/IEC 13818-1's
// pointer_field convention.
func sectionPayload(buf []byte, h packetHeader) []byte {
	start := h.payloadOffset
	if h.payloadUnitStart && start < len(buf) {
		pointer := int(buf[start])
		start += 1 + pointer
	}
	if start >= len(buf) {
		return nil
	}
	return buf[start:]
}

// trackPAT parses a Program Association Table section to discover every
// program's PMT PID.
func (d *Demuxer) trackPAT(buf []byte, h packetHeader) {
	sec := sectionPayload(buf, h)
	if len(sec) < 8 {
		return
	}
	sectionLength := int(binary.BigEndian.Uint16(sec[1:3]) & 0x0FFF)
	end := 3 + sectionLength - 4 // drop trailing CRC32
	if end > len(sec) {
		end = len(sec)
	}
	for i := 8; i+4 <= end; i += 4 {
		programNumber := binary.BigEndian.Uint16(sec[i : i+2])
		pmtPID := binary.BigEndian.Uint16(sec[i+2:i+4]) & 0x1FFF
		if programNumber != 0 { // skip the network-PID entry
			d.pmtPIDs[pmtPID] = true
		}
	}
}

// trackPMT parses a Program Map Table section to classify every
// elementary stream PID, recognizing the TiVo private-section stream type.
func (d *Demuxer) trackPMT(buf []byte, h packetHeader) {
	sec := sectionPayload(buf, h)
	if len(sec) < 12 {
		return
	}
	sectionLength := int(binary.BigEndian.Uint16(sec[1:3]) & 0x0FFF)
	programInfoLength := int(binary.BigEndian.Uint16(sec[10:12]) & 0x0FFF)
	end := 3 + sectionLength - 4
	if end > len(sec) {
		end = len(sec)
	}
	i := 12 + programInfoLength
	for i+5 <= end {
		streamType := sec[i]
		elementaryPID := binary.BigEndian.Uint16(sec[i+1:i+3]) & 0x1FFF
		esInfoLength := int(binary.BigEndian.Uint16(sec[i+3:i+5]) & 0x0FFF)

		switch {
		case streamType == tivoPrivateStreamType:
			d.privatePID = elementaryPID
			d.havePrivate = true
		case isVideoStreamType(streamType):
			d.videoPIDs[elementaryPID] = true
			d.elementaryPIDs[elementaryPID] = true
		case isAudioStreamType(streamType):
			d.audioPIDs[elementaryPID] = true
			d.elementaryPIDs[elementaryPID] = true
		}
		i += 5 + esInfoLength
	}
}

func isVideoStreamType(t byte) bool {
	switch t {
	case 0x01, 0x02, 0x10, 0x1B, 0x24:
		return true
	}
	return false
}

func isAudioStreamType(t byte) bool {
	switch t {
	case 0x03, 0x04, 0x0F, 0x11, 0x81:
		return true
	}
	return false
}

// tivoKeyPayloadSize is the length of the TiVo key packet's payload within
// the private section, matching psdemux's PS-side layout.
const tivoKeyPayloadSize = 24

// handlePrivateSection extracts a TiVo key payload from the private PID's
// section data and rekeys the target PID's own session, creating it on
// first sight of that PID.
func (d *Demuxer) handlePrivateSection(buf []byte, h packetHeader) error {
	sec := sectionPayload(buf, h)
	// TiVo's private section is a short, fixed-format table: 3-byte
	// section header, a 2-byte target PID, then the 24-byte key payload.
	const sectionHeaderLen = 3
	const targetPIDLen = 2
	offset := sectionHeaderLen + targetPIDLen
	if len(sec) < offset+tivoKeyPayloadSize {
		if d.cfg.Logger != nil {
			d.cfg.Logger.Warn("TiVo private section too short for key payload", "len", len(sec))
		}
		return nil
	}
	targetPID := binary.BigEndian.Uint16(sec[sectionHeaderLen:offset]) & 0x1FFF
	key := sec[offset : offset+tivoKeyPayloadSize]

	blockNo := binary.BigEndian.Uint32(key[0:4])
	crypted := binary.BigEndian.Uint32(key[4:8])
	var salt [4]byte
	copy(salt[:], key[8:12])
	var turingKey [16]byte
	copy(turingKey[:], key[8:24])

	sess, ok := d.sessions[targetPID]
	if !ok {
		sess = keystream.New(d.mak)
		d.sessions[targetPID] = sess
	}
	return sess.Rekey(blockNo, byte(targetPID), crypted != 0, salt, turingKey)
}
