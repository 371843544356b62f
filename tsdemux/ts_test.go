package tsdemux

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/tiverr"
)

func packet(pid uint16, payloadStart bool, scrambling byte, payload []byte) []byte {
	buf := make([]byte, packetSize)
	buf[0] = syncByte
	buf[1] = byte(pid >> 8 & 0x1F)
	if payloadStart {
		buf[1] |= 0x40
	}
	buf[2] = byte(pid)
	buf[3] = 0x10 | (scrambling << 6) // payload present, no adaptation field
	copy(buf[4:], payload)
	return buf
}

func TestParsePacketHeaderRejectsBadSync(t *testing.T) {
	buf := make([]byte, packetSize)
	buf[0] = 0x00
	if _, err := parsePacketHeader(buf); err == nil {
		t.Fatal("expected error for bad sync byte")
	}
}

func TestParsePacketHeaderPID(t *testing.T) {
	buf := packet(0x0100, true, 0, nil)
	h, err := parsePacketHeader(buf)
	if err != nil {
		t.Fatalf("parsePacketHeader: %v", err)
	}
	if h.pid != 0x0100 {
		t.Fatalf("pid = %#x, want 0x100", h.pid)
	}
	if !h.payloadUnitStart {
		t.Fatal("expected payloadUnitStart")
	}
}

func TestDemuxerPassesUnscrambledPacketThrough(t *testing.T) {
	pkt := packet(0x0100, false, 0, []byte{1, 2, 3, 4})
	src := bytesource.New(bytes.NewReader(pkt))
	var out bytes.Buffer
	d := New(src, &out, "1234567890", Config{})

	n, err := d.Process()
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n != packetSize {
		t.Fatalf("wrote %d bytes, want %d", n, packetSize)
	}
	if !bytes.Equal(out.Bytes(), pkt) {
		t.Fatal("unscrambled packet mutated")
	}
}

func TestDemuxerRejectsScrambledPacketWithoutKey(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 184)
	pkt := packet(0x0100, false, 0x02, payload)
	src := bytesource.New(bytes.NewReader(pkt))
	d := New(src, &bytes.Buffer{}, "1234567890", Config{})

	_, err := d.Process()
	var noKey *tiverr.NoKeyError
	if !errors.As(err, &noKey) {
		t.Fatalf("Process error = %v, want *tiverr.NoKeyError", err)
	}
}

func TestDemuxerDecryptsContinuationPacketFromCursor(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 184)
	pkt := packet(0x0100, false, 0x02, payload)
	src := bytesource.New(bytes.NewReader(pkt))
	var out bytes.Buffer
	d := New(src, &out, "1234567890", Config{})
	rekeyPID(t, d, 0x0100)

	if _, err := d.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := out.Bytes()
	if got[3]&0xC0 != 0 {
		t.Fatalf("scrambling_control bits not cleared: %08b", got[3])
	}
	if bytes.Equal(got[4:], payload) {
		t.Fatal("scrambled payload was not modified")
	}
}

func TestDemuxerLeavesPESHeaderInClearOnPayloadUnitStart(t *testing.T) {
	// PES header: start code, stream_id, PES_packet_length(2), flags(2),
	// PES_header_data_length=0, then ciphertext.
	header := []byte{0x00, 0x00, 0x01, 0xE0, 0x00, 0x00, 0x80, 0x00, 0x00}
	cipher := bytes.Repeat([]byte{0xCD}, 175)
	payload := append(append([]byte{}, header...), cipher...)
	pkt := packet(0x0100, true, 0x02, payload)
	src := bytesource.New(bytes.NewReader(pkt))
	var out bytes.Buffer
	d := New(src, &out, "1234567890", Config{})
	rekeyPID(t, d, 0x0100)

	if _, err := d.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := out.Bytes()
	if !bytes.Equal(got[4:4+len(header)], header) {
		t.Fatalf("PES header was modified: got %x, want %x", got[4:4+len(header)], header)
	}
	if bytes.Equal(got[4+len(header):], cipher) {
		t.Fatal("ciphertext after the PES header was not decrypted")
	}
}

func TestDemuxerResyncsPastGarbageBytes(t *testing.T) {
	good := packet(0x0100, false, 0, []byte{1, 2, 3, 4})
	garbage := append([]byte{0xFF, 0xFF, 0xFF}, good...)
	src := bytesource.New(bytes.NewReader(garbage))
	var out bytes.Buffer
	d := New(src, &out, "1234567890", Config{})

	if _, err := d.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !bytes.Equal(out.Bytes(), good) {
		t.Fatalf("output = %x, want realigned packet %x", out.Bytes(), good)
	}
}

func TestTrackPATDiscoversPMTPID(t *testing.T) {
	// PAT section: table_id(1) + section_length(2, 13 bytes follow) +
	// tsid/version/section/last(5) + program_number(2) + pmt_pid(2) + crc(4)
	section := []byte{
		0x00,       // table_id
		0xB0, 0x0D, // section_length = 13
		0x00, 0x01, // transport_stream_id
		0xC1,       // version/current_next
		0x00, 0x00, // section/last section number
		0x00, 0x01, // program_number = 1
		0xE1, 0x00, // pmt_pid = 0x100
		0x00, 0x00, 0x00, 0x00, // crc placeholder
	}
	buf := make([]byte, packetSize)
	buf[0] = syncByte
	buf[1] = 0x40 // payload unit start, PID hi = 0
	buf[2] = 0x00
	buf[3] = 0x10
	buf[4] = 0x00 // pointer_field
	copy(buf[5:], section)

	d := New(bytesource.New(bytes.NewReader(nil)), &bytes.Buffer{}, "1234567890", Config{})
	h, err := parsePacketHeader(buf)
	if err != nil {
		t.Fatalf("parsePacketHeader: %v", err)
	}
	d.trackPAT(buf, h)

	if !d.pmtPIDs[0x0100] {
		t.Fatalf("expected PMT PID 0x100 to be discovered, got %v", d.pmtPIDs)
	}
}

// rekeyPID seeds a keyed session for pid directly, standing in for a TiVo
// private-section packet the test doesn't otherwise construct.
func rekeyPID(t *testing.T, d *Demuxer, pid uint16) {
	t.Helper()
	sec := make([]byte, 3+2+tivoKeyPayloadSize)
	sec[3] = byte(pid >> 8)
	sec[4] = byte(pid)
	key := sec[5:]
	key[7] = 1 // crypted field (key[4:8]) non-zero
	buf := make([]byte, packetSize)
	buf[0] = syncByte
	buf[1] = 0x40 // payload unit start
	buf[3] = 0x10 // payload present, no adaptation field
	buf[4] = 0x00 // pointer_field
	copy(buf[5:], sec)
	h, err := parsePacketHeader(buf)
	if err != nil {
		t.Fatalf("parsePacketHeader: %v", err)
	}
	if err := d.handlePrivateSection(buf, h); err != nil {
		t.Fatalf("handlePrivateSection: %v", err)
	}
}
