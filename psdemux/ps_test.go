package psdemux

import (
	"bytes"
	"testing"

	"github.com/tivostream/tivodecode-go/bytesource"
	"github.com/tivostream/tivodecode-go/keystream"
)

func packHeader() []byte {
	// 00 00 01 BA + 9 fixed bytes with stuffing_length=0 in the low 3 bits.
	return []byte{0x00, 0x00, 0x01, 0xBA, 1, 2, 3, 4, 5, 6, 7, 8, 0x00}
}

func TestDemuxerPassesPackHeaderThrough(t *testing.T) {
	in := packHeader()
	src := bytesource.New(bytes.NewReader(in))
	var out bytes.Buffer
	d := New(src, &out, keystream.New("1234567890"), Config{})

	n, err := d.Process()
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n != int64(len(in)) {
		t.Fatalf("wrote %d bytes, want %d", n, len(in))
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Fatalf("pack header mutated: got %x want %x", out.Bytes(), in)
	}
}

func TestDemuxerUnscrambledPESPassesThrough(t *testing.T) {
	// A minimal audio PES packet with an optional header whose
	// scrambling_control bits are zero: payload should pass unchanged.
	optional := []byte{0x80, 0x00, 0x00} // scrambling=00, flags=0, header_data_length=0
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	body := append(append([]byte{}, optional...), payload...)
	pkt := []byte{0x00, 0x00, 0x01, 0xC0, 0x00, byte(len(body))}
	pkt = append(pkt, body...)

	src := bytesource.New(bytes.NewReader(pkt))
	var out bytes.Buffer
	d := New(src, &out, keystream.New("1234567890"), Config{})

	if _, err := d.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !bytes.Equal(out.Bytes(), pkt) {
		t.Fatalf("unscrambled PES mutated: got %x want %x", out.Bytes(), pkt)
	}
}

func TestDemuxerScrambledPESDecrypts(t *testing.T) {
	// scrambling_control = 10 (even key), header_data_length = 0.
	optional := []byte{0x80 | (2 << 4), 0x00, 0x00}
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	body := append(append([]byte{}, optional...), payload...)
	pkt := []byte{0x00, 0x00, 0x01, 0xE0, 0x00, byte(len(body))}
	pkt = append(pkt, body...)

	src := bytesource.New(bytes.NewReader(pkt))
	var out bytes.Buffer
	sess := keystream.New("1234567890")
	d := New(src, &out, sess, Config{})

	if _, err := d.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := out.Bytes()
	if len(got) != len(pkt) {
		t.Fatalf("output length = %d, want %d", len(got), len(pkt))
	}
	// Header's scrambling bits must be cleared in the output copy.
	if got[6]&0x30 != 0 {
		t.Fatalf("scrambling_control bits not cleared: %08b", got[6])
	}
	// Payload must differ from the plaintext (it was XORed by a keystream).
	if bytes.Equal(got[9:], payload) {
		t.Fatalf("scrambled PES payload was not modified")
	}
}

func TestDemuxerSkipsVideoWhenNoVideo(t *testing.T) {
	optional := []byte{0x80, 0x00, 0x00}
	payload := []byte{0x01, 0x02, 0x03}
	body := append(append([]byte{}, optional...), payload...)
	pkt := []byte{0x00, 0x00, 0x01, 0xE5, 0x00, byte(len(body))}
	pkt = append(pkt, body...)

	src := bytesource.New(bytes.NewReader(pkt))
	var out bytes.Buffer
	d := New(src, &out, keystream.New("1234567890"), Config{NoVideo: true})

	n, err := d.Process()
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n != 0 || out.Len() != 0 {
		t.Fatalf("expected no output with NoVideo, got %d bytes", out.Len())
	}
}

func TestIsTiVoPrivateAndStreamClass(t *testing.T) {
	cases := []struct {
		id                       byte
		private, video, audio bool
	}{
		{0xBA, false, false, false},
		{0xBC, true, false, false},
		{0xBF, true, false, false},
		{0xFD, true, false, false},
		{0xE0, false, true, false},
		{0xEF, false, true, false},
		{0xC0, false, false, true},
		{0xDF, false, false, true},
	}
	for _, c := range cases {
		if got := isTiVoPrivate(c.id); got != c.private {
			t.Errorf("isTiVoPrivate(%#x) = %v, want %v", c.id, got, c.private)
		}
		if got := isVideo(c.id); got != c.video {
			t.Errorf("isVideo(%#x) = %v, want %v", c.id, got, c.video)
		}
		if got := isAudio(c.id); got != c.audio {
			t.Errorf("isAudio(%#x) = %v, want %v", c.id, got, c.audio)
		}
	}
}
