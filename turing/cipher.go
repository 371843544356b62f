// Copyright (c) 2024 tivodecode-go contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package turing implements the Turing word-oriented stream cipher: a
// 17-word LFSR combined with a keyed non-linear filter built from four
// 256-entry S-boxes. The key schedule, IV load, and block generator follow
// Rose & Hawkes, "Turing: a Fast Stream Cipher" (FSE 2003).
package turing

import "fmt"

const (
	lfsrLen    = 17
	// MaxKey is the largest key size, in bytes, the cipher accepts.
	MaxKey = 32
	// MaxKIV is the combined limit, in bytes, on key length plus IV length.
	MaxKIV     = 48
	confounder = 0x01020300
)

// KeySizeError reports a key or IV whose length violates the cipher's
// constraints (see Cipher.Key and Cipher.IV).
type KeySizeError string

func (k KeySizeError) Error() string {
	return "turing: " + string(k)
}

// Cipher is a Turing cipher instance. The zero value is not keyed; call Key
// then IV before Generate. Cipher is not safe for concurrent use — callers
// needing one keystream per logical stream should hold one Cipher per
// stream, as keystream.Session does.
type Cipher struct {
	key    [8]uint32
	keylen int
	s0     [256]uint32
	s1     [256]uint32
	s2     [256]uint32
	s3     [256]uint32
	reg    [lfsrLen]uint32
}

// Key runs the key schedule: it folds k into the premixed key words and
// builds the four keyed S-box lookup tables. Length must be a multiple of
// 4 and at most MaxKey; a prior key schedule (and any derived S-boxes) is
// replaced in full.
func (c *Cipher) Key(k []byte) error {
	if len(k)%4 != 0 {
		return KeySizeError("key size must be a multiple of 4")
	}
	if len(k) > MaxKey {
		return KeySizeError(fmt.Sprintf("key size must be <= %d", MaxKey))
	}

	c.keylen = len(k) / 4
	for i := 0; i < c.keylen; i++ {
		c.key[i] = fixedS(wordAt(k, i*4))
	}
	mixwords(c.key[:c.keylen])

	for lane := 0; lane < 4; lane++ {
		s := c.sbox(lane)
		for j := 0; j < 256; j++ {
			kk := byte(j)
			var w uint32
			for i := 0; i < c.keylen; i++ {
				kk = sbox[byteAt(c.key[i], lane)^kk]
				w ^= rotl(qbox[kk], uint(i)+8*uint(lane))
			}
			shift := 8 * uint(3-lane)
			mask := ^(uint32(0xFF) << shift)
			s[j] = (w & mask) | (uint32(kk) << shift)
		}
	}
	return nil
}

func (c *Cipher) sbox(lane int) *[256]uint32 {
	switch lane {
	case 0:
		return &c.s0
	case 1:
		return &c.s1
	case 2:
		return &c.s2
	default:
		return &c.s3
	}
}

// IV loads the initialization vector into the LFSR register. Key must have
// been called first. Length must be a multiple of 4, and len(iv)+4*keylen
// must not exceed MaxKIV. IV may be called repeatedly to re-synchronise the
// cipher (e.g. per keystream block) without re-running the key schedule.
func (c *Cipher) IV(iv []byte) error {
	if len(iv)%4 != 0 {
		return KeySizeError("iv size must be a multiple of 4")
	}
	if len(iv)+4*c.keylen > MaxKIV {
		return KeySizeError(fmt.Sprintf("combined key and iv sizes must be <= %d", MaxKIV))
	}

	var r [lfsrLen]uint32
	i := 0
	for j := 0; j < len(iv); j += 4 {
		r[i] = fixedS(wordAt(iv, j))
		i++
	}
	for j := 0; j < c.keylen; j++ {
		r[i] = c.key[j]
		i++
	}
	r[i] = uint32(c.keylen<<4) | uint32(len(iv)/4) | confounder
	i++
	for j := 0; i < lfsrLen; i, j = i+1, j+1 {
		r[i] = c.keyedS(r[j]+r[i-1], 0)
	}
	mixwords(r[:])
	c.reg = r
	return nil
}

// keyedS pushes word w through the four keyed S-boxes with a per-lane
// rotation offset of b bytes, as defined by the cipher's S(w,b) macro.
func (c *Cipher) keyedS(w uint32, b uint) uint32 {
	return c.s0[byteAt(w, int((0+b)&3))] ^
		c.s1[byteAt(w, int((1+b)&3))] ^
		c.s2[byteAt(w, int((2+b)&3))] ^
		c.s3[byteAt(w, int((3+b)&3))]
}

func (c *Cipher) step(z int) {
	off0 := z % lfsrLen
	off15 := (z + 15) % lfsrLen
	off4 := (z + 4) % lfsrLen
	c.reg[off0] = c.reg[off15] ^ c.reg[off4] ^ (c.reg[off0] << 8) ^ mtab[c.reg[off0]>>24]
}

// roundOrigins is the fixed sequence of 17 LFSR origins used by Generate,
// advancing by 5 each round (gcd(5,17)=1) so all 17 residues are visited
// exactly once. This ordering is part of the cipher's output and must not
// be reordered.
var roundOrigins = [lfsrLen]int{0, 5, 10, 15, 3, 8, 13, 1, 6, 11, 16, 4, 9, 14, 2, 7, 12}

// Generate produces the next 340-byte keystream block (17 rounds of 20
// bytes each). It is deterministic given the cipher's current key and LFSR
// state. Each call advances the LFSR, so a second call without an
// intervening IV produces the following block, not a repeat of the first.
func (c *Cipher) Generate() [340]byte {
	var out [340]byte
	off := 0
	for _, z := range roundOrigins {
		c.step(z)
		a := c.reg[(z+1+16)%lfsrLen]
		b := c.reg[(z+1+13)%lfsrLen]
		cc := c.reg[(z+1+6)%lfsrLen]
		d := c.reg[(z+1+1)%lfsrLen]
		e := c.reg[(z+1+0)%lfsrLen]

		a, b, cc, d, e = pht(a, b, cc, d, e)
		a = c.keyedS(a, 0)
		b = c.keyedS(b, 1)
		cc = c.keyedS(cc, 2)
		d = c.keyedS(d, 3)
		e = c.keyedS(e, 0)
		a, b, cc, d, e = pht(a, b, cc, d, e)

		c.step(z + 1)
		c.step(z + 2)
		c.step(z + 3)

		a += c.reg[(z+4+14)%lfsrLen]
		b += c.reg[(z+4+12)%lfsrLen]
		cc += c.reg[(z+4+8)%lfsrLen]
		d += c.reg[(z+4+1)%lfsrLen]
		e += c.reg[(z+4+0)%lfsrLen]

		putWord(out[off:], a)
		putWord(out[off+4:], b)
		putWord(out[off+8:], cc)
		putWord(out[off+12:], d)
		putWord(out[off+16:], e)

		c.step(z + 4)
		off += 20
	}
	return out
}

// Reset zeroes all key-derived state, making a best-effort attempt to
// scrub key material from memory.
func (c *Cipher) Reset() {
	c.keylen = 0
	for i := range c.key {
		c.key[i] = 0
	}
	for i := range c.s0 {
		c.s0[i], c.s1[i], c.s2[i], c.s3[i] = 0, 0, 0, 0
	}
	for i := range c.reg {
		c.reg[i] = 0
	}
}
