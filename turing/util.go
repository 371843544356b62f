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

package turing

// byteAt returns byte i of w, with byte 0 being the most significant.
func byteAt(w uint32, i int) byte {
	return byte(w >> uint(24-8*i))
}

func wordAt(b []byte, off int) uint32 {
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

func putWord(b []byte, w uint32) {
	b[0] = byte(w >> 24)
	b[1] = byte(w >> 16)
	b[2] = byte(w >> 8)
	b[3] = byte(w)
}

func rotl(w uint32, shift uint) uint32 {
	shift &= 31
	return (w << shift) | (w >> (32 - shift))
}

// fixedS is a reversible permutation of a 32-bit word through the fixed
// (unkeyed) S-box and Q-box, used to ingest raw key and IV material. Its
// reversibility is not exercised by the cipher; it only guarantees that no
// information is lost, so distinct keys/IVs cannot collide through this step.
func fixedS(w uint32) uint32 {
	for i := uint(0); i < 4; i++ {
		b := sbox[byteAt(w, int(i))]
		shift := 8 * i
		q := rotl(qbox[b], shift)
		outShift := 8 * (3 - i)
		mask := ^(uint32(0xFF) << outShift)
		w = ((w ^ q) & mask) | (uint32(b) << outShift)
	}
	return w
}

// pht applies the pseudo-Hadamard transform to five words in place:
// e gathers the sum of all five, then each of a..d absorbs it.
func pht(a, b, c, d, e uint32) (uint32, uint32, uint32, uint32, uint32) {
	e += a + b + c + d
	a += e
	b += e
	c += e
	d += e
	return a, b, c, d, e
}

// mixwords applies the general word-wide n-word PHT used to mix the
// premixed key and the freshly-loaded LFSR register.
func mixwords(w []uint32) {
	n := len(w)
	if n == 0 {
		return
	}
	var sum uint32
	for i := 0; i < n-1; i++ {
		sum += w[i]
	}
	w[n-1] += sum
	sum = w[n-1]
	for i := 0; i < n-1; i++ {
		w[i] += sum
	}
}
