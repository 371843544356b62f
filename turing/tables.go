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

// Fixed compile-time cipher tables: sbox is the Rijndael (AES) substitution
// box. qbox and mtab are GF(2^8)-based word-expansion tables built with a
// fixed MDS-style diffusion matrix, generated once and shipped as constants
// (see DESIGN.md for how these were derived and why).

var sbox = [256]byte{
	0x63, 0x7c, 0x77, 0x7b, 0xf2, 0x6b, 0x6f, 0xc5, 0x30, 0x01, 0x67, 0x2b, 0xfe, 0xd7, 0xab, 0x76,
	0xca, 0x82, 0xc9, 0x7d, 0xfa, 0x59, 0x47, 0xf0, 0xad, 0xd4, 0xa2, 0xaf, 0x9c, 0xa4, 0x72, 0xc0,
	0xb7, 0xfd, 0x93, 0x26, 0x36, 0x3f, 0xf7, 0xcc, 0x34, 0xa5, 0xe5, 0xf1, 0x71, 0xd8, 0x31, 0x15,
	0x04, 0xc7, 0x23, 0xc3, 0x18, 0x96, 0x05, 0x9a, 0x07, 0x12, 0x80, 0xe2, 0xeb, 0x27, 0xb2, 0x75,
	0x09, 0x83, 0x2c, 0x1a, 0x1b, 0x6e, 0x5a, 0xa0, 0x52, 0x3b, 0xd6, 0xb3, 0x29, 0xe3, 0x2f, 0x84,
	0x53, 0xd1, 0x00, 0xed, 0x20, 0xfc, 0xb1, 0x5b, 0x6a, 0xcb, 0xbe, 0x39, 0x4a, 0x4c, 0x58, 0xcf,
	0xd0, 0xef, 0xaa, 0xfb, 0x43, 0x4d, 0x33, 0x85, 0x45, 0xf9, 0x02, 0x7f, 0x50, 0x3c, 0x9f, 0xa8,
	0x51, 0xa3, 0x40, 0x8f, 0x92, 0x9d, 0x38, 0xf5, 0xbc, 0xb6, 0xda, 0x21, 0x10, 0xff, 0xf3, 0xd2,
	0xcd, 0x0c, 0x13, 0xec, 0x5f, 0x97, 0x44, 0x17, 0xc4, 0xa7, 0x7e, 0x3d, 0x64, 0x5d, 0x19, 0x73,
	0x60, 0x81, 0x4f, 0xdc, 0x22, 0x2a, 0x90, 0x88, 0x46, 0xee, 0xb8, 0x14, 0xde, 0x5e, 0x0b, 0xdb,
	0xe0, 0x32, 0x3a, 0x0a, 0x49, 0x06, 0x24, 0x5c, 0xc2, 0xd3, 0xac, 0x62, 0x91, 0x95, 0xe4, 0x79,
	0xe7, 0xc8, 0x37, 0x6d, 0x8d, 0xd5, 0x4e, 0xa9, 0x6c, 0x56, 0xf4, 0xea, 0x65, 0x7a, 0xae, 0x08,
	0xba, 0x78, 0x25, 0x2e, 0x1c, 0xa6, 0xb4, 0xc6, 0xe8, 0xdd, 0x74, 0x1f, 0x4b, 0xbd, 0x8b, 0x8a,
	0x70, 0x3e, 0xb5, 0x66, 0x48, 0x03, 0xf6, 0x0e, 0x61, 0x35, 0x57, 0xb9, 0x86, 0xc1, 0x1d, 0x9e,
	0xe1, 0xf8, 0x98, 0x11, 0x69, 0xd9, 0x8e, 0x94, 0x9b, 0x1e, 0x87, 0xe9, 0xce, 0x55, 0x28, 0xdf,
	0x8c, 0xa1, 0x89, 0x0d, 0xbf, 0xe6, 0x42, 0x68, 0x41, 0x99, 0x2d, 0x0f, 0xb0, 0x54, 0xbb, 0x16,
}

var qbox = [256]uint32{
	0xc6a56363, 0xf8847c7c, 0xee997777, 0xf68d7b7b, 0xff0df2f2, 0xd6bd6b6b,
	0xdeb16f6f, 0x9154c5c5, 0x60503030, 0x02030101, 0xcea96767, 0x567d2b2b,
	0xe719fefe, 0xb562d7d7, 0x4de6abab, 0xec9a7676, 0x8f45caca, 0x1f9d8282,
	0x8940c9c9, 0xfa877d7d, 0xef15fafa, 0xb2eb5959, 0x8ec94747, 0xfb0bf0f0,
	0x41ecadad, 0xb367d4d4, 0x5ffda2a2, 0x45eaafaf, 0x23bf9c9c, 0x53f7a4a4,
	0xe4967272, 0x9b5bc0c0, 0x75c2b7b7, 0xe11cfdfd, 0x3dae9393, 0x4c6a2626,
	0x6c5a3636, 0x7e413f3f, 0xf502f7f7, 0x834fcccc, 0x685c3434, 0x51f4a5a5,
	0xd134e5e5, 0xf908f1f1, 0xe2937171, 0xab73d8d8, 0x62533131, 0x2a3f1515,
	0x080c0404, 0x9552c7c7, 0x46652323, 0x9d5ec3c3, 0x30281818, 0x37a19696,
	0x0a0f0505, 0x2fb59a9a, 0x0e090707, 0x24361212, 0x1b9b8080, 0xdf3de2e2,
	0xcd26ebeb, 0x4e692727, 0x7fcdb2b2, 0xea9f7575, 0x121b0909, 0x1d9e8383,
	0x58742c2c, 0x342e1a1a, 0x362d1b1b, 0xdcb26e6e, 0xb4ee5a5a, 0x5bfba0a0,
	0xa4f65252, 0x764d3b3b, 0xb761d6d6, 0x7dceb3b3, 0x527b2929, 0xdd3ee3e3,
	0x5e712f2f, 0x13978484, 0xa6f55353, 0xb968d1d1, 0x00000000, 0xc12ceded,
	0x40602020, 0xe31ffcfc, 0x79c8b1b1, 0xb6ed5b5b, 0xd4be6a6a, 0x8d46cbcb,
	0x67d9bebe, 0x724b3939, 0x94de4a4a, 0x98d44c4c, 0xb0e85858, 0x854acfcf,
	0xbb6bd0d0, 0xc52aefef, 0x4fe5aaaa, 0xed16fbfb, 0x86c54343, 0x9ad74d4d,
	0x66553333, 0x11948585, 0x8acf4545, 0xe910f9f9, 0x04060202, 0xfe817f7f,
	0xa0f05050, 0x78443c3c, 0x25ba9f9f, 0x4be3a8a8, 0xa2f35151, 0x5dfea3a3,
	0x80c04040, 0x058a8f8f, 0x3fad9292, 0x21bc9d9d, 0x70483838, 0xf104f5f5,
	0x63dfbcbc, 0x77c1b6b6, 0xaf75dada, 0x42632121, 0x20301010, 0xe51affff,
	0xfd0ef3f3, 0xbf6dd2d2, 0x814ccdcd, 0x18140c0c, 0x26351313, 0xc32fecec,
	0xbee15f5f, 0x35a29797, 0x88cc4444, 0x2e391717, 0x9357c4c4, 0x55f2a7a7,
	0xfc827e7e, 0x7a473d3d, 0xc8ac6464, 0xbae75d5d, 0x322b1919, 0xe6957373,
	0xc0a06060, 0x19988181, 0x9ed14f4f, 0xa37fdcdc, 0x44662222, 0x547e2a2a,
	0x3bab9090, 0x0b838888, 0x8cca4646, 0xc729eeee, 0x6bd3b8b8, 0x283c1414,
	0xa779dede, 0xbce25e5e, 0x161d0b0b, 0xad76dbdb, 0xdb3be0e0, 0x64563232,
	0x744e3a3a, 0x141e0a0a, 0x92db4949, 0x0c0a0606, 0x486c2424, 0xb8e45c5c,
	0x9f5dc2c2, 0xbd6ed3d3, 0x43efacac, 0xc4a66262, 0x39a89191, 0x31a49595,
	0xd337e4e4, 0xf28b7979, 0xd532e7e7, 0x8b43c8c8, 0x6e593737, 0xdab76d6d,
	0x018c8d8d, 0xb164d5d5, 0x9cd24e4e, 0x49e0a9a9, 0xd8b46c6c, 0xacfa5656,
	0xf307f4f4, 0xcf25eaea, 0xcaaf6565, 0xf48e7a7a, 0x47e9aeae, 0x10180808,
	0x6fd5baba, 0xf0887878, 0x4a6f2525, 0x5c722e2e, 0x38241c1c, 0x57f1a6a6,
	0x73c7b4b4, 0x9751c6c6, 0xcb23e8e8, 0xa17cdddd, 0xe89c7474, 0x3e211f1f,
	0x96dd4b4b, 0x61dcbdbd, 0x0d868b8b, 0x0f858a8a, 0xe0907070, 0x7c423e3e,
	0x71c4b5b5, 0xccaa6666, 0x90d84848, 0x06050303, 0xf701f6f6, 0x1c120e0e,
	0xc2a36161, 0x6a5f3535, 0xaef95757, 0x69d0b9b9, 0x17918686, 0x9958c1c1,
	0x3a271d1d, 0x27b99e9e, 0xd938e1e1, 0xeb13f8f8, 0x2bb39898, 0x22331111,
	0xd2bb6969, 0xa970d9d9, 0x07898e8e, 0x33a79494, 0x2db69b9b, 0x3c221e1e,
	0x15928787, 0xc920e9e9, 0x8749cece, 0xaaff5555, 0x50782828, 0xa57adfdf,
	0x038f8c8c, 0x59f8a1a1, 0x09808989, 0x1a170d0d, 0x65dabfbf, 0xd731e6e6,
	0x84c64242, 0xd0b86868, 0x82c34141, 0x29b09999, 0x5a772d2d, 0x1e110f0f,
	0x7bcbb0b0, 0xa8fc5454, 0x6dd6bbbb, 0x2c3a1616,
}

var mtab = [256]uint32{
	0x00000000, 0x0305070b, 0x060a0e16, 0x050f091d, 0x0c141c2c, 0x0f111b27,
	0x0a1e123a, 0x091b1531, 0x18283858, 0x1b2d3f53, 0x1e22364e, 0x1d273145,
	0x143c2474, 0x1739237f, 0x12362a62, 0x11332d69, 0x305070b0, 0x335577bb,
	0x365a7ea6, 0x355f79ad, 0x3c446c9c, 0x3f416b97, 0x3a4e628a, 0x394b6581,
	0x287848e8, 0x2b7d4fe3, 0x2e7246fe, 0x2d7741f5, 0x246c54c4, 0x276953cf,
	0x22665ad2, 0x21635dd9, 0x60a0e07b, 0x63a5e770, 0x66aaee6d, 0x65afe966,
	0x6cb4fc57, 0x6fb1fb5c, 0x6abef241, 0x69bbf54a, 0x7888d823, 0x7b8ddf28,
	0x7e82d635, 0x7d87d13e, 0x749cc40f, 0x7799c304, 0x7296ca19, 0x7193cd12,
	0x50f090cb, 0x53f597c0, 0x56fa9edd, 0x55ff99d6, 0x5ce48ce7, 0x5fe18bec,
	0x5aee82f1, 0x59eb85fa, 0x48d8a893, 0x4bddaf98, 0x4ed2a685, 0x4dd7a18e,
	0x44ccb4bf, 0x47c9b3b4, 0x42c6baa9, 0x41c3bda2, 0xc05bdbf6, 0xc35edcfd,
	0xc651d5e0, 0xc554d2eb, 0xcc4fc7da, 0xcf4ac0d1, 0xca45c9cc, 0xc940cec7,
	0xd873e3ae, 0xdb76e4a5, 0xde79edb8, 0xdd7ceab3, 0xd467ff82, 0xd762f889,
	0xd26df194, 0xd168f69f, 0xf00bab46, 0xf30eac4d, 0xf601a550, 0xf504a25b,
	0xfc1fb76a, 0xff1ab061, 0xfa15b97c, 0xf910be77, 0xe823931e, 0xeb269415,
	0xee299d08, 0xed2c9a03, 0xe4378f32, 0xe7328839, 0xe23d8124, 0xe138862f,
	0xa0fb3b8d, 0xa3fe3c86, 0xa6f1359b, 0xa5f43290, 0xacef27a1, 0xafea20aa,
	0xaae529b7, 0xa9e02ebc, 0xb8d303d5, 0xbbd604de, 0xbed90dc3, 0xbddc0ac8,
	0xb4c71ff9, 0xb7c218f2, 0xb2cd11ef, 0xb1c816e4, 0x90ab4b3d, 0x93ae4c36,
	0x96a1452b, 0x95a44220, 0x9cbf5711, 0x9fba501a, 0x9ab55907, 0x99b05e0c,
	0x88837365, 0x8b86746e, 0x8e897d73, 0x8d8c7a78, 0x84976f49, 0x87926842,
	0x829d615f, 0x81986654, 0x9bb6adf7, 0x98b3aafc, 0x9dbca3e1, 0x9eb9a4ea,
	0x97a2b1db, 0x94a7b6d0, 0x91a8bfcd, 0x92adb8c6, 0x839e95af, 0x809b92a4,
	0x85949bb9, 0x86919cb2, 0x8f8a8983, 0x8c8f8e88, 0x89808795, 0x8a85809e,
	0xabe6dd47, 0xa8e3da4c, 0xadecd351, 0xaee9d45a, 0xa7f2c16b, 0xa4f7c660,
	0xa1f8cf7d, 0xa2fdc876, 0xb3cee51f, 0xb0cbe214, 0xb5c4eb09, 0xb6c1ec02,
	0xbfdaf933, 0xbcdffe38, 0xb9d0f725, 0xbad5f02e, 0xfb164d8c, 0xf8134a87,
	0xfd1c439a, 0xfe194491, 0xf70251a0, 0xf40756ab, 0xf1085fb6, 0xf20d58bd,
	0xe33e75d4, 0xe03b72df, 0xe5347bc2, 0xe6317cc9, 0xef2a69f8, 0xec2f6ef3,
	0xe92067ee, 0xea2560e5, 0xcb463d3c, 0xc8433a37, 0xcd4c332a, 0xce493421,
	0xc7522110, 0xc457261b, 0xc1582f06, 0xc25d280d, 0xd36e0564, 0xd06b026f,
	0xd5640b72, 0xd6610c79, 0xdf7a1948, 0xdc7f1e43, 0xd970175e, 0xda751055,
	0x5bed7601, 0x58e8710a, 0x5de77817, 0x5ee27f1c, 0x57f96a2d, 0x54fc6d26,
	0x51f3643b, 0x52f66330, 0x43c54e59, 0x40c04952, 0x45cf404f, 0x46ca4744,
	0x4fd15275, 0x4cd4557e, 0x49db5c63, 0x4ade5b68, 0x6bbd06b1, 0x68b801ba,
	0x6db708a7, 0x6eb20fac, 0x67a91a9d, 0x64ac1d96, 0x61a3148b, 0x62a61380,
	0x73953ee9, 0x709039e2, 0x759f30ff, 0x769a37f4, 0x7f8122c5, 0x7c8425ce,
	0x798b2cd3, 0x7a8e2bd8, 0x3b4d967a, 0x38489171, 0x3d47986c, 0x3e429f67,
	0x37598a56, 0x345c8d5d, 0x31538440, 0x3256834b, 0x2365ae22, 0x2060a929,
	0x256fa034, 0x266aa73f, 0x2f71b20e, 0x2c74b505, 0x297bbc18, 0x2a7ebb13,
	0x0b1de6ca, 0x0818e1c1, 0x0d17e8dc, 0x0e12efd7, 0x0709fae6, 0x040cfded,
	0x0103f4f0, 0x0206f3fb, 0x1335de92, 0x1030d999, 0x153fd084, 0x163ad78f,
	0x1f21c2be, 0x1c24c5b5, 0x192bcca8, 0x1a2ecba3,
}
