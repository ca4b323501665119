package ring

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// SampleUniform deterministically derives a uniform polynomial from the
// SHAKE128 stream of seed || suffix by rejection sampling. The extraction
// width follows the modulus: 12-bit candidate pairs for the KEM ring,
// masked 23-bit triples for the signature ring.
func (r *Ring) SampleUniform(seed []byte, suffix ...byte) Poly {
	xof := sha3.NewShake128()
	xof.Write(seed)
	xof.Write(suffix)

	var p Poly
	var buf [168]byte // SHAKE128 rate
	filled := 0
	for filled < N {
		_, _ = xof.Read(buf[:])
		for i := 0; i+3 <= len(buf) && filled < N; i += 3 {
			if r.Q == 3329 {
				d1 := int32(buf[i]) | int32(buf[i+1]&0x0F)<<8
				d2 := int32(buf[i+1]>>4) | int32(buf[i+2])<<4
				if d1 < r.Q {
					p[filled] = d1
					filled++
				}
				if filled < N && d2 < r.Q {
					p[filled] = d2
					filled++
				}
			} else {
				d := (int32(buf[i]) | int32(buf[i+1])<<8 | int32(buf[i+2])<<16) & 0x7FFFFF
				if d < r.Q {
					p[filled] = d
					filled++
				}
			}
		}
	}
	return p
}

// SampleCBD derives a noise polynomial from the centered binomial
// distribution with parameter eta (2 or 3), using SHAKE256(seed || nonce)
// as the bit source.
func (r *Ring) SampleCBD(seed []byte, nonce byte, eta int) Poly {
	if eta != 2 && eta != 3 {
		panic("ring: unsupported centered binomial parameter")
	}
	buf := make([]byte, 64*eta)
	xof := sha3.NewShake256()
	xof.Write(seed)
	xof.Write([]byte{nonce})
	_, _ = xof.Read(buf)

	var p Poly
	if eta == 2 {
		for i := 0; i < N/8; i++ {
			t := binary.LittleEndian.Uint32(buf[4*i:])
			d := (t & 0x55555555) + ((t >> 1) & 0x55555555)
			for j := 0; j < 8; j++ {
				a := int32((d >> (4 * j)) & 0x3)
				b := int32((d >> (4*j + 2)) & 0x3)
				p[8*i+j] = r.subMod(a, b)
			}
		}
		return p
	}
	for i := 0; i < N/4; i++ {
		t := uint32(buf[3*i]) | uint32(buf[3*i+1])<<8 | uint32(buf[3*i+2])<<16
		d := (t & 0x00249249) + ((t >> 1) & 0x00249249) + ((t >> 2) & 0x00249249)
		for j := 0; j < 4; j++ {
			a := int32((d >> (6 * j)) & 0x7)
			b := int32((d >> (6*j + 3)) & 0x7)
			p[4*i+j] = r.subMod(a, b)
		}
	}
	return p
}

// SampleUniformEta derives a secret polynomial with coefficients in
// [-eta, eta] (eta 2 or 4) by nibble rejection on SHAKE256(seed || nonce).
func (r *Ring) SampleUniformEta(seed []byte, nonce uint16, eta int32) Poly {
	if eta != 2 && eta != 4 {
		panic("ring: unsupported secret coefficient bound")
	}
	xof := sha3.NewShake256()
	xof.Write(seed)
	var nb [2]byte
	binary.LittleEndian.PutUint16(nb[:], nonce)
	xof.Write(nb[:])

	var p Poly
	var buf [136]byte // SHAKE256 rate
	filled := 0
	for filled < N {
		_, _ = xof.Read(buf[:])
		for _, b := range buf {
			for _, t := range [2]int32{int32(b & 0x0F), int32(b >> 4)} {
				if filled == N {
					break
				}
				switch {
				case eta == 2 && t < 15:
					p[filled] = r.subMod(2, t%5)
					filled++
				case eta == 4 && t < 9:
					p[filled] = r.subMod(4, t)
					filled++
				}
			}
		}
	}
	return p
}

// SampleMask derives a mask polynomial with coefficients in (-gamma1, gamma1]
// from SHAKE256(seed || kappa). gamma1 must be a power of two.
func (r *Ring) SampleMask(seed []byte, kappa uint16, gamma1 int32) Poly {
	bitsPer := bitLen(gamma1) // log2(gamma1) + 1
	buf := make([]byte, N*bitsPer/8)
	xof := sha3.NewShake256()
	xof.Write(seed)
	var kb [2]byte
	binary.LittleEndian.PutUint16(kb[:], kappa)
	xof.Write(kb[:])
	_, _ = xof.Read(buf)

	p := UnpackBits(buf, uint(bitsPer))
	for i := range p {
		p[i] = r.subMod(gamma1, p[i])
	}
	return p
}

func bitLen(x int32) int {
	n := 0
	for x > 0 {
		x >>= 1
		n++
	}
	return n
}

// SampleInBall derives a sparse challenge polynomial with exactly tau
// coefficients in {-1, +1} from SHAKE256(seed), via an in-place shuffle.
func (r *Ring) SampleInBall(seed []byte, tau int) Poly {
	xof := sha3.NewShake256()
	xof.Write(seed)

	var signBytes [8]byte
	_, _ = xof.Read(signBytes[:])
	signs := binary.LittleEndian.Uint64(signBytes[:])

	var p Poly
	var b [1]byte
	for i := N - tau; i < N; i++ {
		j := i + 1
		for j > i {
			_, _ = xof.Read(b[:])
			j = int(b[0])
		}
		p[i] = p[j]
		if signs&1 == 1 {
			p[j] = r.Q - 1
		} else {
			p[j] = 1
		}
		signs >>= 1
	}
	return p
}
