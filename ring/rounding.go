package ring

// Compress maps each coefficient to its d-bit rounded representative,
// round(2^d/q * x) mod 2^d. The result holds raw d-bit values, ready for
// PackBits, not canonical ring elements.
func (r *Ring) Compress(p Poly, d uint) Poly {
	mask := int32(1)<<d - 1
	for i := range p {
		v := (uint64(p[i])<<d + uint64(r.Q)/2) / uint64(r.Q)
		p[i] = int32(v) & mask
	}
	return p
}

// Decompress is the approximate inverse of Compress. The round trip
// decompress(compress(x)) differs from x by at most ceil(q / 2^(d+1)).
func (r *Ring) Decompress(p Poly, d uint) Poly {
	for i := range p {
		p[i] = int32((uint64(p[i])*uint64(r.Q) + 1<<(d-1)) >> d)
	}
	return p
}

// Power2Round splits every coefficient x into x1*2^d + x0 with x0 the
// centered remainder in (-2^(d-1), 2^(d-1)]. hi holds the small x1 values,
// lo holds x0 as canonical ring elements.
func (r *Ring) Power2Round(p Poly, d uint) (hi, lo Poly) {
	half := int32(1) << (d - 1)
	for i := range p {
		x0 := p[i] & (int32(1)<<d - 1)
		if x0 > half {
			x0 -= int32(1) << d
		}
		hi[i] = (p[i] - x0) >> d
		if x0 < 0 {
			x0 += r.Q
		}
		lo[i] = x0
	}
	return hi, lo
}

// Decompose splits one canonical coefficient x into x1*(2*gamma2) + x0 with
// x0 the signed centered remainder. The wrap-around class q-1 is folded into
// x1 = 0 so that x1 always lies in [0, (q-1)/(2*gamma2)).
func (r *Ring) Decompose(x, gamma2 int32) (x1, x0 int32) {
	alpha := 2 * gamma2
	x0 = x % alpha
	if x0 > alpha/2 {
		x0 -= alpha
	}
	if x-x0 == r.Q-1 {
		return 0, x0 - 1
	}
	return (x - x0) / alpha, x0
}

// HighBits returns the x1 part of Decompose for every coefficient.
func (r *Ring) HighBits(p Poly, gamma2 int32) Poly {
	for i := range p {
		p[i], _ = r.Decompose(p[i], gamma2)
	}
	return p
}

// LowBits returns the x0 part of Decompose for every coefficient, as
// canonical ring elements.
func (r *Ring) LowBits(p Poly, gamma2 int32) Poly {
	for i := range p {
		_, x0 := r.Decompose(p[i], gamma2)
		if x0 < 0 {
			x0 += r.Q
		}
		p[i] = x0
	}
	return p
}

// MakeHint computes the rounding hint for every coefficient: hint[i] is 1
// exactly when adding z[i] changes the high bits of w[i]. It also returns
// the hint weight.
func (r *Ring) MakeHint(z, w Poly, gamma2 int32) (Poly, int) {
	var h Poly
	weight := 0
	for i := range w {
		h1, _ := r.Decompose(w[i], gamma2)
		h2, _ := r.Decompose(r.addMod(w[i], z[i]), gamma2)
		if h1 != h2 {
			h[i] = 1
			weight++
		}
	}
	return h, weight
}

// UseHint recovers the high bits of w using the hint polynomial.
func (r *Ring) UseHint(h, w Poly, gamma2 int32) Poly {
	m := (r.Q - 1) / (2 * gamma2)
	var p Poly
	for i := range w {
		x1, x0 := r.Decompose(w[i], gamma2)
		if h[i] == 0 {
			p[i] = x1
			continue
		}
		if x0 > 0 {
			p[i] = (x1 + 1) % m
		} else {
			p[i] = (x1 - 1 + m) % m
		}
	}
	return p
}

// PackBits serializes p assuming every coefficient fits in the given bit
// width, little-endian within the bit stream. The output length is N*bits/8.
func PackBits(p Poly, bits uint) []byte {
	out := make([]byte, N*int(bits)/8)
	var acc uint64
	var nbits uint
	pos := 0
	for i := range p {
		acc |= uint64(uint32(p[i])) << nbits
		nbits += bits
		for nbits >= 8 {
			out[pos] = byte(acc)
			acc >>= 8
			nbits -= 8
			pos++
		}
	}
	return out
}

// UnpackBits is the inverse of PackBits. It consumes exactly N*bits/8 bytes.
func UnpackBits(b []byte, bits uint) Poly {
	var p Poly
	mask := uint64(1)<<bits - 1
	var acc uint64
	var nbits uint
	pos := 0
	for i := 0; i < N; i++ {
		for nbits < bits {
			acc |= uint64(b[pos]) << nbits
			pos++
			nbits += 8
		}
		p[i] = int32(acc & mask)
		acc >>= bits
		nbits -= bits
	}
	return p
}
