// Package ring implements the polynomial-ring arithmetic substrate shared by
// the KEM and the signature scheme: arithmetic in Z_q[X]/(X^256+1), forward
// and inverse number-theoretic transforms, deterministic samplers, and the
// rounding/compression primitives both protocols are built from.
//
// A Ring value is immutable after construction and safe for concurrent use.
// Polynomials are passed by value; every operation returns a fresh result and
// keeps coefficients canonical in [0, q) unless documented otherwise.
package ring

import "math/bits"

// N is the ring dimension, common to every parameter set.
const N = 256

// Poly is a polynomial with N coefficients. Operations on a given Ring keep
// coefficients canonical in [0, q).
type Poly [N]int32

// Ring captures one modulus together with its NTT tables.
//
// Levels controls how far the transform splits X^256+1: eight levels give a
// full split into linear factors (pointwise products), seven levels stop at
// quadratic factors and multiply degree-1 residues pairwise.
type Ring struct {
	Q      int32
	Levels int

	zetas []int32 // psi^bitrev(k), k in [0, 2^Levels)
	nInv  int32   // (2^Levels)^-1 mod q
}

// New constructs a Ring for the prime modulus q using psi, a primitive
// 2^(Levels+1)-th root of unity mod q, as the twiddle base.
func New(q, psi int32, levels int) *Ring {
	if levels != 7 && levels != 8 {
		panic("ring: unsupported transform depth")
	}
	r := &Ring{Q: q, Levels: levels}
	count := 1 << levels
	r.zetas = make([]int32, count)
	for k := 0; k < count; k++ {
		r.zetas[k] = r.modPow(psi, int64(bitrev(uint32(k), levels)))
	}
	r.nInv = r.modPow(int32(count), int64(q)-2)
	return r
}

func bitrev(x uint32, width int) uint32 {
	return bits.Reverse32(x) >> (32 - width)
}

func (r *Ring) modPow(base int32, exp int64) int32 {
	result := int64(1)
	b := int64(base) % int64(r.Q)
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = result * b % int64(r.Q)
		}
		b = b * b % int64(r.Q)
	}
	return int32(result)
}

func (r *Ring) addMod(a, b int32) int32 {
	c := a + b
	if c >= r.Q {
		c -= r.Q
	}
	return c
}

func (r *Ring) subMod(a, b int32) int32 {
	c := a - b
	if c < 0 {
		c += r.Q
	}
	return c
}

func (r *Ring) mulMod(a, b int32) int32 {
	return int32(int64(a) * int64(b) % int64(r.Q))
}

// Reduce maps every coefficient into [0, q). It accepts arbitrary int32
// inputs and is the entry point for values produced outside the ring.
func (r *Ring) Reduce(p Poly) Poly {
	for i := range p {
		c := p[i] % r.Q
		if c < 0 {
			c += r.Q
		}
		p[i] = c
	}
	return p
}

// Add returns a + b.
func (r *Ring) Add(a, b Poly) Poly {
	for i := range a {
		a[i] = r.addMod(a[i], b[i])
	}
	return a
}

// Sub returns a - b.
func (r *Ring) Sub(a, b Poly) Poly {
	for i := range a {
		a[i] = r.subMod(a[i], b[i])
	}
	return a
}

// ScalarMul returns c * p for a canonical scalar c.
func (r *Ring) ScalarMul(c int32, p Poly) Poly {
	for i := range p {
		p[i] = r.mulMod(c, p[i])
	}
	return p
}

// Center returns the signed representative of x in (-q/2, q/2].
func (r *Ring) Center(x int32) int32 {
	if x > r.Q/2 {
		return x - r.Q
	}
	return x
}

// InfNorm returns the infinity norm of p over centered representatives.
func (r *Ring) InfNorm(p Poly) int32 {
	var max int32
	for i := range p {
		c := r.Center(p[i])
		if c < 0 {
			c = -c
		}
		if c > max {
			max = c
		}
	}
	return max
}

// NTT computes the forward transform of p. For Levels == 7 the output is the
// incomplete transform whose residues live mod quadratic factors.
func (r *Ring) NTT(p Poly) Poly {
	k := 1
	minLen := N >> r.Levels
	for length := N / 2; length >= minLen; length >>= 1 {
		for start := 0; start < N; start += 2 * length {
			zeta := r.zetas[k]
			k++
			for j := start; j < start+length; j++ {
				t := r.mulMod(zeta, p[j+length])
				p[j+length] = r.subMod(p[j], t)
				p[j] = r.addMod(p[j], t)
			}
		}
	}
	return p
}

// InvNTT computes the inverse transform of p, including the 1/2^Levels scale.
func (r *Ring) InvNTT(p Poly) Poly {
	k := (1 << r.Levels) - 1
	minLen := N >> r.Levels
	for length := minLen; length < N; length <<= 1 {
		for start := 0; start < N; start += 2 * length {
			zeta := r.Q - r.zetas[k]
			k--
			for j := start; j < start+length; j++ {
				t := p[j]
				p[j] = r.addMod(t, p[j+length])
				p[j+length] = r.mulMod(zeta, r.subMod(t, p[j+length]))
			}
		}
	}
	for i := range p {
		p[i] = r.mulMod(p[i], r.nInv)
	}
	return p
}

// MulNTT multiplies two polynomials that are already in the NTT domain.
func (r *Ring) MulNTT(a, b Poly) Poly {
	if r.Levels == 8 {
		for i := range a {
			a[i] = r.mulMod(a[i], b[i])
		}
		return a
	}
	// Incomplete transform: multiply degree-1 residues mod X^2 - zeta.
	half := 1 << (r.Levels - 1)
	for i := 0; i < N/4; i++ {
		zeta := r.zetas[half+i]
		a[4*i], a[4*i+1] = r.baseMul(a[4*i], a[4*i+1], b[4*i], b[4*i+1], zeta)
		a[4*i+2], a[4*i+3] = r.baseMul(a[4*i+2], a[4*i+3], b[4*i+2], b[4*i+3], r.Q-zeta)
	}
	return a
}

func (r *Ring) baseMul(a0, a1, b0, b1, zeta int32) (int32, int32) {
	c0 := r.addMod(r.mulMod(a0, b0), r.mulMod(zeta, r.mulMod(a1, b1)))
	c1 := r.addMod(r.mulMod(a0, b1), r.mulMod(a1, b0))
	return c0, c1
}

// Mul returns the negacyclic product of a and b via the transform domain.
func (r *Ring) Mul(a, b Poly) Poly {
	return r.InvNTT(r.MulNTT(r.NTT(a), r.NTT(b)))
}

// MulSchoolbook returns the negacyclic product of a and b by direct
// convolution. It must agree bit-for-bit with Mul; the transform path is the
// one used by the protocols, this one anchors its correctness in tests.
func (r *Ring) MulSchoolbook(a, b Poly) Poly {
	var c Poly
	q := int64(r.Q)
	for k := 0; k < N; k++ {
		var acc int64
		for i := 0; i <= k; i++ {
			acc += int64(a[i]) * int64(b[k-i]) % q
		}
		for i := k + 1; i < N; i++ {
			acc -= int64(a[i]) * int64(b[N+k-i]) % q
		}
		acc %= q
		if acc < 0 {
			acc += q
		}
		c[k] = int32(acc)
	}
	return c
}
