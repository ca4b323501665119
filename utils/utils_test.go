package utils

import (
	"bytes"
	"math"
	"testing"
)

func TestShake256Deterministic(t *testing.T) {
	a := Shake256([]byte("seed"), 64)
	b := Shake256([]byte("seed"), 64)
	if !bytes.Equal(a, b) {
		t.Error("same input produced different output")
	}
	c := Shake256([]byte("seed2"), 64)
	if bytes.Equal(a, c) {
		t.Error("different inputs produced same output")
	}
}

func TestShake256Into(t *testing.T) {
	out := make([]byte, 64)
	Shake256Into([]byte("seed"), out)
	if !bytes.Equal(out, Shake256([]byte("seed"), 64)) {
		t.Error("Shake256Into disagrees with Shake256")
	}
}

func TestShake256Prefix(t *testing.T) {
	short := Shake256([]byte("seed"), 32)
	long := Shake256([]byte("seed"), 64)
	if !bytes.Equal(short, long[:32]) {
		t.Error("XOF output is not prefix-consistent")
	}
}

func TestShake256ConcatMatchesSingleWrite(t *testing.T) {
	joined := Shake256([]byte("helloworld"), 48)
	parts := Shake256Concat(48, []byte("hello"), []byte("world"))
	if !bytes.Equal(joined, parts) {
		t.Error("concatenated writes disagree with single write")
	}
}

func TestShake128Deterministic(t *testing.T) {
	a := Shake128([]byte("matrix-seed"), 168)
	b := Shake128([]byte("matrix-seed"), 168)
	if !bytes.Equal(a, b) {
		t.Error("same input produced different output")
	}
	if bytes.Equal(a, Shake256([]byte("matrix-seed"), 168)) {
		t.Error("SHAKE128 and SHAKE256 should differ")
	}
}

func TestSHA3Lengths(t *testing.T) {
	if got := len(SHA3256([]byte("x"))); got != 32 {
		t.Errorf("SHA3-256 length %d", got)
	}
	if got := len(SHA3512([]byte("x"))); got != 64 {
		t.Errorf("SHA3-512 length %d", got)
	}
}

func TestSHA3512ConcatMatchesSingleWrite(t *testing.T) {
	joined := SHA3512([]byte("helloworld"))
	parts := SHA3512Concat([]byte("hello"), []byte("world"))
	if !bytes.Equal(joined, parts) {
		t.Error("concatenated writes disagree with single write")
	}
}

func TestHashWithDomainSeparation(t *testing.T) {
	a := HashWithDomain("domain-a", []byte("data"))
	b := HashWithDomain("domain-b", []byte("data"))
	if bytes.Equal(a, b) {
		t.Error("different domains produced same hash")
	}
	// The length prefix must prevent boundary ambiguity.
	c := HashWithDomain("ab", []byte("cdata"))
	d := HashWithDomain("abc", []byte("data"))
	if bytes.Equal(c, d) {
		t.Error("domain boundary is ambiguous")
	}
}

func TestSecureRandomBytes(t *testing.T) {
	a, err := SecureRandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := SecureRandomBytes(32)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two random draws were identical")
	}
}

func TestValidateSeedEntropy(t *testing.T) {
	good := Shake256([]byte("entropy"), 32)
	if err := ValidateSeedEntropy(good); err != nil {
		t.Errorf("good seed rejected: %v", err)
	}

	if err := ValidateSeedEntropy(make([]byte, 32)); err == nil {
		t.Error("all-zero seed accepted")
	}
	if err := ValidateSeedEntropy(make([]byte, 16)); err == nil {
		t.Error("short seed accepted")
	}

	seq := make([]byte, 32)
	for i := range seq {
		seq[i] = byte(i)
	}
	if err := ValidateSeedEntropy(seq); err == nil {
		t.Error("sequential seed accepted")
	}

	sparse := make([]byte, 32)
	for i := range sparse {
		sparse[i] = byte(i % 4)
	}
	if err := ValidateSeedEntropy(sparse); err == nil {
		t.Error("low-diversity seed accepted")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 3}) {
		t.Error("equal slices reported unequal")
	}
	if ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 4}) {
		t.Error("unequal slices reported equal")
	}
	if ConstantTimeEqual([]byte{1, 2}, []byte{1, 2, 3}) {
		t.Error("different lengths reported equal")
	}
	if !ConstantTimeEqual(nil, nil) {
		t.Error("empty slices reported unequal")
	}
}

func TestConstantTimeSelect(t *testing.T) {
	a := []byte{1, 2, 3}
	b := []byte{4, 5, 6}
	if got := ConstantTimeSelect(1, a, b); !bytes.Equal(got, a) {
		t.Errorf("condition 1 selected %v", got)
	}
	if got := ConstantTimeSelect(0, a, b); !bytes.Equal(got, b) {
		t.Errorf("condition 0 selected %v", got)
	}
}

func TestZeroize(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zeroize(b)
	for _, v := range b {
		if v != 0 {
			t.Fatal("byte slice not cleared")
		}
	}

	s := []int32{10, -20, 30}
	ZeroizeInt32(s)
	for _, v := range s {
		if v != 0 {
			t.Fatal("int32 slice not cleared")
		}
	}
}

func TestCheckLength(t *testing.T) {
	if err := CheckLength(100, 1000); err != nil {
		t.Errorf("valid length rejected: %v", err)
	}
	if err := CheckLength(-1, 1000); err != ErrInvalidLength {
		t.Error("negative length not rejected")
	}
	if err := CheckLength(2000, 1000); err != ErrExceedsLimit {
		t.Error("oversized length not rejected")
	}
}

func TestSafeMultiply(t *testing.T) {
	if got, err := SafeMultiply(3, 7); err != nil || got != 21 {
		t.Errorf("SafeMultiply(3, 7) = %d, %v", got, err)
	}
	if got, err := SafeMultiply(0, math.MaxInt); err != nil || got != 0 {
		t.Errorf("SafeMultiply(0, MaxInt) = %d, %v", got, err)
	}
	if _, err := SafeMultiply(-1, 2); err != ErrInvalidLength {
		t.Error("negative operand not rejected")
	}
	if _, err := SafeMultiply(math.MaxInt, 2); err != ErrOverflow {
		t.Error("overflow not detected")
	}
}
