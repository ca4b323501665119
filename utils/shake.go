package utils

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

var shake128Pool = sync.Pool{
	New: func() interface{} {
		return sha3.NewShake128()
	},
}

var shake256Pool = sync.Pool{
	New: func() interface{} {
		return sha3.NewShake256()
	},
}

// Shake128 computes the SHAKE128 extendable output function (XOF).
// It takes an input byte slice and generates an output of the specified length.
// This is used to expand public matrix seeds into pseudo-random streams.
func Shake128(input []byte, outputLen int) []byte {
	h := shake128Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake128Pool.Put(h)
	}()

	h.Write(input)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// Shake256 computes the SHAKE256 extendable output function (XOF).
// It takes an input byte slice and generates an output of the specified length.
// This is used for generating pseudo-random bytes from a seed.
func Shake256(input []byte, outputLen int) []byte {
	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	h.Write(input)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// Shake256Into computes SHAKE256 and writes the output into the provided buffer.
func Shake256Into(input []byte, output []byte) {
	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	h.Write(input)
	_, _ = h.Read(output)
}

// Shake256Concat computes SHAKE256 over the concatenation of the inputs.
// Unlike HashConcat the inputs are fixed-width protocol fields, so no
// length prefixes are inserted.
func Shake256Concat(outputLen int, inputs ...[]byte) []byte {
	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	for _, input := range inputs {
		h.Write(input)
	}
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// SHA3256 computes the SHA3-256 cryptographic hash of the input.
// It returns a 32-byte hash.
func SHA3256(input []byte) []byte {
	h := sha3.New256()
	h.Write(input)
	return h.Sum(nil)
}

// SHA3512 computes the SHA3-512 cryptographic hash of the input.
// It returns a 64-byte hash.
func SHA3512(input []byte) []byte {
	h := sha3.New512()
	h.Write(input)
	return h.Sum(nil)
}

// SHA3512Concat computes SHA3-512 over the concatenation of the inputs.
func SHA3512Concat(inputs ...[]byte) []byte {
	h := sha3.New512()
	for _, input := range inputs {
		h.Write(input)
	}
	return h.Sum(nil)
}

// HashWithDomain computes a domain-separated SHA3-256 hash.
// It prefixes the data with the length of the domain string and the domain string itself.
// This prevents collisions between different uses of the hash function.
// Panics if domain is longer than 255 bytes.
func HashWithDomain(domain string, data []byte) []byte {
	domainBytes := []byte(domain)
	if len(domainBytes) > 255 {
		panic("domain string must be at most 255 bytes")
	}
	h := sha3.New256()
	h.Write([]byte{byte(len(domainBytes))})
	h.Write(domainBytes)
	h.Write(data)
	return h.Sum(nil)
}

// Shake256WithDomain computes SHAKE256 with domain separation.
// It works like HashWithDomain but produces an output of arbitrary length.
// Panics if domain is longer than 255 bytes.
func Shake256WithDomain(domain string, data []byte, outputLen int) []byte {
	domainBytes := []byte(domain)
	if len(domainBytes) > 255 {
		panic("domain string must be at most 255 bytes")
	}

	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	h.Write([]byte{byte(len(domainBytes))})
	h.Write(domainBytes)
	h.Write(data)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}
