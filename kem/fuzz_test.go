package kem

import (
	"testing"

	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
)

// FuzzDeserializePublicKey tests public key deserialization with random inputs
func FuzzDeserializePublicKey(f *testing.F) {
	params, err := core.GetKEMParams(latticekit.Kyber768)
	if err != nil {
		f.Fatal(err)
	}

	// Add seed corpus
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})
	f.Add(make([]byte, 100))
	f.Add(make([]byte, params.PublicKeySize))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic, may return error
		_, _ = DeserializePublicKey(data, params)
	})
}

// FuzzDeserializeSecretKey tests secret key deserialization with random inputs
func FuzzDeserializeSecretKey(f *testing.F) {
	params, err := core.GetKEMParams(latticekit.Kyber768)
	if err != nil {
		f.Fatal(err)
	}

	// Add seed corpus
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})
	f.Add(make([]byte, 100))
	f.Add(make([]byte, params.SecretKeySize))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic, may return error
		_, _ = DeserializeSecretKey(data, params)
	})
}

// FuzzDecapsulate tests decapsulation with arbitrary ciphertext bytes
func FuzzDecapsulate(f *testing.F) {
	kp, err := GenerateKeyPair(latticekit.Kyber512)
	if err != nil {
		f.Fatal(err)
	}
	params := kp.PublicKey.Params

	result, err := Encapsulate(&kp.PublicKey)
	if err != nil {
		f.Fatal(err)
	}

	f.Add([]byte{})
	f.Add(make([]byte, params.CiphertextSize))
	f.Add(result.Ciphertext)

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic; any correct-length input yields a 32-byte secret.
		ss, err := Decapsulate(&kp.SecretKey, data)
		if len(data) != params.CiphertextSize {
			if err != ErrInvalidCiphertext {
				t.Errorf("wrong-length ciphertext: got %v", err)
			}
			return
		}
		if err != nil {
			t.Errorf("correct-length ciphertext returned error: %v", err)
		}
		if len(ss) != core.SharedSecretSize {
			t.Errorf("shared secret length %d", len(ss))
		}
	})
}
