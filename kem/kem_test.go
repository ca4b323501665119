package kem

import (
	"bytes"
	"testing"

	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
	"github.com/pqcraft/latticekit-go/utils"
)

var kemAlgorithms = []latticekit.KEMAlgorithm{
	latticekit.Kyber512,
	latticekit.Kyber768,
	latticekit.Kyber1024,
}

func testSeed(t *testing.T, label string) []byte {
	t.Helper()
	return utils.Shake256([]byte(label), core.SeedSize)
}

func TestEncapsulateDecapsulateRoundTrip(t *testing.T) {
	for _, alg := range kemAlgorithms {
		t.Run(alg.String(), func(t *testing.T) {
			kp, err := GenerateKeyPair(alg)
			if err != nil {
				t.Fatal(err)
			}

			result, err := Encapsulate(&kp.PublicKey)
			if err != nil {
				t.Fatal(err)
			}
			if len(result.SharedSecret) != core.SharedSecretSize {
				t.Fatalf("shared secret length %d", len(result.SharedSecret))
			}
			if len(result.Ciphertext) != kp.PublicKey.Params.CiphertextSize {
				t.Fatalf("ciphertext length %d, want %d",
					len(result.Ciphertext), kp.PublicKey.Params.CiphertextSize)
			}

			recovered, err := Decapsulate(&kp.SecretKey, result.Ciphertext)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(recovered, result.SharedSecret) {
				t.Error("decapsulated secret does not match encapsulated secret")
			}
		})
	}
}

func TestKeyGenDeterministic(t *testing.T) {
	params, err := core.GetKEMParams(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}
	seed := testSeed(t, "kem-keygen")

	kp1, err := GenerateKeyPairFromSeed(params, seed)
	if err != nil {
		t.Fatal(err)
	}
	kp2, err := GenerateKeyPairFromSeed(params, seed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(SerializePublicKey(&kp1.PublicKey), SerializePublicKey(&kp2.PublicKey)) {
		t.Error("same seed produced different public keys")
	}
	if !bytes.Equal(SerializeSecretKey(&kp1.SecretKey), SerializeSecretKey(&kp2.SecretKey)) {
		t.Error("same seed produced different secret keys")
	}

	kp3, err := GenerateKeyPairFromSeed(params, testSeed(t, "kem-keygen-other"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(SerializePublicKey(&kp1.PublicKey), SerializePublicKey(&kp3.PublicKey)) {
		t.Error("different seeds produced identical public keys")
	}
}

func TestKeyGenRejectsWeakSeed(t *testing.T) {
	params, err := core.GetKEMParams(latticekit.Kyber512)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GenerateKeyPairFromSeed(params, make([]byte, 32)); err == nil {
		t.Error("all-zero seed accepted")
	}
	if _, err := GenerateKeyPairFromSeed(params, make([]byte, 16)); err == nil {
		t.Error("short seed accepted")
	}
}

func TestEncapsulateDeterministic(t *testing.T) {
	kp, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}
	ephemeral := testSeed(t, "kem-ephemeral")

	r1, err := EncapsulateDeterministic(&kp.PublicKey, ephemeral)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := EncapsulateDeterministic(&kp.PublicKey, ephemeral)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(r1.Ciphertext, r2.Ciphertext) || !bytes.Equal(r1.SharedSecret, r2.SharedSecret) {
		t.Error("deterministic encapsulation is not deterministic")
	}

	if _, err := EncapsulateDeterministic(&kp.PublicKey, ephemeral[:16]); err == nil {
		t.Error("short ephemeral secret accepted")
	}
}

func TestDecapsulateTamperedCiphertext(t *testing.T) {
	kp, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}
	result, err := Encapsulate(&kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	tampered := append([]byte{}, result.Ciphertext...)
	tampered[500] ^= 0x01

	recovered, err := Decapsulate(&kp.SecretKey, tampered)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(recovered, result.SharedSecret) {
		t.Error("tampered ciphertext yielded the honest shared secret")
	}
	if len(recovered) != core.SharedSecretSize {
		t.Errorf("rejection value has length %d", len(recovered))
	}

	// Implicit rejection is deterministic per (secret key, ciphertext).
	again, err := Decapsulate(&kp.SecretKey, tampered)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, again) {
		t.Error("rejection value is not deterministic")
	}
}

func TestDecapsulateWrongLength(t *testing.T) {
	kp, err := GenerateKeyPair(latticekit.Kyber512)
	if err != nil {
		t.Fatal(err)
	}
	params := kp.PublicKey.Params

	for _, n := range []int{0, 1, params.CiphertextSize - 1, params.CiphertextSize + 1} {
		if _, err := Decapsulate(&kp.SecretKey, make([]byte, n)); err != ErrInvalidCiphertext {
			t.Errorf("length %d: got %v, want ErrInvalidCiphertext", n, err)
		}
	}
}

func TestDecapsulateWrongKey(t *testing.T) {
	kp1, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}
	kp2, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Encapsulate(&kp1.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	recovered, err := Decapsulate(&kp2.SecretKey, result.Ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(recovered, result.SharedSecret) {
		t.Error("wrong secret key recovered the shared secret")
	}
}

func TestCrossLevelCiphertextRejected(t *testing.T) {
	kp512, err := GenerateKeyPair(latticekit.Kyber512)
	if err != nil {
		t.Fatal(err)
	}
	kp1024, err := GenerateKeyPair(latticekit.Kyber1024)
	if err != nil {
		t.Fatal(err)
	}
	result, err := Encapsulate(&kp512.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decapsulate(&kp1024.SecretKey, result.Ciphertext); err != ErrInvalidCiphertext {
		t.Errorf("got %v, want ErrInvalidCiphertext", err)
	}
}

func TestPublicKeySerializationRoundTrip(t *testing.T) {
	for _, alg := range kemAlgorithms {
		t.Run(alg.String(), func(t *testing.T) {
			kp, err := GenerateKeyPair(alg)
			if err != nil {
				t.Fatal(err)
			}
			params := kp.PublicKey.Params

			data := SerializePublicKey(&kp.PublicKey)
			if len(data) != params.PublicKeySize {
				t.Fatalf("serialized length %d, want %d", len(data), params.PublicKeySize)
			}

			pk, err := DeserializePublicKey(data, params)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(SerializePublicKey(pk), data) {
				t.Error("round-trip changed the encoding")
			}

			// The restored key must encapsulate to the same holder.
			result, err := Encapsulate(pk)
			if err != nil {
				t.Fatal(err)
			}
			recovered, err := Decapsulate(&kp.SecretKey, result.Ciphertext)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(recovered, result.SharedSecret) {
				t.Error("restored public key is not functional")
			}
		})
	}
}

func TestSecretKeySerializationRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}
	params := kp.PublicKey.Params

	data := SerializeSecretKey(&kp.SecretKey)
	if len(data) != params.SecretKeySize {
		t.Fatalf("serialized length %d, want %d", len(data), params.SecretKeySize)
	}

	sk, err := DeserializeSecretKey(data, params)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Encapsulate(&kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	recovered, err := Decapsulate(sk, result.Ciphertext)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, result.SharedSecret) {
		t.Error("restored secret key is not functional")
	}
}

func TestDeserializeRejectsMalformed(t *testing.T) {
	params, err := core.GetKEMParams(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}
	kp, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		t.Fatal(err)
	}

	pkData := SerializePublicKey(&kp.PublicKey)
	if _, err := DeserializePublicKey(pkData[:len(pkData)-1], params); err == nil {
		t.Error("truncated public key accepted")
	}
	if _, err := DeserializePublicKey(append(pkData, 0), params); err == nil {
		t.Error("oversized public key accepted")
	}

	// A coefficient outside [0, q) must be rejected.
	bad := append([]byte{}, pkData...)
	bad[0] = 0xFF
	bad[1] |= 0x0F
	if _, err := DeserializePublicKey(bad, params); err == nil {
		t.Error("non-canonical coefficient accepted")
	}

	skData := SerializeSecretKey(&kp.SecretKey)
	if _, err := DeserializeSecretKey(skData[:100], params); err == nil {
		t.Error("truncated secret key accepted")
	}

	// Corrupting the embedded public key must break the hash binding.
	badSK := append([]byte{}, skData...)
	badSK[params.K*polyBytes+polyBytes/2] ^= 0x01
	if _, err := DeserializeSecretKey(badSK, params); err == nil {
		t.Error("secret key with corrupted public half accepted")
	}
}

func TestSharedSecretsDifferAcrossEncapsulations(t *testing.T) {
	kp, err := GenerateKeyPair(latticekit.Kyber512)
	if err != nil {
		t.Fatal(err)
	}
	r1, err := Encapsulate(&kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Encapsulate(&kp.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(r1.SharedSecret, r2.SharedSecret) {
		t.Error("independent encapsulations produced the same secret")
	}
	if bytes.Equal(r1.Ciphertext, r2.Ciphertext) {
		t.Error("independent encapsulations produced the same ciphertext")
	}
}

func BenchmarkEncapsulate(b *testing.B) {
	kp, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encapsulate(&kp.PublicKey); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecapsulate(b *testing.B) {
	kp, err := GenerateKeyPair(latticekit.Kyber768)
	if err != nil {
		b.Fatal(err)
	}
	result, err := Encapsulate(&kp.PublicKey)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decapsulate(&kp.SecretKey, result.Ciphertext); err != nil {
			b.Fatal(err)
		}
	}
}
