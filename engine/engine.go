// Package engine provides a byte-oriented facade over the KEM and signature
// packages. Callers hand it algorithm identifiers and wire-format byte
// slices; all key material crosses the boundary in serialized form.
package engine

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/core"
	"github.com/pqcraft/latticekit-go/kem"
	"github.com/pqcraft/latticekit-go/sign"
	"github.com/pqcraft/latticekit-go/utils"
)

// AuditFunc receives one entry per engine operation. ok reports whether the
// operation succeeded; for Verify it reports the verification outcome.
// elapsed is the wall time the operation took.
type AuditFunc func(op, alg string, ok bool, elapsed time.Duration)

// Metrics is a snapshot of the engine's operation counters.
type Metrics struct {
	KEMKeyGens     uint64 `json:"kem_keygens"`
	Encapsulations uint64 `json:"encapsulations"`
	Decapsulations uint64 `json:"decapsulations"`
	SignKeyGens    uint64 `json:"sign_keygens"`
	Signatures     uint64 `json:"signatures"`
	Verifications  uint64 `json:"verifications"`
	Failures       uint64 `json:"failures"`
}

// Engine dispatches operations by algorithm identifier. It is safe for
// concurrent use.
type Engine struct {
	rand  io.Reader
	audit AuditFunc

	kemKeyGens     atomic.Uint64
	encapsulations atomic.Uint64
	decapsulations atomic.Uint64
	signKeyGens    atomic.Uint64
	signatures     atomic.Uint64
	verifications  atomic.Uint64
	failures       atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandom replaces the randomness source used for key generation and
// encapsulation. Intended for deterministic tests.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// WithAudit installs an audit callback. The callback must be fast and safe
// for concurrent use; VerifyBatch invokes it from worker goroutines.
func WithAudit(fn AuditFunc) Option {
	return func(e *Engine) { e.audit = fn }
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{rand: utils.RandReader}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) record(op, alg string, ok bool, start time.Time) {
	if !ok {
		e.failures.Add(1)
	}
	if e.audit != nil {
		e.audit(op, alg, ok, time.Since(start))
	}
}

func (e *Engine) randomSeed() ([]byte, error) {
	seed := make([]byte, core.SeedSize)
	if _, err := io.ReadFull(e.rand, seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// GenerateKEMKeyPair generates a KEM key pair and returns the serialized
// public and secret keys.
func (e *Engine) GenerateKEMKeyPair(alg latticekit.KEMAlgorithm) (publicKey, secretKey []byte, err error) {
	e.kemKeyGens.Add(1)
	start := time.Now()
	params, err := core.GetKEMParams(alg)
	if err != nil {
		e.record("kem.keygen", alg.String(), false, start)
		return nil, nil, err
	}
	seed, err := e.randomSeed()
	if err != nil {
		e.record("kem.keygen", alg.String(), false, start)
		return nil, nil, err
	}
	kp, err := kem.GenerateKeyPairFromSeed(params, seed)
	utils.Zeroize(seed)
	if err != nil {
		e.record("kem.keygen", alg.String(), false, start)
		return nil, nil, err
	}
	e.record("kem.keygen", alg.String(), true, start)
	return kem.SerializePublicKey(&kp.PublicKey), kem.SerializeSecretKey(&kp.SecretKey), nil
}

// Encapsulate generates a shared secret for the holder of publicKey and
// returns the ciphertext alongside it.
func (e *Engine) Encapsulate(alg latticekit.KEMAlgorithm, publicKey []byte) (ciphertext, sharedSecret []byte, err error) {
	e.encapsulations.Add(1)
	start := time.Now()
	params, err := core.GetKEMParams(alg)
	if err != nil {
		e.record("kem.encapsulate", alg.String(), false, start)
		return nil, nil, err
	}
	pk, err := kem.DeserializePublicKey(publicKey, params)
	if err != nil {
		e.record("kem.encapsulate", alg.String(), false, start)
		return nil, nil, err
	}
	ephemeral, err := e.randomSeed()
	if err != nil {
		e.record("kem.encapsulate", alg.String(), false, start)
		return nil, nil, err
	}
	result, err := kem.EncapsulateDeterministic(pk, ephemeral)
	utils.Zeroize(ephemeral)
	if err != nil {
		e.record("kem.encapsulate", alg.String(), false, start)
		return nil, nil, err
	}
	e.record("kem.encapsulate", alg.String(), true, start)
	return result.Ciphertext, result.SharedSecret, nil
}

// Decapsulate recovers the shared secret from a ciphertext.
func (e *Engine) Decapsulate(alg latticekit.KEMAlgorithm, secretKey, ciphertext []byte) ([]byte, error) {
	e.decapsulations.Add(1)
	start := time.Now()
	params, err := core.GetKEMParams(alg)
	if err != nil {
		e.record("kem.decapsulate", alg.String(), false, start)
		return nil, err
	}
	sk, err := kem.DeserializeSecretKey(secretKey, params)
	if err != nil {
		e.record("kem.decapsulate", alg.String(), false, start)
		return nil, err
	}
	ss, err := kem.Decapsulate(sk, ciphertext)
	if err != nil {
		e.record("kem.decapsulate", alg.String(), false, start)
		return nil, err
	}
	e.record("kem.decapsulate", alg.String(), true, start)
	return ss, nil
}

// GenerateSignKeyPair generates a signature key pair and returns the
// serialized public and secret keys.
func (e *Engine) GenerateSignKeyPair(alg latticekit.SignAlgorithm) (publicKey, secretKey []byte, err error) {
	e.signKeyGens.Add(1)
	start := time.Now()
	params, err := core.GetSignParams(alg)
	if err != nil {
		e.record("sign.keygen", alg.String(), false, start)
		return nil, nil, err
	}
	seed, err := e.randomSeed()
	if err != nil {
		e.record("sign.keygen", alg.String(), false, start)
		return nil, nil, err
	}
	kp, err := sign.GenerateKeyPairFromSeed(params, seed)
	utils.Zeroize(seed)
	if err != nil {
		e.record("sign.keygen", alg.String(), false, start)
		return nil, nil, err
	}
	e.record("sign.keygen", alg.String(), true, start)
	return sign.SerializePublicKey(&kp.PublicKey), sign.SerializeSecretKey(&kp.SecretKey), nil
}

// Sign produces a signature over msg with the serialized secret key.
func (e *Engine) Sign(alg latticekit.SignAlgorithm, secretKey, msg []byte) ([]byte, error) {
	e.signatures.Add(1)
	start := time.Now()
	params, err := core.GetSignParams(alg)
	if err != nil {
		e.record("sign.sign", alg.String(), false, start)
		return nil, err
	}
	sk, err := sign.DeserializeSecretKey(secretKey, params)
	if err != nil {
		e.record("sign.sign", alg.String(), false, start)
		return nil, err
	}
	sig, err := sign.Sign(sk, msg)
	if err != nil {
		e.record("sign.sign", alg.String(), false, start)
		return nil, err
	}
	e.record("sign.sign", alg.String(), true, start)
	return sig, nil
}

// Verify reports whether sig is a valid signature over msg. Malformed
// inputs report false rather than an error.
func (e *Engine) Verify(alg latticekit.SignAlgorithm, publicKey, msg, sig []byte) bool {
	e.verifications.Add(1)
	start := time.Now()
	params, err := core.GetSignParams(alg)
	if err != nil {
		e.record("sign.verify", alg.String(), false, start)
		return false
	}
	pk, err := sign.DeserializePublicKey(publicKey, params)
	if err != nil {
		e.record("sign.verify", alg.String(), false, start)
		return false
	}
	ok := sign.Verify(pk, msg, sig)
	e.record("sign.verify", alg.String(), ok, start)
	return ok
}

// BatchItem is one message/signature pair for VerifyBatch.
type BatchItem struct {
	Message   []byte
	Signature []byte
}

// VerifyBatch verifies the items concurrently under one public key and
// returns one result per item, in order. A malformed item yields false
// without affecting the others.
func (e *Engine) VerifyBatch(alg latticekit.SignAlgorithm, publicKey []byte, items []BatchItem) ([]bool, error) {
	params, err := core.GetSignParams(alg)
	if err != nil {
		return nil, err
	}
	pk, err := sign.DeserializePublicKey(publicKey, params)
	if err != nil {
		return nil, errors.New("invalid public key for batch verification")
	}

	results := make([]bool, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i := range items {
		go func(i int) {
			defer wg.Done()
			e.verifications.Add(1)
			start := time.Now()
			ok := sign.Verify(pk, items[i].Message, items[i].Signature)
			e.record("sign.verify", alg.String(), ok, start)
			results[i] = ok
		}(i)
	}
	wg.Wait()
	return results, nil
}

// Metrics returns a snapshot of the operation counters.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		KEMKeyGens:     e.kemKeyGens.Load(),
		Encapsulations: e.encapsulations.Load(),
		Decapsulations: e.decapsulations.Load(),
		SignKeyGens:    e.signKeyGens.Load(),
		Signatures:     e.signatures.Load(),
		Verifications:  e.verifications.Load(),
		Failures:       e.failures.Load(),
	}
}
