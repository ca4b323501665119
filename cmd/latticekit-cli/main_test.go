package main_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Helper types for unmarshaling JSON outputs
type keyPairExport struct {
	Algorithm string `json:"algorithm"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
	CreatedAt string `json:"created_at"`
}

type encapsulationExport struct {
	Algorithm    string `json:"algorithm"`
	Ciphertext   string `json:"ciphertext"`
	SharedSecret string `json:"shared_secret"`
}

type signatureExport struct {
	Algorithm string `json:"algorithm"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// runCLI executes the CLI via `go run ./cmd/latticekit-cli` from the repository root.
func runCLI(t *testing.T, timeout time.Duration, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmdArgs := append([]string{"run", "./cmd/latticekit-cli"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = filepath.Join("..", "..")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestHelpAndVersion(t *testing.T) {
	out, err := runCLI(t, 30*time.Second, "help")
	if err != nil {
		t.Fatalf("help command failed: %v, out: %s", err, out)
	}
	if !strings.Contains(out, "latticekit-cli") {
		t.Fatalf("help output missing header: %s", out)
	}

	out, err = runCLI(t, 30*time.Second, "version")
	if err != nil {
		t.Fatalf("version command failed: %v, out: %s", err, out)
	}
	if !strings.Contains(out, "version") {
		t.Fatalf("version output unexpected: %s", out)
	}
}

func TestKEMKeygenEncapsulateDecapsulate(t *testing.T) {
	dir := t.TempDir()
	kpFile := filepath.Join(dir, "kem_kp.json")
	encapFile := filepath.Join(dir, "encap.json")

	out, err := runCLI(t, 60*time.Second, "kem", "keygen", "--level", "512", "--output", kpFile)
	if err != nil {
		t.Fatalf("kem keygen failed: %v, out: %s", err, out)
	}

	raw, err := os.ReadFile(kpFile)
	if err != nil {
		t.Fatal(err)
	}
	var kp keyPairExport
	if err := json.Unmarshal(raw, &kp); err != nil {
		t.Fatalf("keypair file is not valid JSON: %v", err)
	}
	if kp.Algorithm != "Kyber512" || kp.PublicKey == "" || kp.SecretKey == "" {
		t.Fatalf("unexpected keypair export: %+v", kp)
	}

	out, err = runCLI(t, 60*time.Second, "kem", "encapsulate", "--level", "512",
		"--public-key", kpFile, "--output", encapFile)
	if err != nil {
		t.Fatalf("kem encapsulate failed: %v, out: %s", err, out)
	}

	raw, err = os.ReadFile(encapFile)
	if err != nil {
		t.Fatal(err)
	}
	var encap encapsulationExport
	if err := json.Unmarshal(raw, &encap); err != nil {
		t.Fatal(err)
	}

	out, err = runCLI(t, 60*time.Second, "kem", "decapsulate", "--level", "512",
		"--secret-key", kpFile, "--ciphertext", encapFile)
	if err != nil {
		t.Fatalf("kem decapsulate failed: %v, out: %s", err, out)
	}
	if !strings.Contains(out, encap.SharedSecret) {
		t.Error("decapsulated secret does not match encapsulation output")
	}
}

func TestSignKeygenSignVerify(t *testing.T) {
	dir := t.TempDir()
	kpFile := filepath.Join(dir, "sign_kp.json")
	sigFile := filepath.Join(dir, "sig.json")
	message := "Document to sign"

	out, err := runCLI(t, 60*time.Second, "sign", "keygen", "--level", "2", "--output", kpFile)
	if err != nil {
		t.Fatalf("sign keygen failed: %v, out: %s", err, out)
	}

	out, err = runCLI(t, 60*time.Second, "sign", "sign", "--level", "2",
		"--secret-key", kpFile, "--message", message, "--output", sigFile)
	if err != nil {
		t.Fatalf("sign failed: %v, out: %s", err, out)
	}

	raw, err := os.ReadFile(sigFile)
	if err != nil {
		t.Fatal(err)
	}
	var sig signatureExport
	if err := json.Unmarshal(raw, &sig); err != nil {
		t.Fatal(err)
	}
	if sig.Algorithm != "Dilithium2" || sig.Signature == "" {
		t.Fatalf("unexpected signature export: %+v", sig)
	}

	out, err = runCLI(t, 60*time.Second, "sign", "verify", "--level", "2",
		"--public-key", kpFile, "--message", message, "--signature", sigFile)
	if err != nil {
		t.Fatalf("verify failed: %v, out: %s", err, out)
	}
	if !strings.Contains(out, "VALID") {
		t.Errorf("unexpected verify output: %s", out)
	}

	// A modified message must fail with a non-zero exit.
	out, err = runCLI(t, 60*time.Second, "sign", "verify", "--level", "2",
		"--public-key", kpFile, "--message", message+"!", "--signature", sigFile)
	if err == nil {
		t.Errorf("verification of a modified message succeeded: %s", out)
	}
}

func TestInvalidArguments(t *testing.T) {
	if out, err := runCLI(t, 30*time.Second, "kem", "keygen", "--level", "999"); err == nil {
		t.Errorf("invalid level accepted: %s", out)
	}
	if out, err := runCLI(t, 30*time.Second, "unknown-command"); err == nil {
		t.Errorf("unknown command accepted: %s", out)
	}
	if out, err := runCLI(t, 30*time.Second, "kem", "encapsulate"); err == nil {
		t.Errorf("missing --public-key accepted: %s", out)
	}
}
