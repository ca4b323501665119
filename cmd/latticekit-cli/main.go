// Package main provides the latticekit-cli command line interface for
// KEM and signature operations.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	latticekit "github.com/pqcraft/latticekit-go"
	"github.com/pqcraft/latticekit-go/engine"
	"github.com/pqcraft/latticekit-go/utils"
)

const appName = "latticekit-cli"

// OutputFormat represents the encoding used for binary fields
type OutputFormat string

const (
	FormatHex    OutputFormat = "hex"
	FormatBase64 OutputFormat = "base64"
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	KEMAlg       latticekit.KEMAlgorithm
	SignAlg      latticekit.SignAlgorithm
	OutputFormat OutputFormat
	OutputFile   string
	Verbose      bool
	Timing       bool
}

// KeyPairExport represents an exported key pair
type KeyPairExport struct {
	Algorithm string `json:"algorithm"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
	CreatedAt string `json:"created_at"`
}

// EncapsulationExport represents an exported encapsulation result
type EncapsulationExport struct {
	Algorithm    string `json:"algorithm"`
	Ciphertext   string `json:"ciphertext"`
	SharedSecret string `json:"shared_secret"`
}

// SignatureExport represents an exported signature
type SignatureExport struct {
	Algorithm string `json:"algorithm"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version":
		fmt.Printf("%s version %s\n", appName, latticekit.Version)
	case "kem":
		handleKEM(os.Args[2:])
	case "sign":
		handleSign(os.Args[2:])
	case "benchmark":
		handleBenchmark(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Lattice Post-Quantum Cryptography CLI

USAGE:
    %s <COMMAND> [OPTIONS]

COMMANDS:
    kem         Key Encapsulation Mechanism operations
    sign        Digital signature operations
    benchmark   Run performance benchmarks
    version     Show version information
    help        Show this help message

OPTIONS:
    --level <N>      Security level: 512, 768, 1024 (kem); 2, 3, 5 (sign)
    --format <fmt>   Binary field encoding: hex, base64 (default base64)
    --output <file>  Write result to file instead of stdout
    --iterations <N> Iteration count for benchmark (default 10)
    --timing         Print operation timing to stderr
    --verbose        Print additional details to stderr

EXAMPLES:
    # Generate a KEM key pair
    %s kem keygen --level 768 --output keypair.json

    # Encapsulate against a public key
    %s kem encapsulate --public-key keypair.json

    # Decapsulate a ciphertext
    %s kem decapsulate --secret-key keypair.json --ciphertext encap.json

    # Sign and verify a message
    %s sign keygen --level 2 --output signkp.json
    %s sign sign --secret-key signkp.json --message "Document to sign"
    %s sign verify --public-key signkp.json --message "Document to sign" --signature sig.json
`, appName, appName, appName, appName, appName, appName, appName, appName)
}

func handleKEM(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: kem requires a subcommand: keygen, encapsulate, decapsulate")
		os.Exit(1)
	}
	switch args[0] {
	case "keygen":
		kemKeygen(args[1:])
	case "encapsulate":
		kemEncapsulate(args[1:])
	case "decapsulate":
		kemDecapsulate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown kem subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func handleSign(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: sign requires a subcommand: keygen, sign, verify")
		os.Exit(1)
	}
	switch args[0] {
	case "keygen":
		signKeygen(args[1:])
	case "sign":
		signSign(args[1:])
	case "verify":
		signVerify(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown sign subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func kemKeygen(args []string) {
	config := parseConfig(args)
	e := engine.New()

	start := time.Now()
	pub, priv, err := e.GenerateKEMKeyPair(config.KEMAlg)
	elapsed := time.Since(start)
	if err != nil {
		fatalf("Error generating key pair: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Key generation took: %v\n", elapsed)
	}

	export := KeyPairExport{
		Algorithm: config.KEMAlg.String(),
		PublicKey: encodeBytes(pub, config.OutputFormat),
		SecretKey: encodeBytes(priv, config.OutputFormat),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	writeExport(export, config)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Generated %s key pair\n", config.KEMAlg)
		fmt.Fprintf(os.Stderr, "Public key size: %d bytes\n", len(pub))
		fmt.Fprintf(os.Stderr, "Secret key size: %d bytes\n", len(priv))
	}
}

func kemEncapsulate(args []string) {
	config := parseConfig(args)
	pub := loadKeyField(args, "--public-key", "-pk", "public_key")
	e := engine.New()

	start := time.Now()
	ct, ss, err := e.Encapsulate(config.KEMAlg, pub)
	elapsed := time.Since(start)
	if err != nil {
		fatalf("Error encapsulating: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Encapsulation took: %v\n", elapsed)
	}

	export := EncapsulationExport{
		Algorithm:    config.KEMAlg.String(),
		Ciphertext:   encodeBytes(ct, config.OutputFormat),
		SharedSecret: encodeBytes(ss, config.OutputFormat),
	}
	writeExport(export, config)
}

func kemDecapsulate(args []string) {
	config := parseConfig(args)
	priv := loadKeyField(args, "--secret-key", "-sk", "secret_key")
	ct := loadKeyField(args, "--ciphertext", "-ct", "ciphertext")
	e := engine.New()

	start := time.Now()
	ss, err := e.Decapsulate(config.KEMAlg, priv, ct)
	elapsed := time.Since(start)
	if err != nil {
		fatalf("Error decapsulating: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Decapsulation took: %v\n", elapsed)
	}

	fmt.Printf("%s\n", encodeBytes(ss, config.OutputFormat))
}

func signKeygen(args []string) {
	config := parseConfig(args)
	e := engine.New()

	start := time.Now()
	pub, priv, err := e.GenerateSignKeyPair(config.SignAlg)
	elapsed := time.Since(start)
	if err != nil {
		fatalf("Error generating key pair: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Key generation took: %v\n", elapsed)
	}

	export := KeyPairExport{
		Algorithm: config.SignAlg.String(),
		PublicKey: encodeBytes(pub, config.OutputFormat),
		SecretKey: encodeBytes(priv, config.OutputFormat),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	writeExport(export, config)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Generated %s key pair\n", config.SignAlg)
		fmt.Fprintf(os.Stderr, "Public key size: %d bytes\n", len(pub))
		fmt.Fprintf(os.Stderr, "Secret key size: %d bytes\n", len(priv))
	}
}

func signSign(args []string) {
	config := parseConfig(args)
	priv := loadKeyField(args, "--secret-key", "-sk", "secret_key")
	message := getArg(args, "--message", "-m")
	if message == "" {
		fatalf("Error: --message is required")
	}
	e := engine.New()

	start := time.Now()
	sig, err := e.Sign(config.SignAlg, priv, []byte(message))
	elapsed := time.Since(start)
	if err != nil {
		fatalf("Error signing: %v", err)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Signing took: %v\n", elapsed)
	}

	export := SignatureExport{
		Algorithm: config.SignAlg.String(),
		Message:   message,
		Signature: encodeBytes(sig, config.OutputFormat),
	}
	writeExport(export, config)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Signature size: %d bytes\n", len(sig))
	}
}

func signVerify(args []string) {
	config := parseConfig(args)
	pub := loadKeyField(args, "--public-key", "-pk", "public_key")
	sig := loadKeyField(args, "--signature", "-s", "signature")
	message := getArg(args, "--message", "-m")
	e := engine.New()

	start := time.Now()
	ok := e.Verify(config.SignAlg, pub, []byte(message), sig)
	elapsed := time.Since(start)
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Verification took: %v\n", elapsed)
	}

	if ok {
		fmt.Println("Signature: VALID")
	} else {
		fmt.Println("Signature: INVALID")
		os.Exit(1)
	}
}

func handleBenchmark(args []string) {
	config := parseConfig(args)
	e := engine.New()
	iterations := 10
	if v := getArg(args, "--iterations", "-n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			fatalf("Error: --iterations must be a positive integer, got %q", v)
		}
		iterations = n
	}

	fmt.Printf("Benchmarking %s / %s (%d iterations)\n\n", config.KEMAlg, config.SignAlg, iterations)

	pub, priv, err := e.GenerateKEMKeyPair(config.KEMAlg)
	if err != nil {
		fatalf("Benchmark setup failed: %v", err)
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, _, err := e.GenerateKEMKeyPair(config.KEMAlg); err != nil {
			fatalf("KEM keygen failed: %v", err)
		}
	}
	fmt.Printf("  KEM keygen:      %v/op\n", time.Since(start)/time.Duration(iterations))

	start = time.Now()
	var ct []byte
	for i := 0; i < iterations; i++ {
		if ct, _, err = e.Encapsulate(config.KEMAlg, pub); err != nil {
			fatalf("Encapsulation failed: %v", err)
		}
	}
	fmt.Printf("  Encapsulate:     %v/op\n", time.Since(start)/time.Duration(iterations))

	start = time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := e.Decapsulate(config.KEMAlg, priv, ct); err != nil {
			fatalf("Decapsulation failed: %v", err)
		}
	}
	fmt.Printf("  Decapsulate:     %v/op\n", time.Since(start)/time.Duration(iterations))

	spub, spriv, err := e.GenerateSignKeyPair(config.SignAlg)
	if err != nil {
		fatalf("Benchmark setup failed: %v", err)
	}
	msg := []byte("benchmark message payload")

	start = time.Now()
	var sig []byte
	for i := 0; i < iterations; i++ {
		if sig, err = e.Sign(config.SignAlg, spriv, msg); err != nil {
			fatalf("Signing failed: %v", err)
		}
	}
	fmt.Printf("  Sign:            %v/op\n", time.Since(start)/time.Duration(iterations))

	start = time.Now()
	for i := 0; i < iterations; i++ {
		if !e.Verify(config.SignAlg, spub, msg, sig) {
			fatalf("Verification failed during benchmark")
		}
	}
	fmt.Printf("  Verify:          %v/op\n", time.Since(start)/time.Duration(iterations))

	total, err := utils.SafeMultiply(iterations, len(sig))
	if err != nil {
		fatalf("Benchmark total overflowed: %v", err)
	}
	fmt.Printf("\nProcessed %d signature bytes in total\n", total)
}

func parseConfig(args []string) CLIConfig {
	config := CLIConfig{
		KEMAlg:       latticekit.Kyber768,
		SignAlg:      latticekit.Dilithium3,
		OutputFormat: FormatBase64,
	}

	switch level := getArg(args, "--level", "-l"); level {
	case "512":
		config.KEMAlg = latticekit.Kyber512
	case "768":
		config.KEMAlg = latticekit.Kyber768
	case "1024":
		config.KEMAlg = latticekit.Kyber1024
	case "2":
		config.SignAlg = latticekit.Dilithium2
	case "3":
		config.SignAlg = latticekit.Dilithium3
	case "5":
		config.SignAlg = latticekit.Dilithium5
	case "":
		// No level specified, use defaults
	default:
		fatalf("Error: invalid security level '%s'. Must be one of: 512, 768, 1024, 2, 3, 5", level)
	}

	switch format := getArg(args, "--format", "-f"); format {
	case "hex":
		config.OutputFormat = FormatHex
	case "base64":
		config.OutputFormat = FormatBase64
	case "":
		// No format specified, use default
	default:
		fatalf("Error: invalid format '%s'. Must be one of: hex, base64", format)
	}

	config.OutputFile = getArg(args, "--output", "-o")
	config.Verbose = hasFlag(args, "--verbose", "-v")
	config.Timing = hasFlag(args, "--timing", "-t")
	return config
}

func getArg(args []string, long, short string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || args[i] == short {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || arg == short {
			return true
		}
	}
	return false
}

func encodeBytes(data []byte, format OutputFormat) string {
	if format == FormatHex {
		return hex.EncodeToString(data)
	}
	return base64.StdEncoding.EncodeToString(data)
}

// decodeString accepts either encoding, so files produced with one format
// can be consumed regardless of the current --format flag.
func decodeString(s string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return hex.DecodeString(s)
}

// loadKeyField reads the named flag as a file path and extracts a single
// encoded field from the JSON document inside.
func loadKeyField(args []string, long, short, field string) []byte {
	path := getArg(args, long, short)
	if path == "" {
		fatalf("Error: %s is required", long)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		fatalf("Error reading %s: %v", path, err)
	}
	if err := utils.CheckLength(len(raw), utils.MaxPayloadLength); err != nil {
		fatalf("Error reading %s: %v", path, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		fatalf("Error parsing %s: %v", path, err)
	}
	value, ok := doc[field].(string)
	if !ok {
		fatalf("Error: %s has no %q field", path, field)
	}
	data, err := decodeString(value)
	if err != nil {
		fatalf("Error decoding %q from %s: %v", field, path, err)
	}
	return data
}

func writeExport(export interface{}, config CLIConfig) {
	output, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		fatalf("Error marshaling output: %v", err)
	}
	if config.OutputFile == "" {
		fmt.Println(string(output))
		return
	}
	if err := os.WriteFile(config.OutputFile, output, 0600); err != nil {
		fatalf("Error writing %s: %v", config.OutputFile, err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
