package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
)

// runKeygenCmd implements `logline keygen`: generates a fresh Ed25519
// signer keypair and writes its 32-byte seed to --out, printing the public
// key to stdout.
func runKeygenCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("keygen", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var out string
	cmd.StringVar(&out, "out", "", "Path to write the signer seed (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if out == "" {
		fmt.Fprintln(stderr, "Error: --out is required")
		return 2
	}

	signer, err := atomcrypto.NewSigner()
	if err != nil {
		fmt.Fprintf(stderr, "Error: generate signer: %v\n", err)
		return 2
	}

	if err := os.WriteFile(out, signer.Seed(), 0o600); err != nil {
		fmt.Fprintf(stderr, "Error: write seed: %v\n", err)
		return 2
	}

	fmt.Fprintf(stdout, "public key: %s\n", signer.PublicKey())
	fmt.Fprintf(stdout, "seed written to: %s\n", out)
	slog.Default().Info("keygen: generated signer", "public_key", signer.PublicKey(), "out", out)
	return 0
}

// loadSigner reads a 32-byte Ed25519 seed from path and builds a Signer.
func loadSigner(path string) (*atomcrypto.Signer, error) {
	seed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key %s: %w", path, err)
	}
	return atomcrypto.NewSignerFromSeed(seed)
}

// loadKeyRing builds a KeyRing from every *.key seed file in dir, registering
// each under a key id derived from its filename (signer.key -> "signer").
func loadKeyRing(dir string) (*atomcrypto.KeyRing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read keyring dir %s: %w", dir, err)
	}

	ring := atomcrypto.NewKeyRing()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".key" {
			continue
		}
		keyID := strings.TrimSuffix(e.Name(), ".key")
		signer, err := loadSigner(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load keyring entry %s: %w", e.Name(), err)
		}
		ring.Add(keyID, signer)
	}
	return ring, nil
}

// resolveSigner picks the signer a frame/ledger/capsule operation should
// sign with: an explicit --keyring directory (optionally narrowed to
// --key-id, otherwise the keyring's active key) takes precedence over a
// single --key seed file.
func resolveSigner(keyPath, keyringDir, keyID string) (*atomcrypto.Signer, error) {
	if keyringDir != "" {
		ring, err := loadKeyRing(keyringDir)
		if err != nil {
			return nil, err
		}
		if keyID != "" {
			signer, ok := ring.Get(keyID)
			if !ok {
				return nil, fmt.Errorf("atomcrypto: unknown key id %q in keyring %s", keyID, keyringDir)
			}
			return signer, nil
		}
		active, signer, err := ring.Active()
		if err != nil {
			return nil, err
		}
		slog.Default().Debug("resolved active keyring signer", "key_id", active)
		return signer, nil
	}
	return loadSigner(keyPath)
}
