package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
	"github.com/logline-foundation/atomic-core/pkg/capsule"
)

// runCapsuleCmd dispatches the `logline capsule <create|verify>` subcommands.
func runCapsuleCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: logline capsule <create|verify> [flags]")
		return 2
	}
	switch args[0] {
	case "create":
		return runCapsuleCreate(args[1:], stdout, stderr)
	case "verify":
		return runCapsuleVerify(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown capsule subcommand: %s\n", args[0])
		return 2
	}
}

func runCapsuleCreate(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("capsule create", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in         string
		out        string
		keyPath    string
		keyringDir string
		keyID      string
		dim        uint
	)
	cmd.StringVar(&in, "in", "", "Path to the payload to wrap (REQUIRED)")
	cmd.StringVar(&out, "out", "", "Path to write the capsule (REQUIRED)")
	cmd.StringVar(&keyPath, "key", "", "Path to a signing key seed")
	cmd.StringVar(&keyringDir, "keyring", "", "Directory of provisioned signer seeds (*.key); overrides --key")
	cmd.StringVar(&keyID, "key-id", "", "Key id to select from --keyring; defaults to the active key")
	cmd.UintVar(&dim, "dim", 0, "Domain identifier tag")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" || out == "" || (keyPath == "" && keyringDir == "") {
		fmt.Fprintln(stderr, "Error: --in, --out, and one of --key/--keyring are required")
		return 2
	}

	payload, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read payload: %v\n", err)
		return 2
	}
	signer, err := resolveSigner(keyPath, keyringDir, keyID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cs, err := capsule.Create(uint16(dim), payload, capsule.FlagNone, signer, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: create capsule: %v\n", err)
		return 2
	}
	if err := os.WriteFile(out, cs.ToBytes(), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: write capsule: %v\n", err)
		return 2
	}
	fmt.Fprintf(stdout, "capsule written to %s (cid %s)\n", out, cs.Header.Cid)
	slog.Default().Info("capsule created", "cid", cs.Header.Cid.String(), "dim", dim)
	return 0
}

func runCapsuleVerify(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("capsule verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in     string
		pubHex string
	)
	cmd.StringVar(&in, "in", "", "Path to a capsule file (REQUIRED)")
	cmd.StringVar(&pubHex, "pubkey", "", "Expected signer public key (hex); CID-only check if omitted")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" {
		fmt.Fprintln(stderr, "Error: --in is required")
		return 2
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read capsule: %v\n", err)
		return 2
	}
	cs, err := capsule.FromBytes(raw)
	if err != nil {
		fmt.Fprintf(stderr, "Error: parse capsule: %v\n", err)
		return 2
	}

	if pubHex == "" {
		if err := cs.VerifyCID(); err != nil {
			slog.Default().Warn("capsule verify failed", "path", in, "error", err)
			fmt.Fprintf(stderr, "verification failed: %v\n", err)
			return 1
		}
	} else {
		pub, err := atomtypes.PublicKeyFromHex(pubHex)
		if err != nil {
			fmt.Fprintf(stderr, "Error: parse --pubkey: %v\n", err)
			return 2
		}
		if err := cs.VerifyWith(pub); err != nil {
			slog.Default().Warn("capsule verify failed", "path", in, "error", err)
			fmt.Fprintf(stderr, "verification failed: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(stdout, "capsule OK (cid %s)\n", cs.Header.Cid)
	slog.Default().Info("capsule verified", "cid", cs.Header.Cid.String())
	return 0
}
