package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/logline-foundation/atomic-core/pkg/config"
)

// Dispatcher
func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	slog.Default().Debug("dispatch", "command", args[1])

	switch args[1] {
	case "keygen":
		return runKeygenCmd(args[2:], stdout, stderr)
	case "frame":
		return runFrameCmd(args[2:], stdout, stderr)
	case "ubl":
		return runUBLCmd(args[2:], stdout, stderr)
	case "capsule":
		return runCapsuleCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "atomic-core: canonical JSON, signed frames, ledger, and capsule tooling")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  logline <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  keygen            Generate an Ed25519 signer keypair")
	fmt.Fprintln(w, "  frame encode      Canonicalize + sign a JSON intent into a SIRP frame")
	fmt.Fprintln(w, "  frame decode      Decode a SIRP frame, verifying it in the process")
	fmt.Fprintln(w, "  frame verify      Verify a SIRP frame without printing its intent")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  Signing flags (frame encode, ubl append, capsule create):")
	fmt.Fprintln(w, "    --key             Path to a single signing key seed")
	fmt.Fprintln(w, "    --keyring         Directory of provisioned signer seeds (*.key); overrides --key")
	fmt.Fprintln(w, "    --key-id          Key id to select from --keyring; defaults to the active key")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  ubl append        Append a signed entry to a UBL ledger")
	fmt.Fprintln(w, "  ubl info          Print ledger head/segment information")
	fmt.Fprintln(w, "  ubl verify        Walk a ledger segment verifying CIDs and signatures (chain with --chain)")
	fmt.Fprintln(w, "  ubl tail          Follow a ledger segment, printing new entries")
	fmt.Fprintln(w, "  capsule create    Wrap a payload in a signed LLLV capsule")
	fmt.Fprintln(w, "  capsule verify    Verify an LLLV capsule's CID (and signature with --pubkey)")
	fmt.Fprintln(w, "  help              Show this help")
	fmt.Fprintln(w, "")
}
