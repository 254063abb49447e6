package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/logline-foundation/atomic-core/pkg/canon"
	"github.com/logline-foundation/atomic-core/pkg/sirp"
)

// runFrameCmd dispatches the `logline frame <encode|decode|verify>` subcommands.
func runFrameCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: logline frame <encode|decode|verify> [flags]")
		return 2
	}
	switch args[0] {
	case "encode":
		return runFrameEncode(args[1:], stdout, stderr)
	case "decode":
		return runFrameDecode(args[1:], stdout, stderr)
	case "verify":
		return runFrameVerify(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown frame subcommand: %s\n", args[0])
		return 2
	}
}

func runFrameEncode(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("frame encode", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in         string
		out        string
		keyPath    string
		keyringDir string
		keyID      string
	)
	cmd.StringVar(&in, "in", "", "Path to a JSON intent document (REQUIRED)")
	cmd.StringVar(&out, "out", "", "Path to write the encoded frame (REQUIRED)")
	cmd.StringVar(&keyPath, "key", "", "Path to a signing key seed; unsigned frame if omitted")
	cmd.StringVar(&keyringDir, "keyring", "", "Directory of provisioned signer seeds (*.key); overrides --key")
	cmd.StringVar(&keyID, "key-id", "", "Key id to select from --keyring; defaults to the active key")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" || out == "" {
		fmt.Fprintln(stderr, "Error: --in and --out are required")
		return 2
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read intent: %v\n", err)
		return 2
	}
	parsed, err := canon.Parse(raw)
	if err != nil {
		fmt.Fprintf(stderr, "Error: parse intent: %v\n", err)
		return 2
	}
	canonical, err := canon.Canonicalize(parsed)
	if err != nil {
		fmt.Fprintf(stderr, "Error: canonicalize intent: %v\n", err)
		return 2
	}

	frame := sirp.Unsigned(sirp.NewCanonIntent(canonical))
	if keyPath != "" || keyringDir != "" {
		signer, err := resolveSigner(keyPath, keyringDir, keyID)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		frame = frame.Sign(signer)
	}

	if err := os.WriteFile(out, sirp.Encode(frame), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: write frame: %v\n", err)
		return 2
	}
	fmt.Fprintf(stdout, "frame written to %s (cid %s)\n", out, frame.Intent.Cid)
	slog.Default().Info("frame encoded", "cid", frame.Intent.Cid.String(), "signed", frame.Flags&sirp.FlagSigned != 0)
	return 0
}

func runFrameDecode(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("frame decode", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		in         string
		jsonOutput bool
	)
	cmd.StringVar(&in, "in", "", "Path to an encoded frame (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the decoded frame as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" {
		fmt.Fprintln(stderr, "Error: --in is required")
		return 2
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read frame: %v\n", err)
		return 2
	}
	frame, err := sirp.Decode(raw)
	if err != nil {
		slog.Default().Warn("frame decode failed", "path", in, "error", err)
		fmt.Fprintf(stderr, "Error: decode frame: %v\n", err)
		return 1
	}
	slog.Default().Debug("frame decoded", "cid", frame.Intent.Cid.String())

	if jsonOutput {
		result := map[string]any{
			"cid":    frame.Intent.Cid.String(),
			"signed": frame.Flags&sirp.FlagSigned != 0,
			"intent": json.RawMessage(frame.Intent.Bytes),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprintf(stdout, "cid: %s\n", frame.Intent.Cid)
		fmt.Fprintf(stdout, "signed: %v\n", frame.Flags&sirp.FlagSigned != 0)
		fmt.Fprintf(stdout, "intent: %s\n", frame.Intent.Bytes)
	}
	return 0
}

func runFrameVerify(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("frame verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var in string
	cmd.StringVar(&in, "in", "", "Path to an encoded frame (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if in == "" {
		fmt.Fprintln(stderr, "Error: --in is required")
		return 2
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read frame: %v\n", err)
		return 2
	}
	frame, err := sirp.Decode(raw)
	if err != nil {
		slog.Default().Warn("frame verify failed", "path", in, "error", err)
		fmt.Fprintf(stderr, "verification failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "frame OK")
	slog.Default().Info("frame verified", "cid", frame.Intent.Cid.String())
	return 0
}
