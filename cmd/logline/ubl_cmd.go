package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/logline-foundation/atomic-core/pkg/canon"
	"github.com/logline-foundation/atomic-core/pkg/config"
	"github.com/logline-foundation/atomic-core/pkg/ubl"
)

// runUBLCmd dispatches the `logline ubl <append|info|verify|tail>` subcommands.
func runUBLCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: logline ubl <append|info|verify|tail> [flags]")
		return 2
	}
	switch args[0] {
	case "append":
		return runUBLAppend(args[1:], stdout, stderr)
	case "info":
		return runUBLInfo(args[1:], stdout, stderr)
	case "verify":
		return runUBLVerify(args[1:], stdout, stderr)
	case "tail":
		return runUBLTail(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown ubl subcommand: %s\n", args[0])
		return 2
	}
}

// openWriter resolves rotation/fsync policy, preferring an on-disk policy
// file (--policy) over the default of no rotation and fsync-every-line.
func openWriter(root, policyPath string) (*ubl.Writer, error) {
	rotation, fsync := ubl.NoRotation(), ubl.EveryNLines(1)
	if policyPath != "" {
		var err error
		rotation, fsync, err = ubl.LoadPolicy(policyPath)
		if err != nil {
			return nil, err
		}
	}
	return ubl.Open(root, rotation, fsync)
}

func runUBLAppend(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	cmd := flag.NewFlagSet("ubl append", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		root       string
		in         string
		actor      string
		keyPath    string
		keyringDir string
		keyID      string
		policy     string
	)
	cmd.StringVar(&root, "ledger", cfg.LedgerDir, "Ledger root directory")
	cmd.StringVar(&in, "in", "", "Path to a JSON intent document (REQUIRED)")
	cmd.StringVar(&actor, "actor", "", "Actor identity recorded on the entry")
	cmd.StringVar(&keyPath, "key", "", "Path to a signing key seed; unsigned entry if omitted")
	cmd.StringVar(&keyringDir, "keyring", "", "Directory of provisioned signer seeds (*.key); overrides --key")
	cmd.StringVar(&keyID, "key-id", "", "Key id to select from --keyring; defaults to the active key")
	cmd.StringVar(&policy, "policy", cfg.PolicyFile, "Path to a YAML rotation/fsync policy file")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if root == "" || in == "" {
		fmt.Fprintln(stderr, "Error: --ledger and --in are required")
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

	w, err := openWriter(root, policy)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open ledger: %v\n", err)
		return 2
	}
	defer w.Close()

	var res ubl.AppendResult
	if keyPath != "" || keyringDir != "" {
		signer, err := resolveSigner(keyPath, keyringDir, keyID)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		res, err = w.AppendSigned(canonical, actor, signer)
		if err != nil {
			fmt.Fprintf(stderr, "Error: append: %v\n", err)
			return 2
		}
	} else {
		entry := ubl.NewEntry(canonical, actor, nil)
		res, err = w.Append(entry)
		if err != nil {
			fmt.Fprintf(stderr, "Error: append: %v\n", err)
			return 2
		}
	}

	fmt.Fprintf(stdout, "appended to %s:%d (cid %s)\n", res.Path, res.LineNo, res.Cid)
	slog.Default().Info("ubl append", "path", res.Path, "line", res.LineNo, "cid", res.Cid, "actor", actor)
	return 0
}

func runUBLInfo(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("ubl info", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var segment string
	cmd.StringVar(&segment, "segment", "", "Path to a ledger segment file (REQUIRED)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if segment == "" {
		fmt.Fprintln(stderr, "Error: --segment is required")
		return 2
	}

	r, err := ubl.NewReader(segment)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open segment: %v\n", err)
		return 2
	}
	defer r.Close()

	count := 0
	var last ubl.Entry
	for r.Next() {
		last = r.Entry()
		count++
	}
	if err := r.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: read segment: %v\n", err)
		return 2
	}

	fmt.Fprintf(stdout, "segment: %s\n", segment)
	fmt.Fprintf(stdout, "entries: %d\n", count)
	if count > 0 {
		fmt.Fprintf(stdout, "head cid: %s\n", last.Cid)
		fmt.Fprintf(stdout, "head ts:  %s\n", last.Ts)
	}
	return 0
}

func runUBLVerify(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("ubl verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		segment string
		chain   bool
	)
	cmd.StringVar(&segment, "segment", "", "Path to a ledger segment file (REQUIRED)")
	cmd.BoolVar(&chain, "chain", false, "Also verify prev-cid chain linkage")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if segment == "" {
		fmt.Fprintln(stderr, "Error: --segment is required")
		return 2
	}

	var opts []ubl.ReaderOption
	if chain {
		opts = append(opts, ubl.WithChainVerification())
	}
	r, err := ubl.NewReader(segment, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open segment: %v\n", err)
		return 2
	}
	defer r.Close()

	count := 0
	for r.Next() {
		count++
	}
	if err := r.Err(); err != nil {
		slog.Default().Warn("ubl verify failed", "segment", segment, "entry", count+1, "error", err)
		fmt.Fprintf(stderr, "verification failed at entry %d: %v\n", count+1, err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: %d entries verified\n", count)
	slog.Default().Info("ubl verified", "segment", segment, "entries", count)
	return 0
}

func runUBLTail(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("ubl tail", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		segment string
		rps     float64
		burst   int
	)
	cmd.StringVar(&segment, "segment", "", "Path to a ledger segment file (REQUIRED)")
	cmd.Float64Var(&rps, "rate", 2.0, "Re-poll rate in polls per second")
	cmd.IntVar(&burst, "burst", 1, "Re-poll limiter burst size")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if segment == "" {
		fmt.Fprintln(stderr, "Error: --segment is required")
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	err := ubl.Tail(ctx, segment, limiter, func(e ubl.Entry) error {
		fmt.Fprintf(stdout, "%s %s %s\n", e.Ts, e.Cid, e.Actor)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(stderr, "Error: tail: %v\n", err)
		return 2
	}
	return 0
}
