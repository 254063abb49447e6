package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = Run(append([]string{"logline"}, args...), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestKeygenWritesSeedAndPrintsPublicKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "signer.key")
	out, _, code := run(t, "keygen", "-out", keyPath)
	if code != 0 {
		t.Fatalf("keygen exited %d", code)
	}
	if !strings.Contains(out, "public key:") {
		t.Fatalf("expected public key in output, got %q", out)
	}
}

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "signer.key")
	if _, _, code := run(t, "keygen", "-out", keyPath); code != 0 {
		t.Fatalf("keygen failed")
	}

	intentPath := filepath.Join(dir, "intent.json")
	writeFile(t, intentPath, `{"b":1,"a":2}`)

	framePath := filepath.Join(dir, "frame.bin")
	if _, stderr, code := run(t, "frame", "encode", "-in", intentPath, "-out", framePath, "-key", keyPath); code != 0 {
		t.Fatalf("frame encode failed: %s", stderr)
	}

	out, stderr, code := run(t, "frame", "decode", "-in", framePath)
	if code != 0 {
		t.Fatalf("frame decode failed: %s", stderr)
	}
	if !strings.Contains(out, "signed: true") {
		t.Fatalf("expected signed frame, got %q", out)
	}

	_, _, code = run(t, "frame", "verify", "-in", framePath)
	if code != 0 {
		t.Fatalf("frame verify failed")
	}
}

func TestFrameDecodeRejectsTamperedFrame(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "signer.key")
	run(t, "keygen", "-out", keyPath)

	intentPath := filepath.Join(dir, "intent.json")
	writeFile(t, intentPath, `{"x":1}`)

	framePath := filepath.Join(dir, "frame.bin")
	run(t, "frame", "encode", "-in", intentPath, "-out", framePath, "-key", keyPath)

	tamper(t, framePath)

	_, _, code := run(t, "frame", "verify", "-in", framePath)
	if code == 0 {
		t.Fatal("expected verify to fail on a tampered frame")
	}
}

func TestUBLAppendAndVerify(t *testing.T) {
	dir := t.TempDir()
	ledgerDir := filepath.Join(dir, "ledger")
	keyPath := filepath.Join(dir, "signer.key")
	run(t, "keygen", "-out", keyPath)

	intentPath := filepath.Join(dir, "intent.json")
	writeFile(t, intentPath, `{"action":"mint"}`)

	if _, stderr, code := run(t, "ubl", "append", "-ledger", ledgerDir, "-in", intentPath, "-actor", "tester", "-key", keyPath); code != 0 {
		t.Fatalf("ubl append failed: %s", stderr)
	}

	segment := findSegment(t, ledgerDir)
	if _, stderr, code := run(t, "ubl", "verify", "-segment", segment); code != 0 {
		t.Fatalf("ubl verify failed: %s", stderr)
	}
	out, _, code := run(t, "ubl", "info", "-segment", segment)
	if code != 0 || !strings.Contains(out, "entries: 1") {
		t.Fatalf("expected one entry, got %q", out)
	}
}

func TestFrameEncodeWithKeyring(t *testing.T) {
	dir := t.TempDir()
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o755); err != nil {
		t.Fatalf("mkdir keyring: %v", err)
	}

	if _, _, code := run(t, "keygen", "-out", filepath.Join(keyringDir, "a.key")); code != 0 {
		t.Fatalf("keygen a failed")
	}
	if _, _, code := run(t, "keygen", "-out", filepath.Join(keyringDir, "z.key")); code != 0 {
		t.Fatalf("keygen z failed")
	}

	intentPath := filepath.Join(dir, "intent.json")
	writeFile(t, intentPath, `{"op":"mint"}`)

	framePath := filepath.Join(dir, "frame.bin")
	out, stderr, code := run(t, "frame", "encode", "-in", intentPath, "-out", framePath, "-keyring", keyringDir)
	if code != 0 {
		t.Fatalf("frame encode with keyring failed: %s", stderr)
	}
	if !strings.Contains(out, "frame written to") {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, stderr, code := run(t, "frame", "verify", "-in", framePath); code != 0 {
		t.Fatalf("frame verify failed: %s", stderr)
	}

	// Selecting an explicit key id should also succeed.
	framePath2 := filepath.Join(dir, "frame2.bin")
	if _, stderr, code := run(t, "frame", "encode", "-in", intentPath, "-out", framePath2, "-keyring", keyringDir, "-key-id", "a"); code != 0 {
		t.Fatalf("frame encode with explicit key id failed: %s", stderr)
	}
	if _, stderr, code := run(t, "frame", "verify", "-in", framePath2); code != 0 {
		t.Fatalf("frame verify (explicit key id) failed: %s", stderr)
	}
}

func TestCapsuleCreateAndVerify(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "signer.key")
	run(t, "keygen", "-out", keyPath)

	payloadPath := filepath.Join(dir, "payload.bin")
	writeFile(t, payloadPath, "capsule payload")

	capsulePath := filepath.Join(dir, "payload.cap")
	if _, stderr, code := run(t, "capsule", "create", "-in", payloadPath, "-out", capsulePath, "-key", keyPath, "-dim", "7"); code != 0 {
		t.Fatalf("capsule create failed: %s", stderr)
	}

	if _, stderr, code := run(t, "capsule", "verify", "-in", capsulePath); code != 0 {
		t.Fatalf("capsule verify failed: %s", stderr)
	}
}
