package ubl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
	"golang.org/x/time/rate"
)

// ReaderOption configures optional Reader behavior.
type ReaderOption func(*Reader)

// WithChainVerification enables strict prev_cid chain checking: each
// entry's PrevCid must equal the previous entry's Cid. Off by default.
func WithChainVerification() ReaderOption {
	return func(r *Reader) { r.chainVerify = true }
}

// Reader is an ordered, verifying iterator over one ledger segment file.
type Reader struct {
	f           *os.File
	scanner     *bufio.Scanner
	chainVerify bool
	prevCid     *atomtypes.Cid32
	lineNo      int
	err         error
	cur         Entry
}

// NewReader opens path for ordered reading.
func NewReader(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ubl: open %s: %w", path, err)
	}
	r := &Reader{f: f, scanner: bufio.NewScanner(f)}
	r.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Next advances to the next entry, returning false at EOF or on error. Call
// Err after Next returns false to distinguish EOF from a decode failure;
// malformed lines are surfaced as errors, never silently skipped.
func (r *Reader) Next() bool {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		r.lineNo++
		if len(bytesTrimSpace(line)) == 0 {
			continue // blank lines are not malformed entries
		}
		var e Entry
		if err := unmarshalCanonical(line, &e); err != nil {
			r.err = fmt.Errorf("ubl: line %d: decode: %w", r.lineNo, err)
			return false
		}
		if err := e.Verify(); err != nil {
			r.err = fmt.Errorf("ubl: line %d: %w", r.lineNo, err)
			return false
		}
		if r.chainVerify {
			if err := r.checkChain(e); err != nil {
				r.err = fmt.Errorf("ubl: line %d: %w", r.lineNo, err)
				return false
			}
		}
		cid := e.Cid
		r.prevCid = &cid
		r.cur = e
		return true
	}
	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("ubl: scan: %w", err)
	}
	return false
}

func (r *Reader) checkChain(e Entry) error {
	if r.prevCid == nil {
		return nil // first entry in this segment has nothing to chain against
	}
	if e.PrevCid == nil || *e.PrevCid != *r.prevCid {
		return fmt.Errorf("chain break: expected prev_cid %s", r.prevCid)
	}
	return nil
}

// Entry returns the most recently decoded entry.
func (r *Reader) Entry() Entry { return r.cur }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// Tail follows path for new entries, polling at a pace bounded by limiter,
// invoking onEntry for each verified entry until ctx is cancelled.
func Tail(ctx context.Context, path string, limiter *rate.Limiter, onEntry func(Entry) error) error {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(300*time.Millisecond), 1)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ubl: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("ubl: seek end: %w", err)
	}
	reader := bufio.NewReader(f)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && len(bytesTrimSpace(line)) > 0 {
			var e Entry
			if decErr := unmarshalCanonical(line, &e); decErr == nil {
				if verr := e.Verify(); verr == nil {
					if cbErr := onEntry(e); cbErr != nil {
						return cbErr
					}
				}
			}
		}
		if err != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			// re-seek to current offset in case the underlying file was
			// rotated out from under us is out of scope here; callers
			// needing rotation-aware tailing should re-open per segment.
			continue
		}
	}
}

func bytesTrimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
