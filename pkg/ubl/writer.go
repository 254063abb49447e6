package ubl

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// ErrLockHeld is returned when another writer already holds the directory
// lock file.
var ErrLockHeld = fmt.Errorf("ubl: another writer holds the directory lock")

const lockFileName = ".ubl-writer.lock"

// AppendResult describes where an appended entry landed.
type AppendResult struct {
	Path   string
	LineNo int
	Cid    atomtypes.Cid32
}

// Writer is the single-writer append-only ledger writer for one directory.
// At most one Writer may be open against a given root directory at a time;
// this is enforced by an exclusive O_CREAT|O_EXCL lock file, the normative
// mechanism, with a supplementary advisory flock layered on top.
type Writer struct {
	mu       sync.Mutex
	root     string
	rotation Rotation
	fsync    FsyncPolicy
	clock    func() time.Time

	lockPath string
	lockFile *os.File
	advisory *flock.Flock

	curPath    string
	curFile    *os.File
	curLineNo  int
	lastFsync  time.Time
	linesSince int
	prevCid    *atomtypes.Cid32
}

// Open acquires the writer lock on root and prepares to append.
func Open(root string, rotation Rotation, fsync FsyncPolicy) (*Writer, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ubl: mkdir %s: %w", root, err)
	}
	lockPath := filepath.Join(root, lockFileName)
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("ubl: create lock file: %w", err)
	}

	advisory := flock.New(lockPath)
	_, _ = advisory.TryLock() // best-effort; the O_EXCL file above is normative

	w := &Writer{
		root:      root,
		rotation:  rotation,
		fsync:     fsync,
		clock:     time.Now,
		lockPath:  lockPath,
		lockFile:  lockFile,
		advisory:  advisory,
		lastFsync: time.Now(),
	}
	return w, nil
}

// WithClock overrides the writer's clock (for deterministic tests).
func (w *Writer) WithClock(clock func() time.Time) *Writer {
	w.clock = clock
	return w
}

// Append writes one entry as a canonical NDJSON line, chaining prev_cid to
// the previously appended entry in this writer's lifetime.
func (w *Writer) Append(e Entry) (AppendResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.prevCid != nil {
		prev := *w.prevCid
		e.PrevCid = &prev
	}

	if err := e.Verify(); err != nil {
		return AppendResult{}, fmt.Errorf("ubl: refusing to append invalid entry: %w", err)
	}

	if err := w.ensureSegment(); err != nil {
		return AppendResult{}, err
	}

	line, err := e.CanonicalLine()
	if err != nil {
		return AppendResult{}, err
	}
	if _, err := w.curFile.Write(line); err != nil {
		return AppendResult{}, fmt.Errorf("ubl: write entry: %w", err)
	}
	w.curLineNo++
	w.linesSince++

	if err := w.maybeFsync(); err != nil {
		return AppendResult{}, err
	}

	cid := e.Cid
	w.prevCid = &cid

	return AppendResult{Path: w.curPath, LineNo: w.curLineNo, Cid: cid}, nil
}

// Flush fsyncs the active segment unconditionally.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsyncNow()
}

func (w *Writer) fsyncNow() error {
	if w.curFile == nil {
		return nil
	}
	if err := w.curFile.Sync(); err != nil {
		return fmt.Errorf("ubl: fsync: %w", err)
	}
	w.lastFsync = w.clock()
	w.linesSince = 0
	return nil
}

func (w *Writer) maybeFsync() error {
	switch w.fsync.Kind {
	case FsyncEveryNLines:
		if w.fsync.N <= 0 || w.linesSince >= w.fsync.N {
			return w.fsyncNow()
		}
	case FsyncIntervalMs:
		if w.clock().Sub(w.lastFsync) >= w.fsync.Interval {
			return w.fsyncNow()
		}
	case FsyncManual:
		// caller must call Flush
	}
	return nil
}

// ensureSegment opens (or rotates to) the correct active segment file for
// the current time / size state.
func (w *Writer) ensureSegment() error {
	path, err := w.rotation.pathFor(w.root, w.clock())
	if err != nil {
		return fmt.Errorf("ubl: resolve active segment: %w", err)
	}
	if path == w.curPath && w.curFile != nil {
		return nil
	}

	if w.curFile != nil {
		_ = w.curFile.Sync()
		_ = w.curFile.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ubl: mkdir segment dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("ubl: open segment %s: %w", path, err)
	}
	w.curFile = f
	w.curPath = path
	w.curLineNo = countLines(path)
	return nil
}

func countLines(path string) int {
	r, err := NewReader(path)
	if err != nil {
		return 0
	}
	defer r.Close()
	n := 0
	for r.Next() {
		n++
	}
	return n
}

// Close flushes, closes the active segment, and releases the writer lock.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if w.curFile != nil {
		if err := w.curFile.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.curFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.advisory != nil {
		_ = w.advisory.Unlock()
	}
	if w.lockFile != nil {
		_ = w.lockFile.Close()
		_ = os.Remove(w.lockPath)
	}
	return firstErr
}

// AppendSigned builds an entry from intentBytes, signs it with signer, and
// appends it in one step.
func (w *Writer) AppendSigned(intentBytes []byte, actor string, signer *atomcrypto.Signer) (AppendResult, error) {
	e := NewEntry(intentBytes, actor, w.clock).Sign(signer)
	return w.Append(e)
}
