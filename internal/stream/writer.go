package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BioHazard786/syncwatch/internal/client"
)

// Writer stores chunk frames at their offsets. Frames may arrive twice, once
// from the data channel and once from the relay buffer; duplicates are
// ignored by Seq.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	seen     map[uint64]struct{}
	written  uint64
	size     uint64
	finalSeq uint64
	hasFinal bool
}

// NewWriter creates path, picking a free name if it already exists.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, client.WrapError("create directory", err, dir)
		}
	}
	path = uniquePath(path)

	file, err := os.Create(path)
	if err != nil {
		return nil, client.WrapError("create file", err, path)
	}

	return &Writer{
		file: file,
		path: path,
		seen: make(map[uint64]struct{}),
	}, nil
}

func (w *Writer) Path() string {
	return w.path
}

// SetSize records the total size announced by the host.
func (w *Writer) SetSize(size uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.size = size
}

// Write stores a chunk frame. It reports false for a duplicate.
func (w *Writer) Write(f Frame) (bool, error) {
	if f.Type != FrameChunk {
		return false, fmt.Errorf("%w: %q", ErrUnexpectedFrame, f.Type)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, dup := w.seen[f.Seq]; dup {
		return false, nil
	}
	if len(f.Bytes) > 0 {
		if _, err := w.file.WriteAt(f.Bytes, int64(f.Offset)); err != nil {
			return false, client.WrapError("write", err, w.path)
		}
	}

	w.seen[f.Seq] = struct{}{}
	w.written += uint64(len(f.Bytes))
	if f.Final {
		w.hasFinal = true
		w.finalSeq = f.Seq
		if w.size == 0 {
			w.size = f.Offset + uint64(len(f.Bytes))
		}
	}
	return true, nil
}

// Progress returns bytes written and the expected total, zero if unknown.
func (w *Writer) Progress() (written, size uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written, w.size
}

// Complete reports whether every chunk up to the final one is stored.
func (w *Writer) Complete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasFinal && uint64(len(w.seen)) == w.finalSeq+1
}

func (w *Writer) Close() error {
	return w.file.Close()
}

// uniquePath appends (1), (2), ... until the name is free.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
