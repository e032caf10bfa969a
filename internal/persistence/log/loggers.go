// Package log persists tick and moon records as hourly zstd-compressed
// JSONL files.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"survivalsim.ai/internal/sim/world"
)

// JSONLZstdWriter appends JSON lines to <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst,
// opening a new file (and zstd frame) when the UTC hour changes.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour || w.w == nil {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.enc, w.curHour = f, enc, hour
	w.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	return err
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// TickLogger writes one line per tick under <worldDir>/ticks.
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.w.Write(e) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// MoonLogger writes one line per finished moon under <worldDir>/moons.
type MoonLogger struct{ w *JSONLZstdWriter }

func NewMoonLogger(worldDir string) *MoonLogger {
	return &MoonLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "moons"), "moons")}
}

func (l *MoonLogger) WriteMoon(e world.MoonLogEntry) error { return l.w.Write(e) }
func (l *MoonLogger) Close() error                         { return l.w.Close() }

// Files lists <dir>/*.jsonl.zst in name (and so time) order.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadJSONL decodes every line of a .jsonl.zst file into a fresh T and
// passes it to fn. fn returning an error stops the scan.
func ReadJSONL[T any](path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()
	return scanLines(dec, path, fn)
}

func scanLines[T any](r io.Reader, path string, fn func(T) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadTicks streams every tick entry under <worldDir>/ticks in order.
func ReadTicks(worldDir string, fn func(world.TickLogEntry) error) error {
	files, err := Files(filepath.Join(worldDir, "ticks"))
	if err != nil {
		return err
	}
	for _, p := range files {
		if err := ReadJSONL(p, fn); err != nil {
			return err
		}
	}
	return nil
}
