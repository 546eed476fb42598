// Package events appends structured JSON events to a rotating log file for
// external monitoring. One object per line: timestamp, event_type, status,
// plus contextual fields.
package events

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MaxLogSize is the rotation threshold for the active event log.
const MaxLogSize = 10 << 20 // 10 MiB

// Logger emits structured JSON-lines events.
type Logger struct {
	z    *zap.Logger
	sink *rotatingFile
}

// New creates an event logger appending to path, rotating the file to a
// timestamped sibling once it exceeds MaxLogSize.
func New(path string) (*Logger, error) {
	sink, err := openRotatingFile(path, MaxLogSize)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		MessageKey:     "event_type",
		LevelKey:       zapcore.OmitKey,
		NameKey:        zapcore.OmitKey,
		CallerKey:      zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     utcISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(sink), zapcore.InfoLevel)
	return &Logger{z: zap.New(core), sink: sink}, nil
}

// Nop returns a logger that discards every event.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Emit writes one event line with the given type, status, and fields.
func (l *Logger) Emit(eventType, status string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+1)
	all = append(all, zap.String("status", status))
	all = append(all, fields...)
	l.z.Info(eventType, all...)
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	_ = l.z.Sync()
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

func utcISO8601TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(time.RFC3339Nano))
}

// rotatingFile is an append-only file that rotates to events_<unix>.jsonl
// once its size exceeds maxSize.
type rotatingFile struct {
	mu      sync.Mutex
	path    string
	maxSize int64
	file    *os.File
	size    int64
}

func openRotatingFile(path string, maxSize int64) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &rotatingFile{path: path, maxSize: maxSize, file: f, size: info.Size()}, nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Sync()
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

func (r *rotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	rotated := filepath.Join(filepath.Dir(r.path), fmt.Sprintf("events_%d.jsonl", time.Now().Unix()))
	if err := os.Rename(r.path, rotated); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}
