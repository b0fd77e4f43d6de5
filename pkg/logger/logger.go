package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with a typed Field API. Children created by With share
// the parent's error collector, including one attached after they were created.
type Logger struct {
	zl     zerolog.Logger
	fields []Field
	sink   *collectorSink
}

type collectorSink struct {
	mu sync.RWMutex
	c  *LogCollector
}

func (s *collectorSink) get() *LogCollector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c
}

func (s *collectorSink) swap(c *LogCollector) *LogCollector {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.c
	s.c = c
	return old
}

type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json or console
	Output  string // stdout, stderr, or file path
	Service string // value of the "service" field on every entry
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zctx := zerolog.New(out).Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4)
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	return &Logger{zl: zctx.Logger(), sink: &collectorSink{}}, nil
}

func openOutput(target string) (io.Writer, error) {
	switch target {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, nil
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &collectorSink{}}
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	zctx := l.zl.With()
	for _, f := range fields {
		zctx = zctx.Interface(f.key, f.value)
	}
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{zl: zctx.Logger(), fields: merged, sink: l.sink}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.log(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) { l.log(l.zl.Warn(), msg, fields) }

// Error logs msg and, when a collector is attached, aggregates it for publishing.
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(l.zl.Error(), msg, fields)
	l.collect(zerolog.ErrorLevel.String(), msg, fields)
}

func (l *Logger) log(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		f.add(e)
	}
	e.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	c := l.sink.get()
	if c == nil {
		return
	}

	values := make(map[string]interface{}, len(l.fields)+len(fields))
	for _, f := range l.fields {
		values[f.key] = f.value
	}
	for _, f := range fields {
		values[f.key] = f.value
	}
	c.AddLog(level, msg, values, caller(3))
}

// caller reports file:line relative to the module root.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if i := strings.Index(file, "/CrashRadar/"); i >= 0 {
		file = file[i+len("/CrashRadar/"):]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// AddCollector starts aggregating error logs, replacing any previous collector.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if old := l.sink.swap(NewLogCollector(config)); old != nil {
		old.Close()
	}
}

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	if old := l.sink.swap(nil); old != nil {
		old.Close()
	}
}

// Field is one structured key/value pair.
type Field struct {
	key   string
	value interface{}
	add   func(*zerolog.Event)
}

func String(key, value string) Field {
	return Field{key: key, value: value, add: func(e *zerolog.Event) { e.Str(key, value) }}
}

func Strings(key string, value []string) Field {
	return Field{key: key, value: value, add: func(e *zerolog.Event) { e.Strs(key, value) }}
}

func Int(key string, value int) Field {
	return Field{key: key, value: value, add: func(e *zerolog.Event) { e.Int(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{key: key, value: value, add: func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{key: key, value: value, add: func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Duration logs d in milliseconds.
func Duration(key string, d time.Duration) Field {
	ms := d.Milliseconds()
	return Field{key: key, value: ms, add: func(e *zerolog.Event) { e.Int64(key, ms) }}
}

func Error(err error) Field {
	var v interface{}
	if err != nil {
		v = err.Error()
	}
	return Field{key: zerolog.ErrorFieldName, value: v, add: func(e *zerolog.Event) { e.Err(err) }}
}

func Any(key string, value interface{}) Field {
	return Field{key: key, value: value, add: func(e *zerolog.Event) { e.Interface(key, value) }}
}
