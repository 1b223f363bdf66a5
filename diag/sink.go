package diag

import (
	"log/slog"
	"sync"
)

// Sink receives diagnostics. Implementations must not panic.
type Sink interface {
	Warn(d *Diagnostic)
}

type SinkFunc func(d *Diagnostic)

func (f SinkFunc) Warn(d *Diagnostic) { f(d) }

var process = struct {
	sync.RWMutex
	sink Sink
}{sink: NewLogSink(nil)}

// Default returns the process-wide sink.
func Default() Sink {
	process.RLock()
	defer process.RUnlock()
	return process.sink
}

// SetDefault replaces the process-wide sink and returns a func restoring the
// previous one.
func SetDefault(s Sink) (restore func()) {
	process.Lock()
	prev := process.sink
	process.sink = s
	process.Unlock()
	return func() {
		process.Lock()
		process.sink = prev
		process.Unlock()
	}
}

// LogSink writes every diagnostic as a structured warning record.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink uses slog.Default() when logger is nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Warn(d *Diagnostic) {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		slog.String("kind", d.Kind.String()),
		slog.String("file", d.Location.File),
		slog.Int("line", d.Location.Line),
		slog.Int("column", d.Location.Column),
	}
	if d.Object != "" {
		attrs = append(attrs, slog.String("object", d.Object))
	}
	if d.Property != "" {
		attrs = append(attrs, slog.String("property", d.Property))
	}
	if d.Err != nil {
		attrs = append(attrs, slog.Any("error", d.Err))
	}
	logger.Warn(d.Message, attrs...)
}

// Multi fans a diagnostic out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(d *Diagnostic) {
		for _, s := range sinks {
			s.Warn(d)
		}
	})
}

// Recorder keeps every diagnostic it receives.
type Recorder struct {
	diags []*Diagnostic
}

func (r *Recorder) Warn(d *Diagnostic) {
	r.diags = append(r.diags, d)
}

func (r *Recorder) All() []*Diagnostic {
	return r.diags
}

func (r *Recorder) Len() int {
	return len(r.diags)
}

func (r *Recorder) OfKind(kind Kind) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range r.diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Unique returns the first diagnostic of each fingerprint, with the number
// of times it was reported.
func (r *Recorder) Unique() ([]*Diagnostic, map[uint64]int) {
	counts := make(map[uint64]int, len(r.diags))
	var out []*Diagnostic
	for _, d := range r.diags {
		fp := d.Fingerprint()
		if counts[fp] == 0 {
			out = append(out, d)
		}
		counts[fp]++
	}
	return out, counts
}

func (r *Recorder) Reset() {
	r.diags = r.diags[:0]
}
