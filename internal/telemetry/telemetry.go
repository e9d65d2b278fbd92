// Package telemetry defines the per-attempt injection records and the
// sinks they are flushed to. Text content is never recorded: only its
// length and, when redaction is enabled, a non-reversible fingerprint.
package telemetry

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

// Attempt results.
const (
	ResultOK      = "ok"
	ResultTimeout = "timeout"
	ResultError   = "error"
)

// Confirm carries event-based confirmation flags.
type Confirm struct {
	TextChanged bool `json:"text_changed"`
}

// Clipboard carries guard flags for clipboard-based attempts.
type Clipboard struct {
	Seeded   bool `json:"seeded"`
	Restored bool `json:"restored"`
}

// Record is one injection attempt, JSON-shaped per the telemetry contract.
type Record struct {
	TS        time.Time `json:"ts"`
	AppID     string    `json:"app_id"`
	Method    string    `json:"method"`
	StageMS   int64     `json:"stage_ms"`
	Confirm   Confirm   `json:"confirm"`
	Clipboard Clipboard `json:"clipboard"`
	Result    string    `json:"result"`
	TotalMS   int64     `json:"total_ms"`
	TextLen   int       `json:"text_len"`
	TextFP    string    `json:"text_fp,omitempty"`
}

// Sink receives attempt records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(Record)
}

// Fingerprint returns a short non-reversible digest of text for
// correlating attempts without logging content.
func Fingerprint(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Flush delivers a batch of records to sink, containing any panic a
// misbehaving sink raises so telemetry failures can never fail an
// injection call.
func Flush(logger *slog.Logger, sink Sink, records []Record) {
	if sink == nil || len(records) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("telemetry sink panicked; batch dropped",
				"panic", fmt.Sprint(r),
				"records", len(records),
			)
		}
	}()
	for _, rec := range records {
		sink.Record(rec)
	}
}

// LogSink emits each record as one structured log line.
type LogSink struct {
	Logger *slog.Logger
}

// Record logs the attempt.
func (s LogSink) Record(r Record) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("injection attempt",
		"ts", r.TS.Format(time.RFC3339Nano),
		"app_id", r.AppID,
		"method", r.Method,
		"stage_ms", r.StageMS,
		"confirm_text_changed", r.Confirm.TextChanged,
		"clipboard_seeded", r.Clipboard.Seeded,
		"clipboard_restored", r.Clipboard.Restored,
		"result", r.Result,
		"total_ms", r.TotalMS,
		"text_len", r.TextLen,
		"text_fp", r.TextFP,
	)
}

// MemorySink buffers records for tests and the status surface.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// Record appends r to the buffer.
func (s *MemorySink) Record(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// Records returns a copy of the buffered records.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Reset clears the buffer.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// MultiSink fans records out to several sinks.
type MultiSink []Sink

// Record delivers r to every sink.
func (m MultiSink) Record(r Record) {
	for _, s := range m {
		if s != nil {
			s.Record(r)
		}
	}
}
