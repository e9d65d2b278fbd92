package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintIsStableAndContentFree(t *testing.T) {
	fp := Fingerprint("hello world")
	require.Len(t, fp, 16)
	require.Equal(t, fp, Fingerprint("hello world"))
	require.NotEqual(t, fp, Fingerprint("hello worlds"))
	require.NotContains(t, fp, "hello")
}

func TestFlushDeliversAllRecords(t *testing.T) {
	sink := &MemorySink{}
	Flush(nil, sink, []Record{
		{AppID: "kate", Method: "atspi_insert", Result: ResultOK},
		{AppID: "kate", Method: "atspi_insert", Result: ResultTimeout},
	})
	require.Len(t, sink.Records(), 2)
}

func TestFlushNilSinkOrEmptyBatchIsNoOp(t *testing.T) {
	Flush(nil, nil, []Record{{AppID: "kate"}})
	Flush(nil, &MemorySink{}, nil)
}

type panicSink struct{}

func (panicSink) Record(Record) { panic("sink exploded") }

func TestFlushContainsSinkPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NotPanics(t, func() {
		Flush(logger, panicSink{}, []Record{{AppID: "kate"}})
	})
	require.Contains(t, buf.String(), "telemetry sink panicked")
}

func TestMultiSinkFansOutAndSkipsNil(t *testing.T) {
	a := &MemorySink{}
	b := &MemorySink{}
	MultiSink{a, nil, b}.Record(Record{AppID: "kate"})

	require.Len(t, a.Records(), 1)
	require.Len(t, b.Records(), 1)
}

func TestMemorySinkReset(t *testing.T) {
	sink := &MemorySink{}
	sink.Record(Record{AppID: "kate"})
	sink.Reset()
	require.Empty(t, sink.Records())
}

func TestLogSinkEmitsAttributesWithoutText(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	sink.Record(Record{
		AppID:   "kate",
		Method:  "atspi_paste",
		Result:  ResultOK,
		TextLen: 11,
		TextFP:  Fingerprint("hello world"),
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kate", line["app_id"])
	require.Equal(t, "atspi_paste", line["method"])
	require.Equal(t, float64(11), line["text_len"])
	require.NotContains(t, buf.String(), "hello world")
}

func TestLogSinkNilLoggerIsSafe(t *testing.T) {
	require.NotPanics(t, func() { LogSink{}.Record(Record{AppID: "kate"}) })
}
