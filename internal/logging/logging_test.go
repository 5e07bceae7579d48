package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu      sync.Mutex
	batches [][]SystemLog
	err     error
}

func (w *memWriter) write(batch []SystemLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, batch)
	return w.err
}

func (w *memWriter) rows() []SystemLog {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []SystemLog
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

func TestPGHandler_PersistsErrorsOnStop(t *testing.T) {
	w := &memWriter{}
	h := newPGHandler(w.write, time.Hour)
	logger := slog.New(h).With("request_id", "req-1")

	logger.Info("ignored")
	logger.Error("pipeline failed",
		"pipeline", "register",
		"stage", "insert-user",
		"elapsed", 1500*time.Millisecond,
		"error", errors.New("store unavailable"),
		"kind", "store_unavailable",
	)
	h.Stop()

	rows := w.rows()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "ERROR", row.Level)
	assert.Equal(t, "pipeline failed", row.Message)
	assert.Equal(t, "req-1", row.RequestID)
	assert.Equal(t, "register", row.Pipeline)
	assert.Equal(t, "insert-user", row.Stage)
	assert.Equal(t, "store unavailable", row.Error)
	assert.Equal(t, 1500, row.LatencyMs)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(row.Extra, &extra))
	assert.Equal(t, "store_unavailable", extra["kind"])
}

func TestPGHandler_FlushesFullBatch(t *testing.T) {
	w := &memWriter{}
	h := newPGHandler(w.write, time.Hour)
	defer h.Stop()

	logger := slog.New(h)
	for i := 0; i < batchSize; i++ {
		logger.Error("boom", "status", 500)
	}

	require.Eventually(t, func() bool { return len(w.rows()) == batchSize }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 500, w.rows()[0].Status)
}

func TestPGHandler_WriteFailureIsNotFatal(t *testing.T) {
	w := &memWriter{err: errors.New("relation does not exist")}
	h := newPGHandler(w.write, time.Hour)
	h.fallback = slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	slog.New(h).Error("boom")
	assert.NotPanics(t, h.Stop)
	assert.Len(t, w.rows(), 1)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler(t *testing.T) {
	var info, errOnly bytes.Buffer
	infoH := newJSONHandler(&info, "info")
	errH := newJSONHandler(&errOnly, "error")
	m := NewMultiHandler(failingHandler{infoH}, infoH, errH)

	logger := slog.New(m).With("service", "inews")
	logger.Info("hello")
	logger.Error("bad")

	assert.Contains(t, info.String(), `"msg":"hello"`)
	assert.Contains(t, info.String(), `"service":"inews"`)
	assert.NotContains(t, errOnly.String(), "hello")
	assert.Contains(t, errOnly.String(), `"msg":"bad"`)

	assert.False(t, m.Enabled(context.Background(), slog.LevelDebug))

	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	assert.EqualError(t, err, "sink down")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestStartCleanup(t *testing.T) {
	var calls atomic.Int32
	var lastCutoff atomic.Int64
	done := make(chan struct{})

	startCleanup(10*time.Millisecond, time.Hour, func(cutoff time.Time) (int64, error) {
		calls.Add(1)
		lastCutoff.Store(cutoff.Unix())
		return 3, nil
	}, done)

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	close(done)

	cutoff := time.Unix(lastCutoff.Load(), 0)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), cutoff, 5*time.Second)
}
