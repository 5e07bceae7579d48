package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	batchSize     = 50
	flushInterval = 5 * time.Second
)

// OpenSink connects to the log database and migrates the system_logs table.
func OpenSink(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to log database: %w", err)
	}
	if err := db.AutoMigrate(&SystemLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate system logs: %w", err)
	}
	return db, nil
}

// PGHandler is an slog.Handler that batches ERROR+ logs to PostgreSQL.
type PGHandler struct {
	*pgBuffer
	attrs []slog.Attr
}

type pgBuffer struct {
	write    func([]SystemLog) error
	fallback *slog.Logger

	mu     sync.Mutex
	buffer []SystemLog
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	return newPGHandler(func(batch []SystemLog) error {
		return db.CreateInBatches(batch, batchSize).Error
	}, flushInterval)
}

func newPGHandler(write func([]SystemLog) error, interval time.Duration) *PGHandler {
	b := &pgBuffer{
		write:    write,
		fallback: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		buffer:   make([]SystemLog, 0, batchSize),
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.flushLoop()
	return &PGHandler{pgBuffer: b}
}

func (b *pgBuffer) flushLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ticker.C:
			b.flush()
		case <-b.done:
			b.flush()
			return
		}
	}
}

func (b *pgBuffer) flush() {
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.buffer
	b.buffer = make([]SystemLog, 0, batchSize)
	b.mu.Unlock()

	// Failures go to stderr only; logging them through slog would queue
	// them here again.
	if err := b.write(batch); err != nil {
		b.fallback.Error("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and ends the flush loop.
func (b *pgBuffer) Stop() {
	b.ticker.Stop()
	close(b.done)
	b.wg.Wait()
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		entry.set(a, extra)
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, entry)
	needFlush := len(h.buffer) >= batchSize
	h.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

func (e *SystemLog) set(a slog.Attr, extra map[string]any) {
	v := a.Value.Resolve()
	switch a.Key {
	case "request_id":
		e.RequestID = v.String()
	case "pipeline", "task":
		e.Pipeline = v.String()
	case "stage":
		e.Stage = v.String()
	case "method":
		e.Method = v.String()
	case "path":
		e.Path = v.String()
	case "status":
		if v.Kind() == slog.KindInt64 {
			e.Status = int(v.Int64())
		}
	case "error":
		e.Error = v.String()
	case "elapsed", "latency_ms":
		switch v.Kind() {
		case slog.KindDuration:
			e.LatencyMs = int(v.Duration().Milliseconds())
		case slog.KindFloat64:
			e.LatencyMs = int(math.Round(v.Float64()))
		case slog.KindInt64:
			e.LatencyMs = int(v.Int64())
		}
	default:
		if err, ok := v.Any().(error); ok {
			extra[a.Key] = err.Error()
			return
		}
		extra[a.Key] = v.Any()
	}
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{pgBuffer: h.pgBuffer, attrs: merged}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
