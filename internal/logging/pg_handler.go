package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

const batchSize = 50

// Sink persists a batch of log rows.
type Sink interface {
	WriteLogs(entries []models.SystemLog) error
}

// GormSink writes log rows to the system_logs table.
type GormSink struct {
	DB *gorm.DB
}

func (s GormSink) WriteLogs(entries []models.SystemLog) error {
	return s.DB.CreateInBatches(entries, batchSize).Error
}

// PGHandler is an slog.Handler that batches ERROR+ records to a Sink.
type PGHandler struct {
	state *pgState
	attrs []slog.Attr
}

type pgState struct {
	sink     Sink
	mu       sync.Mutex
	buffer   []models.SystemLog
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewPGHandler(sink Sink, interval time.Duration) *PGHandler {
	st := &pgState{
		sink:   sink,
		buffer: make([]models.SystemLog, 0, batchSize),
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	st.wg.Add(1)
	go st.flushLoop()
	return &PGHandler{state: st}
}

func (st *pgState) flushLoop() {
	defer st.wg.Done()
	for {
		select {
		case <-st.ticker.C:
			st.flush()
		case <-st.done:
			st.flush()
			return
		}
	}
}

func (st *pgState) flush() {
	st.mu.Lock()
	if len(st.buffer) == 0 {
		st.mu.Unlock()
		return
	}
	batch := st.buffer
	st.buffer = make([]models.SystemLog, 0, batchSize)
	st.mu.Unlock()

	if err := st.sink.WriteLogs(batch); err != nil {
		// Warn stays below the handler's level, so this cannot loop back in.
		slog.Warn("failed to flush system logs", "error", err, "count", len(batch))
	}
}

// Stop flushes pending records and waits for the flush loop to exit.
func (h *PGHandler) Stop() {
	h.state.stopOnce.Do(func() {
		h.state.ticker.Stop()
		close(h.state.done)
	})
	h.state.wg.Wait()
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(ctx context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}
	if info, ok := RequestFromContext(ctx); ok {
		entry.RequestID = info.RequestID
		entry.SchoolID = info.SchoolID
		if info.UserID != "" {
			uid := info.UserID
			entry.UserID = &uid
		}
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "school_id":
			entry.SchoolID = a.Value.String()
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
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

	st := h.state
	st.mu.Lock()
	st.buffer = append(st.buffer, entry)
	needFlush := len(st.buffer) >= batchSize
	st.mu.Unlock()

	if needFlush {
		go st.flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{state: h.state, attrs: merged}
}

// WithGroup is ignored; system_logs has a flat layout.
func (h *PGHandler) WithGroup(string) slog.Handler {
	return h
}
