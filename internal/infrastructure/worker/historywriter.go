package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
)

// HistoryWriter persists price observations off the request path. Enqueue
// never blocks: when the buffer is full the entry is dropped with a log
// line. Price responses never wait on, or fail because of, a history write.
type HistoryWriter struct {
	store application.Store
	jobs  chan domain.NewPriceHistory
	log   *zap.Logger
}

var _ application.HistorySink = (*HistoryWriter)(nil)
var _ application.Worker = (*HistoryWriter)(nil)

func NewHistoryWriter(store application.Store, buffer int, log *zap.Logger) *HistoryWriter {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HistoryWriter{
		store: store,
		jobs:  make(chan domain.NewPriceHistory, buffer),
		log:   log,
	}
}

func (w *HistoryWriter) Enqueue(h domain.NewPriceHistory) {
	select {
	case w.jobs <- h:
	default:
		w.log.Warn("history_writer.dropped",
			zap.String("asset_id", h.AssetID),
			zap.Int("buffer", cap(w.jobs)),
		)
	}
}

// Start drains the buffer until ctx is cancelled, then flushes whatever is
// still queued.
func (w *HistoryWriter) Start(ctx context.Context) {
	w.log.Info("history_writer.start", zap.Int("buffer", cap(w.jobs)))
	for {
		select {
		case <-ctx.Done():
			w.flush()
			w.log.Info("history_writer.stop")
			return
		case h := <-w.jobs:
			w.writeOne(h)
		}
	}
}

func (w *HistoryWriter) flush() {
	for {
		select {
		case h := <-w.jobs:
			w.writeOne(h)
		default:
			return
		}
	}
}

func (w *HistoryWriter) writeOne(h domain.NewPriceHistory) {
	// Detached from the request context: the caller has long since moved on.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := w.store.AddPriceHistory(ctx, h); err != nil {
		w.log.Warn("history_writer.write_failed",
			zap.String("asset_id", h.AssetID),
			zap.Error(err),
		)
	}
}
