package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pricenavi-service/internal/application"
)

var _ application.Worker = (*Poller)(nil)

// Poller periodically fetches prices for every registered asset so history
// accumulates even when no dashboard is open. Each tick runs one batch
// fetch; failed symbols are logged inside the batch and skipped.
type Poller struct {
	Store application.Store
	Svc   *application.PriceService

	PollEvery time.Duration
	Log       *zap.Logger
}

func (p *Poller) Start(ctx context.Context) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	if p.PollEvery <= 0 {
		p.PollEvery = 5 * time.Minute
	}

	t := time.NewTicker(p.PollEvery)
	defer t.Stop()

	log.Info("poller_started", zap.Duration("poll_every", p.PollEvery))
	for {
		select {
		case <-ctx.Done():
			log.Info("poller_stopped")
			return
		case <-t.C:
			p.tick(ctx, log)
		}
	}
}

func (p *Poller) tick(ctx context.Context, log *zap.Logger) {
	assets, err := p.Store.GetAssets(ctx)
	if err != nil {
		log.Warn("poller.list_assets_failed", zap.Error(err))
		return
	}
	if len(assets) == 0 {
		return
	}

	results := p.Svc.GetBatchPrices(ctx, assets)
	fetched := 0
	for _, r := range results {
		if r != nil {
			fetched++
		}
	}
	log.Info("poller.tick_done", zap.Int("assets", len(assets)), zap.Int("fetched", fetched))
}
