// The worker process polls prices for every registered asset on an interval
// so history accumulates without any dashboard traffic.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/bootstrap"
	"pricenavi-service/internal/config"
	"pricenavi-service/internal/infrastructure/logx"
	"pricenavi-service/internal/infrastructure/worker"
)

func init() {
	_ = godotenv.Load()
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logx.L()
	cfg := config.Load()

	store, _, closeStore, err := bootstrap.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap store", zap.Error(err))
	}
	defer closeStore()

	cache, closeCache, err := bootstrap.BuildCache(cfg)
	if err != nil {
		logger.Fatal("bootstrap cache", zap.Error(err))
	}
	defer closeCache()

	providers := bootstrap.BuildProviders(cfg)
	rates := bootstrap.BuildRateSource(cfg)

	writer := worker.NewHistoryWriter(store, cfg.HistoryBuffer, logger)
	go writer.Start(ctx)

	opts := []application.Option{
		application.WithSink(writer),
		application.WithLogger(logger),
	}
	if cache != nil {
		opts = append(opts, application.WithCache(cache))
	}
	svc := application.NewPriceService(providers.Crypto, providers.Equity, rates, opts...)

	poller := &worker.Poller{
		Store:     store,
		Svc:       svc,
		PollEvery: cfg.PollEvery,
		Log:       logger,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	poller.Start(ctx)
}
