package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/bootstrap"
	"pricenavi-service/internal/config"
	infraconfig "pricenavi-service/internal/infrastructure/config"
	httpserver "pricenavi-service/internal/infrastructure/http"
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
	addr := ":" + cfg.Port

	store, ping, closeStore, err := bootstrap.BuildStore(ctx, cfg, logger)
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

	srv := httpserver.NewServer(svc, store, providers.Crypto)
	if ping != nil {
		srv.SetReadyCheck(ping)
	}
	mux := httpserver.NewRouter(srv)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
	logger.Info("server stopped")
}
