package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/shared/config"
	"github.com/veilstar/wager-platform/internal/shared/db"
	"github.com/veilstar/wager-platform/internal/shared/logger"
	"github.com/veilstar/wager-platform/internal/shared/metrics"
	whttp "github.com/veilstar/wager-platform/internal/wallet-service/http"
	"github.com/veilstar/wager-platform/internal/wallet-service/repo"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	api := whttp.NewServer(log, repo.NewPostgres(pg), cfg.AdminToken)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("wallet-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
