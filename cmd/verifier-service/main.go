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
	vhttp "github.com/veilstar/wager-platform/internal/verifier-service/http"
	"github.com/veilstar/wager-platform/internal/verifier-service/service"
	"github.com/veilstar/wager-platform/internal/verifier-service/store"
)

const resultCacheSize = 4096

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	svc, err := service.New(log, store.NewPostgres(pg), resultCacheSize)
	if err != nil {
		log.Fatal("service", zap.Error(err))
	}

	api := vhttp.NewServer(log, svc, cfg.AdminToken)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("verifier-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
