package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	phttp "github.com/veilstar/wager-platform/internal/pool-service/http"
	"github.com/veilstar/wager-platform/internal/pool-service/cache"
	"github.com/veilstar/wager-platform/internal/pool-service/engine"
	"github.com/veilstar/wager-platform/internal/pool-service/ledger"
	kpub "github.com/veilstar/wager-platform/internal/pool-service/producer"
	"github.com/veilstar/wager-platform/internal/pool-service/store"
	"github.com/veilstar/wager-platform/internal/pool-service/verifier"
	scache "github.com/veilstar/wager-platform/internal/shared/cache"
	"github.com/veilstar/wager-platform/internal/shared/config"
	"github.com/veilstar/wager-platform/internal/shared/db"
	skafka "github.com/veilstar/wager-platform/internal/shared/kafka"
	"github.com/veilstar/wager-platform/internal/shared/logger"
	"github.com/veilstar/wager-platform/internal/shared/metrics"
	"github.com/veilstar/wager-platform/pkg/fees"
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

	rdb, err := scache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolEvents)
	defer writer.Close()

	st := store.NewPostgres(pg)
	eng := engine.New(log, st,
		ledger.New(cfg.WalletURL),
		verifier.New(cfg.VerifierURL),
		engine.Config{
			MinStake:        cfg.MinStake,
			Schedule:        fees.Betting,
			EscrowAccount:   cfg.EscrowAccount,
			TreasuryAccount: cfg.TreasuryAccount,
			SweepInterval:   cfg.SweepInterval,
		})
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicPoolEvents)
	snapshots := cache.NewRedisCache(rdb, cfg.RetentionTTL)

	api := phttp.NewServer(log, eng, publ, snapshots, cfg.AdminToken, cfg.TreasuryAccount)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("pool-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
