package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/arena-service/gate"
	ahttp "github.com/veilstar/wager-platform/internal/arena-service/http"
	"github.com/veilstar/wager-platform/internal/arena-service/hub"
	"github.com/veilstar/wager-platform/internal/arena-service/ledger"
	kpub "github.com/veilstar/wager-platform/internal/arena-service/producer"
	"github.com/veilstar/wager-platform/internal/arena-service/store"
	"github.com/veilstar/wager-platform/internal/arena-service/verifier"
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

	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicArenaEvents)
	defer writer.Close()

	g := gate.New(log, store.NewPostgres(pg),
		ledger.New(cfg.WalletURL),
		verifier.New(cfg.VerifierURL),
		hub.New(cfg.HubURL),
		gate.Config{
			MoveSchedule:    fees.Stake,
			EscrowAccount:   cfg.EscrowAccount,
			TreasuryAccount: cfg.TreasuryAccount,
		})
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicArenaEvents)

	api := ahttp.NewServer(log, g, publ, cfg.AdminToken)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("arena-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
