package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antonvlasov/papertrade/internal/api"
	"github.com/antonvlasov/papertrade/internal/common/clients/kraken"
	"github.com/antonvlasov/papertrade/internal/common/config"
	"github.com/antonvlasov/papertrade/internal/common/repositories/postgres"
	"github.com/antonvlasov/papertrade/internal/ledger"
	"github.com/antonvlasov/papertrade/pkg/goosemigrate"
	"github.com/antonvlasov/papertrade/pkg/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "prod.yaml", "server config path")
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())

	cfg := config.GetConfig(configPath)

	log.Init(cfg.LogLevel, cfg.LogEncoding)

	log.Info("server starting...")

	log.Info("init postgres...")
	pool, err := pgxpool.New(ctx, cfg.GetPostgresURL())
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}

	if err := goosemigrate.Up(ctx, cfg.GetPostgresURL(), "migrations", config.PostgresSchema); err != nil {
		log.Fatal("migrations up failed", zap.Error(err))
	}

	portfoliosRepository := postgres.NewPortfoliosRepository(pool)
	transactionsRepository := postgres.NewTransactionsRepository(pool)

	log.Info("init kraken...")
	krakenClient := kraken.NewClient(&cfg.Kraken)

	var stream *kraken.Stream
	if cfg.Kraken.Stream {
		stream = kraken.NewStream(krakenClient)
		stream.Start(ctx)
	}

	ledgerService := ledger.NewService(portfoliosRepository, transactionsRepository, krakenClient)

	log.Info("init api...")
	server := api.New(&cfg.Server, ledgerService, krakenClient)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	log.Info("server starting complete")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	log.Info("server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("server stop failed", zap.Error(err))
	}

	if stream != nil {
		stream.Stop()
	}

	pool.Close()

	if err := log.Sync(); err != nil {
		log.Error("log sync failed", zap.Error(err))
	}

	cancel()

	log.Info("server shut down complete")
}
