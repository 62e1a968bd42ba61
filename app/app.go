package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/t-takamichi/book-manager-api/config"
	"github.com/t-takamichi/book-manager-api/internal/datastore"
	"github.com/t-takamichi/book-manager-api/internal/events"
	"github.com/t-takamichi/book-manager-api/internal/handler"
	"github.com/t-takamichi/book-manager-api/internal/repository"
	"github.com/t-takamichi/book-manager-api/internal/server"
	"github.com/t-takamichi/book-manager-api/internal/service"
	"github.com/t-takamichi/book-manager-api/migrations"
	"github.com/t-takamichi/book-manager-api/pkg/kafka"
	"github.com/t-takamichi/book-manager-api/pkg/logger"
	"github.com/t-takamichi/book-manager-api/pkg/postgres"
)

func Run(cfg config.Config) error {
	log := logger.NewLogger(cfg.Log, "book-manager")
	ctx := context.Background()

	primary, err := postgres.NewPostgresDB(ctx, &cfg.Database.Primary, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("primary db init %v", err)
	}

	// The replica is best-effort: without one (or with a dead one at boot)
	// all reads stay on the primary.
	replica := primary
	if cfg.Database.Replica.Host == "" {
		log.Info("no replica configured, reads stay on primary")
	} else if r, err := postgres.NewPostgresDB(ctx, &cfg.Database.Replica, nil); err != nil {
		log.Warn("replica db init, reads stay on primary", zap.Error(err))
	} else {
		replica = r
	}

	ds := datastore.New(primary, replica, log, datastore.WithMaxStale(cfg.Database.MaxStale))
	if err := ds.Connect(ctx); err != nil {
		return fmt.Errorf("datastore connect %v", err)
	}

	repo, err := repository.NewRepository(ds, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}

	var enqueuer events.Enqueuer
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Warn("kafka.NewProducer, loan events disabled", zap.Error(err))
		} else {
			enqueuer = events.NewEnqueuer(producer)
			defer producer.Close() //nolint:errcheck
		}
	}

	svc := service.NewService(repo, enqueuer, log)
	h := handler.New(svc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	ds.Disconnect()
	log.Info("Graceful shutdown finished")
	return nil
}
