package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookden/library-service/pkg/kafka"

	"github.com/bookden/library-service/library/migrations"

	"github.com/bookden/library-service/library/config"
	"github.com/bookden/library-service/library/internal/handler"
	"github.com/bookden/library-service/library/internal/repository"
	"github.com/bookden/library-service/library/internal/repository/filestore"
	"github.com/bookden/library-service/library/internal/server"
	"github.com/bookden/library-service/library/internal/service"
	"github.com/bookden/library-service/pkg/logger"
	"github.com/bookden/library-service/pkg/postgres"
	"go.uber.org/zap"
)

type repos struct {
	catalog repository.Catalog
	loans   repository.Loans
	ratings repository.Ratings
	history repository.History
}

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")

	var (
		rp      repos
		closeDB = func() {}
	)
	if cfg.Demo.Enabled || cfg.Database.Host == "" {
		store, err := filestore.Open(cfg.Demo.File, log)
		if err != nil {
			log.Fatal("filestore open", zap.Error(err))
		}
		rp = repos{catalog: store, loans: store, ratings: store, history: store}
		log.Warn("demo mode: storing data in a local json file", zap.String("file", cfg.Demo.File))
	} else {
		db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			log.Fatal("db init", zap.Error(err))
		}
		closeDB = func() { db.Close() }
		catalogRepo, err := repository.NewCatalogRepository(db, log)
		if err != nil {
			log.Fatal("catalog repo", zap.Error(err))
		}
		loanRepo, err := repository.NewLoanRepository(db, log)
		if err != nil {
			log.Fatal("loan repo", zap.Error(err))
		}
		ratingRepo, err := repository.NewRatingRepository(db, log)
		if err != nil {
			log.Fatal("rating repo", zap.Error(err))
		}
		historyRepo, err := repository.NewHistoryRepository(db, log)
		if err != nil {
			log.Fatal("history repo", zap.Error(err))
		}
		rp = repos{catalog: catalogRepo, loans: loanRepo, ratings: ratingRepo, history: historyRepo}
	}

	var audit *service.Auditor
	statsSvc := service.NewStatsService(rp.catalog, rp.loans, rp.ratings, log)
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		audit = service.NewAuditor(producer, log)

		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.AuditConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		go kafka.Consume(consumer, handler.NewConsumer(statsSvc.RecordAudit, log), kafka.AuditTopic)
	}

	covers := service.NewCoverService(cfg.Covers, log)
	authSvc, err := service.NewAuthService(cfg.Auth, log)
	if err != nil {
		log.Fatal("auth service", zap.Error(err))
	}

	h := handler.New(handler.Services{
		Catalog: service.NewCatalogService(rp.catalog, rp.loans, rp.ratings, rp.history, covers, audit, log),
		Loan:    service.NewLoanService(rp.loans, rp.catalog, log),
		Rating:  service.NewRatingService(rp.ratings, rp.catalog, log),
		History: service.NewHistoryService(rp.history, rp.catalog, audit, log),
		Stats:   statsSvc,
		Auth:    authSvc,
	}, log)

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

	if err := srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	closeDB()
	log.Info("Graceful shutdown finished")
}
