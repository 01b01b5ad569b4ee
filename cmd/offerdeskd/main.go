// Command offerdeskd runs the offerdesk API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/offerdesk/offerdesk/internal/api"
	"github.com/offerdesk/offerdesk/internal/config"
	"github.com/offerdesk/offerdesk/internal/db"
	"github.com/offerdesk/offerdesk/internal/db/migrations"
	"github.com/offerdesk/offerdesk/internal/dbpool"
	"github.com/offerdesk/offerdesk/internal/service"
	"github.com/offerdesk/offerdesk/internal/store"
)

// version is set via -ldflags at build time.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log, LockTTL: cfg.LockTTL}
	articleStore := store.NewArticleStore(base)
	blockStore := store.NewBlockStore(base)
	quoteStore := store.NewQuoteStore(base)
	oppStore := store.NewOpportunityStore(base)
	contentStore := store.NewContentStore(base)
	lockStore := store.NewLockStore(base)
	auditStore := store.NewAuditStore(base)

	articles := service.NewArticleService(articleStore, log)
	blocks := service.NewBlockService(blockStore, log)
	quotes := service.NewQuoteService(quoteStore, log)
	opps := service.NewOpportunityService(oppStore, log)
	content := service.NewContentService(contentStore, log)
	locks := service.NewLockService(lockStore, log)
	audit := service.NewAuditService(auditStore, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Articles:      articles,
		Blocks:        blocks,
		Quotes:        quotes,
		Opportunities: opps,
		Content:       content,
		Locks:         locks,
		Audit:         audit,
		UserLookup:    &base,
		CORSOrigins:   cfg.CORSOrigins,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": cfg.Addr(), "version": version}).Info("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	if cfg.LockTTL > 0 {
		g.Go(func() error {
			locks.RunSweeper(gctx, cfg.LockSweepInterval)

			return nil
		})
	}

	g.Go(func() error {
		// Retention runs daily; returns immediately when disabled.
		audit.RunRetention(gctx, 24*time.Hour, cfg.AuditRetentionDays)

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server stopped")

	return nil
}
