package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"evlog/internal/amqp"
	"evlog/internal/cli"
	"evlog/internal/export"
	gsheet "evlog/internal/export/google"
	expmem "evlog/internal/export/memory"
	"evlog/internal/log"
	"evlog/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	loc := cli.Timezone(logger, cfg)

	logger.Info("starting evlog-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	result := cli.OpenStore(logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("store cleanup failed", log.FieldError, err)
		}
	}()

	// Prefer the Google Sheets writer; fall back to the in-memory one so
	// the consumer keeps draining the queue in development setups.
	var writer export.RecordWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background(), loc)
		if err != nil {
			logger.Error("initializing Google Sheets client failed", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = expmem.New()
		logger.Info("Google Sheets disabled, exporting to memory")
	}

	syncWorker := worker.NewSyncWorker(result.Store, writer, cfg.SyncBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := syncWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("startup export check failed", log.FieldError, err)
		// Keep going, consumption can still proceed.
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(msg *amqp.RecordSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		// Periodic sweep catches records whose sync message was lost.
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := syncWorker.ProcessPendingRecords(ctx); err != nil {
					logger.Error("pending sweep failed", log.FieldError, err)
				}
			}
		}
	})

	logger.Info("worker consuming", log.FieldQueue, cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
