package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evlog/internal/amqp"
	"evlog/internal/cli"
	apphttp "evlog/internal/http"
	"evlog/internal/log"
	"evlog/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	loc := cli.Timezone(logger, cfg)

	result := cli.OpenStore(logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("store cleanup failed", log.FieldError, err)
		}
	}()

	// The sync queue is optional: without AMQP records stay local only.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("connecting to AMQP failed", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("sync queue connected", log.FieldQueue, cfg.AMQPQueue)
	} else {
		logger.Info("sync queue disabled, no AMQP_URL provided")
	}

	svc := services.NewRecordService(result.Store, publisher, loc, cfg.SiteURL)
	srv := apphttp.NewServer(":"+cfg.Port, svc, logger, cfg.AllowedOrigins)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting evlog server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
