package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reversi_server/internal/bus"
	"reversi_server/internal/config"
	"reversi_server/internal/hub"
	"reversi_server/internal/logger"
	"reversi_server/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := bus.New()
	h := hub.New(events, zl, cfg.InitialTime, cfg.BonusTime)
	defer h.Close()

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Routes(h, events, zl),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.NewTCPServer(cfg.TCPAddr, h, events, zl).ListenAndServe(gctx)
	})
	g.Go(func() error {
		zl.Info("http listener started", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
	zl.Info("server stopped")
}
