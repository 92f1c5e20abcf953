// Package main
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/cfg"
	"github.com/kardiachain/governance-tracker/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file loaded, using process environment")
	}

	runtime.GOMAXPROCS(runtime.NumCPU())
	serviceCfg, err := cfg.New()
	if err != nil {
		panic(err.Error())
	}

	logger, err := utils.NewLogger(serviceCfg)
	if err != nil {
		panic("cannot init logger")
	}
	logger.Info("Start governance tracker...")

	defer func() {
		if err := recover(); err != nil {
			logger.Error("cannot recover", zap.Any("panic", err))
		}
		if err := logger.Sync(); err != nil {
			logger.Error("cannot sync log")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	waitExit := make(chan bool, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range sigCh {
			cancel()
			waitExit <- true
		}
	}()

	svc, err := newApp(ctx, serviceCfg, logger)
	if err != nil {
		logger.Panic("cannot start tracker", zap.Error(err))
	}
	defer svc.close()

	go svc.reconciler.StartPolling(ctx, serviceCfg.PollInterval)
	go func() {
		if err := svc.echo.Start(serviceCfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("cannot start echo server", zap.Error(err))
			cancel()
		}
	}()

	select {
	case <-waitExit:
	case <-ctx.Done():
	}
	logger.Info("Tracker stopping")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := svc.echo.Shutdown(shutdownCtx); err != nil {
		logger.Warn("cannot shutdown echo server", zap.Error(err))
	}
	logger.Info("Stopped")
}
