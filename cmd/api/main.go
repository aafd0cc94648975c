package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"market-sim/internal/api"
	"market-sim/internal/api/store"
	"market-sim/internal/metrics"
)

func main() {
	configFile := flag.String("config", "", "Optional settings file; environment variables take precedence")
	flag.Parse()

	settings, err := api.LoadSettings(*configFile)
	if err != nil {
		panic(err)
	}

	log := newLogger(settings)
	defer func() { _ = log.Sync() }()

	// Log working directory and important paths for debugging
	if wd, err := os.Getwd(); err == nil {
		log.Info("starting", zap.String("working_directory", wd), zap.String("env", settings.Env))
	}
	if info, err := os.Stat(settings.ScenarioDir); err == nil && info.IsDir() {
		log.Info("scenario directory found", zap.String("dir", settings.ScenarioDir))
	} else {
		log.Warn("scenario directory not found", zap.String("dir", settings.ScenarioDir), zap.Error(err))
	}

	m := metrics.New()
	results := store.New(settings.ResultTTL, 5*time.Minute, store.WithSizeObserver(m.SetStoredResults))
	defer results.Close()

	router := api.NewRouter(settings, log, m, results)

	srv := &http.Server{
		Addr:              settings.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting API server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(s api.Settings) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if s.Production() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return log
}
