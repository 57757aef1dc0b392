package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"supervisor-console/pkg/api"
	"supervisor-console/pkg/config"
	"supervisor-console/pkg/engine"
	"supervisor-console/pkg/httpapi"
	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/version"
)

var logger = logrus.New()

func main() {
	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogger(logger)

	logger.WithFields(logrus.Fields{
		"version": version.Version,
		"backend": cfg.Backend.BaseURL,
		"ws_url":  cfg.Backend.WSURL,
	}).Info("Starting supervisor console")

	metrics.Init(logger)
	metrics.SetEnabled(cfg.Metrics.Enabled)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.StartServer(fmt.Sprintf(":%d", cfg.Metrics.Port), logger)
	}

	client := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.SessionToken, cfg.Backend.HTTPTimeout, logger)
	eng := engine.New(cfg, client, logger)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	eng.Start(rootCtx)

	var apiServer *http.Server
	if cfg.HTTP.Enabled {
		apiServer = httpapi.NewServer(cfg.HTTP.Host, cfg.HTTP.Port, eng, logger)
		go func() {
			logger.WithField("address", apiServer.Addr).Info("Local state server listening")
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Local state server failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if apiServer != nil {
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Local state server shutdown failed")
		}
	}

	eng.Stop()
	rootCancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}

	logger.Info("Shutdown complete")
}
