// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/roombook"
	"github.com/blinklabs-io/roombook/internal/config"
)

// AppOptions translates the loaded config into App options
func AppOptions(
	cfg *config.Config,
	logger *slog.Logger,
) []roombook.ConfigOptionFunc {
	return []roombook.ConfigOptionFunc{
		roombook.WithLogger(logger),
		roombook.WithWalletUrl(cfg.WalletUrl),
		roombook.WithRpcUrl(cfg.RpcUrl),
		roombook.WithContractAddress(cfg.ContractAddress),
		roombook.WithChainId(cfg.ChainId),
		roombook.WithListenAddress(cfg.ListenAddress()),
		roombook.WithBasePath(cfg.BasePath),
		roombook.WithAssetSource(cfg.AssetSource, cfg.GcsCredentialsFile),
		roombook.WithPollIntervals(
			config.Duration(cfg.NetworkPollInterval),
			config.Duration(cfg.ReceiptPollInterval),
		),
		roombook.WithConfirmationTimeout(
			config.Duration(cfg.ConfirmationTimeout),
		),
		roombook.WithShutdownTimeout(config.Duration(cfg.ShutdownTimeout)),
		roombook.WithRpcRetryMax(cfg.RpcRetryMax),
		roombook.WithNameLookupWorkers(cfg.NameLookupWorkers),
		roombook.WithTracing(cfg.Tracing),
		roombook.WithTracingStdout(cfg.TracingStdout),
	}
}

// Run serves the booking app and the metrics listener until SIGINT or
// SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "server")

	shutdownTimeout := config.Duration(cfg.ShutdownTimeout)
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	opts := AppOptions(cfg, logger)
	// Enable metrics with default prometheus registry
	opts = append(opts, roombook.WithPrometheusRegistry(prometheus.DefaultRegisterer))
	app, err := roombook.New(roombook.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Metrics listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "server",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "server",
				)
			}
		}()
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	runErr := app.Run(signalCtx)
	if runErr != nil {
		logger.Error("app error", "error", runErr, "component", "server")
	} else {
		logger.Info("signal received, initiating graceful shutdown", "component", "server")
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err, "component", "server")
		}
	}
	if err := app.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err, "component", "server")
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete", "component", "server")
	}
	return runErr
}
