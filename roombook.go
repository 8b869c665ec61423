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

// Package roombook wires the wallet gateway, read-model store, view-model
// and web shell into a runnable application.
package roombook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/blinklabs-io/roombook/event"
	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/models"
	"github.com/blinklabs-io/roombook/store"
	"github.com/blinklabs-io/roombook/viewmodel"
	"github.com/blinklabs-io/roombook/web"
)

const defaultShutdownTimeout = 30 * time.Second

type App struct {
	config        Config
	eventBus      *event.EventBus
	gateway       gateway.Gateway
	contract      *gateway.Contract
	store         *store.Store
	viewModel     *viewmodel.ViewModel
	assets        *web.AssetSource
	web           *web.Server
	shutdownFuncs []func(context.Context) error
	done          chan struct{}
	shutdownOnce  sync.Once
	mu            sync.Mutex
	stopped       bool
}

// New builds the application components. No connection to the wallet is
// made until the first ledger operation.
func New(cfg Config) (*App, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	a := &App{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	a.gateway = cfg.gateway
	if a.gateway == nil {
		eth, err := gateway.NewEthereum(gateway.EthereumConfig{
			Logger:              cfg.logger,
			EventBus:            a.eventBus,
			PromRegistry:        cfg.promRegistry,
			WalletUrl:           cfg.walletUrl,
			RpcUrl:              cfg.rpcUrl,
			ContractAddress:     cfg.contractAddress,
			ChainId:             cfg.chainId,
			NetworkPollInterval: cfg.networkPollInterval,
			ReceiptPollInterval: cfg.receiptPollInterval,
			RpcRetryMax:         cfg.rpcRetryMax,
		})
		if err != nil {
			a.eventBus.Stop()
			return nil, fmt.Errorf("failed to create gateway: %w", err)
		}
		a.gateway = eth
	}
	a.contract = gateway.NewContract(a.gateway)
	a.store = store.New(store.StoreConfig{
		Ledger:            a.contract,
		EventBus:          a.eventBus,
		Logger:            cfg.logger,
		PromRegistry:      cfg.promRegistry,
		NameLookupWorkers: cfg.nameLookupWorkers,
	})
	a.viewModel = viewmodel.New(viewmodel.ViewModelConfig{
		Connector:           a.gateway,
		Writer:              a.contract,
		Store:               a.store,
		Logger:              cfg.logger,
		PromRegistry:        cfg.promRegistry,
		ConfirmationTimeout: cfg.confirmationTimeout,
	})
	return a, nil
}

// ViewModel returns the booking view-model shared by the web shell and the
// CLI commands
func (a *App) ViewModel() *viewmodel.ViewModel {
	return a.viewModel
}

// Refresh rebuilds the read model from the ledger
func (a *App) Refresh(ctx context.Context) (*models.ReadModel, error) {
	return a.store.Refresh(ctx)
}

// EventBus returns the application's event bus
func (a *App) EventBus() *event.EventBus {
	return a.eventBus
}

// Run starts the web shell and blocks until ctx is cancelled or Stop is
// called. Resources are released by Stop, which the caller must invoke
// once Run returns, including when it returns an error.
func (a *App) Run(ctx context.Context) error {
	logger := a.config.logger
	if a.config.tracing {
		if err := a.setupTracing(ctx); err != nil {
			return err
		}
	}
	a.store.Start()

	// Pick up an already authorized account without prompting the user
	account, err := a.viewModel.Connect(ctx, false)
	switch {
	case err != nil:
		logger.Warn(
			"wallet not connected",
			"component", serviceName,
			"error", err,
		)
	case account == "":
		logger.Info(
			"wallet has no authorized account, waiting for connect",
			"component", serviceName,
		)
	}

	assets, err := web.OpenAssets(
		ctx,
		a.config.assetSource,
		a.config.gcsCredentialsFile,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to open assets: %w", err)
	}
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return assets.Close()
	}
	a.assets = assets
	a.mu.Unlock()
	webServer, err := web.New(web.ServerConfig{
		Logger:        logger,
		EventBus:      a.eventBus,
		Bookings:      a.viewModel,
		Assets:        assets.FS,
		ListenAddress: a.config.listenAddress,
		BasePath:      a.config.basePath,
		PromRegistry:  a.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	// Holding the lock keeps a concurrent Stop from missing the server
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	if err := webServer.Start(ctx); err != nil {
		a.mu.Unlock()
		return err
	}
	a.web = webServer
	a.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-a.done:
	}
	return nil
}

func (a *App) Stop() error {
	var err error
	a.shutdownOnce.Do(func() {
		err = a.shutdown()
	})
	return err
}

func (a *App) shutdown() error {
	shutdownTimeout := defaultShutdownTimeout
	if a.config.shutdownTimeout > 0 {
		shutdownTimeout = a.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	logger := a.config.logger
	logger.Debug("starting graceful shutdown", "component", serviceName)

	// Phase 1: stop accepting requests
	a.mu.Lock()
	a.stopped = true
	webServer, assets := a.web, a.assets
	a.mu.Unlock()
	if webServer != nil {
		if stopErr := webServer.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("web shutdown: %w", stopErr))
		}
	}
	if assets != nil {
		if closeErr := assets.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("assets close: %w", closeErr))
		}
	}

	// Phase 2: stop reacting to the ledger
	a.store.Stop()
	if closer, ok := a.gateway.(io.Closer); ok {
		if closeErr := closer.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("gateway close: %w", closeErr))
		}
	}

	// Phase 3: cleanup resources
	for _, fn := range a.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	a.shutdownFuncs = nil
	a.eventBus.Stop()

	logger.Debug("graceful shutdown complete", "component", serviceName)
	close(a.done)
	return err
}
