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

// Package viewmodel derives booking availability from the read model,
// validates user input and drives the reserve, cancel and sign-up actions.
//
// All calendar arithmetic is done in UTC. A "day" is a UTC calendar date
// and "now" is compared as an instant.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/models"
)

type WalletStatus string

const (
	WalletNoWallet     WalletStatus = "no_wallet"
	WalletDisconnected WalletStatus = "disconnected"
	WalletConnected    WalletStatus = "connected"
)

// Connector discovers wallet accounts
type Connector interface {
	Connect(ctx context.Context, prompt bool) ([]string, error)
}

// LedgerWriter submits the mutating contract calls
type LedgerWriter interface {
	Reserve(
		ctx context.Context,
		from string,
		room string,
		date int64,
	) (gateway.PendingTx, error)
	Cancel(
		ctx context.Context,
		from string,
		r models.Reservation,
	) (gateway.PendingTx, error)
	GiveAccess(
		ctx context.Context,
		from string,
		user string,
		name string,
	) (gateway.PendingTx, error)
}

// Refresher owns the read model
type Refresher interface {
	Refresh(ctx context.Context) (*models.ReadModel, error)
	Current() *models.ReadModel
	SetAccount(account string)
}

type ViewModelConfig struct {
	Connector Connector
	Writer    LedgerWriter
	Store     Refresher
	Logger    *slog.Logger
	// PromRegistry is optional
	PromRegistry prometheus.Registerer
	// ConfirmationTimeout bounds the wait for a transaction receipt. Zero
	// means wait as long as the caller's context allows.
	ConfirmationTimeout time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

type ViewModel struct {
	config  ViewModelConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *viewModelMetrics

	mu      sync.Mutex
	status  WalletStatus
	account string
	pending map[Action]string
}

func New(cfg ViewModelConfig) *ViewModel {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	vm := &ViewModel{
		config:  cfg,
		logger:  cfg.Logger.With("component", "viewmodel"),
		tracer:  otel.Tracer("github.com/blinklabs-io/roombook/viewmodel"),
		status:  WalletDisconnected,
		pending: make(map[Action]string),
	}
	if cfg.PromRegistry != nil {
		vm.metrics = newViewModelMetrics(cfg.PromRegistry)
	}
	return vm
}

// Connect looks up the wallet's accounts, prompting the user if requested.
// On success the first account becomes the acting user and the read model
// is fetched for it. A silent check that finds no authorized account is not
// an error; the wallet just stays disconnected.
func (vm *ViewModel) Connect(ctx context.Context, prompt bool) (string, error) {
	accounts, err := vm.config.Connector.Connect(ctx, prompt)
	if err != nil {
		vm.mu.Lock()
		if errors.Is(err, gateway.ErrNoWalletFound) {
			vm.status = WalletNoWallet
		} else {
			vm.status = WalletDisconnected
		}
		vm.account = ""
		vm.mu.Unlock()
		vm.config.Store.SetAccount("")
		return "", err
	}
	if len(accounts) == 0 {
		vm.mu.Lock()
		vm.status = WalletDisconnected
		vm.account = ""
		vm.mu.Unlock()
		vm.config.Store.SetAccount("")
		return "", nil
	}
	account := accounts[0]
	vm.mu.Lock()
	vm.status = WalletConnected
	vm.account = account
	vm.mu.Unlock()
	vm.config.Store.SetAccount(account)
	vm.logger.Info("wallet connected", "account", account, "prompted", prompt)
	if _, err := vm.config.Store.Refresh(ctx); err != nil {
		return account, fmt.Errorf("loading state: %w", err)
	}
	return account, nil
}

// UseAccount makes account the acting user in place of the wallet's first
// account and reloads the read model for it
func (vm *ViewModel) UseAccount(ctx context.Context, account string) error {
	vm.mu.Lock()
	vm.status = WalletConnected
	vm.account = account
	vm.mu.Unlock()
	vm.config.Store.SetAccount(account)
	vm.logger.Info("acting account selected", "account", account)
	if _, err := vm.config.Store.Refresh(ctx); err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	return nil
}

func (vm *ViewModel) WalletStatus() WalletStatus {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.status
}

// Account returns the acting user, or an empty string when disconnected
func (vm *ViewModel) Account() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.account
}

// Model returns the current read model
func (vm *ViewModel) Model() *models.ReadModel {
	return vm.config.Store.Current()
}

// CanCancel reports whether actingUser should be offered a cancel control
// for r. The contract makes the final call.
func (vm *ViewModel) CanCancel(r models.Reservation, actingUser string) bool {
	return r.OwnedBy(actingUser)
}
