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

// Package store assembles the application's read model from the booking
// contract. The read model is rebuilt wholesale on every refresh; a failed
// refresh leaves the previous one in place.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/roombook/event"
	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/models"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RefreshedEventType event.EventType = "store.refreshed"

	DefaultNameLookupWorkers = 4
)

// RefreshedEvent carries the read model produced by a successful refresh
type RefreshedEvent struct {
	Model *models.ReadModel
	// Reason is what triggered the refresh, for logging
	Reason string
}

// LedgerReader is the read side of the booking contract
type LedgerReader interface {
	Rooms(ctx context.Context) ([]models.Room, error)
	Reservations(ctx context.Context) ([]models.Reservation, error)
	UserName(ctx context.Context, address string) (string, error)
}

type StoreConfig struct {
	Ledger       LedgerReader
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// NameLookupWorkers bounds concurrent user name lookups
	NameLookupWorkers int
}

type Store struct {
	config  StoreConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *storeMetrics

	// refreshMu serializes refreshes so results are applied in order
	refreshMu sync.Mutex
	mu        sync.RWMutex
	current   *models.ReadModel
	account   string
	subId     event.EventSubscriberId
	started   bool
}

func New(cfg StoreConfig) *Store {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.NameLookupWorkers <= 0 {
		cfg.NameLookupWorkers = DefaultNameLookupWorkers
	}
	s := &Store{
		config: cfg,
		logger: cfg.Logger.With("component", "store"),
		tracer: otel.Tracer("github.com/blinklabs-io/roombook/store"),
		current: &models.ReadModel{
			Rooms:        []models.Room{},
			Users:        []models.User{},
			Reservations: []models.Reservation{},
		},
	}
	if cfg.PromRegistry != nil {
		s.metrics = newStoreMetrics(cfg.PromRegistry)
	}
	return s
}

// Start subscribes to network changes. Each one invalidates the read model
// and triggers a refetch.
func (s *Store) Start() {
	if s.config.EventBus == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.subId = s.config.EventBus.SubscribeFunc(
		gateway.NetworkChangedEventType,
		s.handleNetworkChanged,
	)
}

func (s *Store) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.config.EventBus.Unsubscribe(gateway.NetworkChangedEventType, s.subId)
}

func (s *Store) handleNetworkChanged(evt event.Event) {
	s.logger.Info("network changed, refetching read model")
	if _, err := s.refresh(context.Background(), "network_changed"); err != nil {
		s.logger.Error(
			"failed to refresh after network change",
			"error", err,
		)
	}
}

// SetAccount sets the caller whose signup status the read model reports
func (s *Store) SetAccount(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
}

func (s *Store) Account() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// Current returns the last successfully built read model. It is never nil.
func (s *Store) Current() *models.ReadModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Refresh rebuilds the read model from the ledger
func (s *Store) Refresh(ctx context.Context) (*models.ReadModel, error) {
	return s.refresh(ctx, "requested")
}

func (s *Store) refresh(
	ctx context.Context,
	reason string,
) (*models.ReadModel, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	ctx, span := s.tracer.Start(
		ctx,
		"store.refresh",
		trace.WithAttributes(attribute.String("reason", reason)),
	)
	defer span.End()
	start := time.Now()
	model, err := s.build(ctx)
	if s.metrics != nil {
		s.metrics.observe(time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(
			"refresh failed, keeping previous read model",
			"reason", reason,
			"error", err,
		)
		return nil, err
	}
	s.mu.Lock()
	s.current = model
	s.mu.Unlock()
	s.logger.Debug(
		"read model refreshed",
		"reason", reason,
		"rooms", len(model.Rooms),
		"reservations", len(model.Reservations),
		"users", len(model.Users),
		"signed_up", model.SignedUp,
	)
	if s.config.EventBus != nil {
		s.config.EventBus.PublishAsync(
			RefreshedEventType,
			event.NewEvent(
				RefreshedEventType,
				RefreshedEvent{Model: model, Reason: reason},
			),
		)
	}
	return model, nil
}

// build runs the fetch steps in order. Each one is a round trip to the
// same contract.
func (s *Store) build(ctx context.Context) (*models.ReadModel, error) {
	account := s.Account()
	rooms, err := s.config.Ledger.Rooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching rooms: %w", err)
	}
	reservations, err := s.config.Ledger.Reservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching reservations: %w", err)
	}
	users := s.resolveUsers(ctx, reservations)
	for i := range reservations {
		for _, u := range users {
			if strings.EqualFold(u.Address, reservations[i].User.Address) {
				reservations[i].User = u
				break
			}
		}
	}
	signedUp := false
	if account != "" {
		name, err := s.config.Ledger.UserName(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("fetching signup status: %w", err)
		}
		signedUp = name != ""
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return &models.ReadModel{
		Rooms:        rooms,
		Users:        users,
		Reservations: reservations,
		SignedUp:     signedUp,
		Account:      account,
		RefreshedAt:  time.Now().UTC(),
	}, nil
}

// resolveUsers looks up the name of every distinct reservation holder.
// Lookups are best-effort: a failed one is logged and the user is left out.
func (s *Store) resolveUsers(
	ctx context.Context,
	reservations []models.Reservation,
) []models.User {
	var addresses []string
	seen := make(map[string]bool)
	for _, r := range reservations {
		key := strings.ToLower(r.User.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		addresses = append(addresses, r.User.Address)
	}
	resolved := make([]*models.User, len(addresses))
	var eg errgroup.Group
	eg.SetLimit(s.config.NameLookupWorkers)
	for i, address := range addresses {
		eg.Go(func() error {
			name, err := s.config.Ledger.UserName(ctx, address)
			if err != nil {
				s.logger.Warn(
					"failed to resolve user name",
					"address", address,
					"error", err,
				)
				if s.metrics != nil {
					s.metrics.nameLookupErrors.Inc()
				}
				return nil
			}
			resolved[i] = &models.User{Address: address, Name: name}
			return nil
		})
	}
	_ = eg.Wait()
	users := make([]models.User, 0, len(addresses))
	for _, u := range resolved {
		if u != nil {
			users = append(users, *u)
		}
	}
	return users
}
