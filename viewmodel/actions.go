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

package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/models"
)

type Action string

const (
	ActionReserve Action = "reserve"
	ActionCancel  Action = "cancel"
	ActionSignUp  Action = "signup"
)

type ActionState string

const (
	ActionIdle    ActionState = "idle"
	ActionPending ActionState = "pending"
)

// ActionState reports whether action is waiting for confirmation. A
// pending action's control should be disabled.
func (vm *ViewModel) ActionState(action Action) ActionState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if _, ok := vm.pending[action]; ok {
		return ActionPending
	}
	return ActionIdle
}

// Reserve books room at date (Unix ms) for actingUser. It returns once the
// transaction is confirmed and the read model has been refetched.
func (vm *ViewModel) Reserve(
	ctx context.Context,
	room string,
	date int64,
	actingUser string,
) error {
	if actingUser == "" {
		return ErrNotConnected
	}
	if err := vm.ValidateNewReservation(room, date); err != nil {
		return err
	}
	return vm.run(
		ctx,
		ActionReserve,
		actingUser,
		[]attribute.KeyValue{
			attribute.String("room", room),
			attribute.Int64("date", date),
		},
		func(ctx context.Context) (gateway.PendingTx, error) {
			return vm.config.Writer.Reserve(ctx, actingUser, room, date)
		},
	)
}

// Cancel removes r on behalf of actingUser. Ownership is enforced by the
// contract, so a cancel by anyone else fails at confirmation.
func (vm *ViewModel) Cancel(
	ctx context.Context,
	r models.Reservation,
	actingUser string,
) error {
	if actingUser == "" {
		return ErrNotConnected
	}
	return vm.run(
		ctx,
		ActionCancel,
		actingUser,
		[]attribute.KeyValue{
			attribute.String("room", r.Room.Name),
			attribute.Int64("date", r.Date),
			attribute.String("owner", r.User.Address),
		},
		func(ctx context.Context) (gateway.PendingTx, error) {
			return vm.config.Writer.Cancel(ctx, actingUser, r)
		},
	)
}

// SignUp registers name for actingUser
func (vm *ViewModel) SignUp(
	ctx context.Context,
	name string,
	actingUser string,
) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if actingUser == "" {
		return ErrNotConnected
	}
	return vm.run(
		ctx,
		ActionSignUp,
		actingUser,
		nil,
		func(ctx context.Context) (gateway.PendingTx, error) {
			return vm.config.Writer.GiveAccess(ctx, actingUser, actingUser, name)
		},
	)
}

// run drives one action through Pending to Idle: submit, wait for the
// receipt, then refetch the read model. The read model is untouched if the
// transaction does not confirm. Once submitted, the action stays Pending
// until the receipt resolves, even if ctx ends first; the caller then gets
// ctx's error while confirmation continues in the background.
func (vm *ViewModel) run(
	ctx context.Context,
	action Action,
	actingUser string,
	attrs []attribute.KeyValue,
	submit func(context.Context) (gateway.PendingTx, error),
) error {
	id, err := vm.begin(action)
	if err != nil {
		return err
	}
	logger := vm.logger.With(
		"action", string(action),
		"action_id", id,
		"account", actingUser,
	)
	ctx, span := vm.tracer.Start(
		ctx,
		"viewmodel."+string(action),
		trace.WithAttributes(
			append(
				attrs,
				attribute.String("action_id", id),
				attribute.String("account", actingUser),
			)...,
		),
	)
	// finish releases the action once its outcome is known
	finish := func(err error) error {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		vm.observe(action, err)
		vm.end(action)
		return err
	}

	tx, err := submit(ctx)
	if err != nil {
		logger.Warn("submission failed", "error", err)
		return finish(err)
	}
	logger.Info("transaction submitted", "tx", tx.Hash())

	done := make(chan error, 1)
	go func() {
		done <- finish(vm.confirm(context.WithoutCancel(ctx), logger, tx))
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Info(
			"caller stopped waiting, transaction still pending",
			"tx", tx.Hash(),
		)
		return fmt.Errorf("%s: %w", action, ctx.Err())
	}
}

// confirm waits for tx to be mined and reloads the read model
func (vm *ViewModel) confirm(
	ctx context.Context,
	logger *slog.Logger,
	tx gateway.PendingTx,
) error {
	waitCtx := ctx
	if vm.config.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, vm.config.ConfirmationTimeout)
		defer cancel()
	}
	if err := tx.Wait(waitCtx); err != nil {
		logger.Warn("transaction failed", "tx", tx.Hash(), "error", err)
		return err
	}
	logger.Info("transaction confirmed", "tx", tx.Hash())
	if _, err := vm.config.Store.Refresh(ctx); err != nil {
		return fmt.Errorf("confirmed, but reloading state failed: %w", err)
	}
	return nil
}

func (vm *ViewModel) begin(action Action) (string, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if _, ok := vm.pending[action]; ok {
		return "", fmt.Errorf("%s: %w", action, ErrActionPending)
	}
	id := uuid.NewString()
	vm.pending[action] = id
	if vm.metrics != nil {
		vm.metrics.pending.WithLabelValues(string(action)).Inc()
	}
	return id, nil
}

func (vm *ViewModel) end(action Action) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	delete(vm.pending, action)
	if vm.metrics != nil {
		vm.metrics.pending.WithLabelValues(string(action)).Dec()
	}
}

func (vm *ViewModel) observe(action Action, err error) {
	if vm.metrics == nil {
		return
	}
	result := "confirmed"
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrTransactionRejected):
		result = "rejected"
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		result = "abandoned"
	default:
		result = "failed"
	}
	vm.metrics.actions.WithLabelValues(string(action), result).Inc()
}
