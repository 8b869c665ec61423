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

// Package gateway connects roombook to the booking contract through a
// wallet. It exposes account discovery, read-only contract calls and
// transaction submission, plus a typed binding for the contract methods.
package gateway

import (
	"context"
	"errors"

	"github.com/blinklabs-io/roombook/event"
)

const (
	NetworkChangedEventType event.EventType = "gateway.network_changed"
)

// NetworkChangedEvent is published when the wallet switches chains. Any
// state read from the previous chain is stale.
type NetworkChangedEvent struct {
	PreviousChainId uint64
	ChainId         uint64
}

var (
	ErrNoWalletFound       = errors.New("no wallet found")
	ErrConnectionRejected  = errors.New("wallet connection rejected")
	ErrWrongNetwork        = errors.New("wallet connected to unexpected network")
	ErrTransactionRejected = errors.New("transaction rejected")
	ErrNetworkFailure      = errors.New("network failure")
	ErrMalformedResponse   = errors.New("malformed contract response")
)

// Gateway is the wallet-backed connection to the booking contract
type Gateway interface {
	// Connect returns the wallet's accounts. With prompt set, the wallet is
	// asked to authorize the application; otherwise only accounts that are
	// already authorized are returned.
	Connect(ctx context.Context, prompt bool) ([]string, error)

	// Call runs a read-only contract method and returns its decoded outputs
	Call(ctx context.Context, method string, args ...any) ([]any, error)

	// Submit sends a state-changing contract call signed by from. The
	// returned transaction is not durable until Wait succeeds.
	Submit(
		ctx context.Context,
		from string,
		method string,
		args ...any,
	) (PendingTx, error)
}

// PendingTx is a submitted transaction awaiting confirmation
type PendingTx interface {
	Hash() string
	// Wait blocks until the transaction is mined. A reverted transaction
	// returns ErrTransactionRejected.
	Wait(ctx context.Context) error
}
