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

package gateway

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/blinklabs-io/roombook/event"
)

// startWatcher records the current chain and, the first time through,
// starts polling the wallet for chain switches. A negative poll interval
// or a missing event bus disables the watcher.
func (e *Ethereum) startWatcher(wallet *rpc.Client, chainId uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chainId = chainId
	if e.watchCancel != nil ||
		e.config.EventBus == nil ||
		e.config.NetworkPollInterval < 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.watchCancel = cancel
	e.watchDone = make(chan struct{})
	go e.watchNetwork(ctx, wallet, e.config.NetworkPollInterval, e.watchDone)
}

func (e *Ethereum) watchNetwork(
	ctx context.Context,
	wallet *rpc.Client,
	interval time.Duration,
	done chan struct{},
) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		chainId, err := e.fetchChainId(ctx, wallet)
		if err != nil {
			if ctx.Err() == nil {
				e.logger.Debug("failed to poll chain ID", "error", err)
			}
			continue
		}
		e.mu.Lock()
		prev := e.chainId
		e.chainId = chainId
		e.mu.Unlock()
		if chainId == prev {
			continue
		}
		e.logger.Info(
			"wallet network changed",
			"previous_chain_id", prev,
			"chain_id", chainId,
		)
		e.config.EventBus.Publish(
			NetworkChangedEventType,
			event.NewEvent(
				NetworkChangedEventType,
				NetworkChangedEvent{
					PreviousChainId: prev,
					ChainId:         chainId,
				},
			),
		)
	}
}
