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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/roombook/event"
)

const (
	DefaultNetworkPollInterval = 15 * time.Second
	DefaultReceiptPollInterval = 2 * time.Second
	DefaultRpcRetryMax         = 3

	// EIP-1193 "user rejected request"
	userRejectedCode = 4001
	// EIP-1474 "execution reverted"
	executionRevertedCode = 3
)

// EthereumConfig configures the JSON-RPC backed gateway
type EthereumConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// WalletUrl is the JSON-RPC endpoint of the wallet holding the user's
	// accounts. It signs every submitted transaction.
	WalletUrl string
	// RpcUrl is an optional node endpoint for reads and receipts. The
	// wallet endpoint is used when empty.
	RpcUrl          string
	ContractAddress string
	// ChainId pins the expected network. Zero accepts any network.
	ChainId             uint64
	NetworkPollInterval time.Duration
	ReceiptPollInterval time.Duration
	RpcRetryMax         int
}

// Ethereum is a Gateway backed by an Ethereum JSON-RPC wallet
type Ethereum struct {
	config   EthereumConfig
	logger   *slog.Logger
	abi      abi.ABI
	contract common.Address
	metrics  *gatewayMetrics

	mu          sync.Mutex
	wallet      *rpc.Client
	reader      *ethclient.Client
	readerRpc   *rpc.Client
	chainId     uint64
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// NewEthereum creates a gateway for the contract at cfg.ContractAddress.
// No connection is made until the first call.
func NewEthereum(cfg EthereumConfig) (*Ethereum, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf(
			"invalid contract address: %q",
			cfg.ContractAddress,
		)
	}
	if cfg.NetworkPollInterval == 0 {
		cfg.NetworkPollInterval = DefaultNetworkPollInterval
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = DefaultReceiptPollInterval
	}
	if cfg.RpcRetryMax < 0 {
		cfg.RpcRetryMax = DefaultRpcRetryMax
	}
	parsed, err := abi.JSON(strings.NewReader(BookingABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	e := &Ethereum{
		config:   cfg,
		logger:   cfg.Logger.With("component", "gateway"),
		abi:      parsed,
		contract: common.HexToAddress(cfg.ContractAddress),
	}
	if cfg.PromRegistry != nil {
		e.metrics = newGatewayMetrics(cfg.PromRegistry)
	}
	return e, nil
}

// dial opens the wallet and reader clients once
func (e *Ethereum) dial(
	ctx context.Context,
) (*rpc.Client, *ethclient.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.wallet != nil {
		return e.wallet, e.reader, nil
	}
	if e.config.WalletUrl == "" {
		return nil, nil, ErrNoWalletFound
	}
	wallet, err := rpc.DialContext(ctx, e.config.WalletUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoWalletFound, err)
	}
	reader := ethclient.NewClient(wallet)
	if e.config.RpcUrl != "" {
		// Reads are idempotent, so the node connection may retry. Wallet
		// traffic never does: a retried send could submit twice.
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = e.config.RpcRetryMax
		retryClient.Logger = e.logger
		readerRpc, err := rpc.DialOptions(
			ctx,
			e.config.RpcUrl,
			rpc.WithHTTPClient(retryClient.StandardClient()),
		)
		if err != nil {
			wallet.Close()
			return nil, nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
		}
		e.readerRpc = readerRpc
		reader = ethclient.NewClient(readerRpc)
	}
	e.wallet = wallet
	e.reader = reader
	return wallet, reader, nil
}

// Connect implements Gateway
func (e *Ethereum) Connect(ctx context.Context, prompt bool) ([]string, error) {
	wallet, _, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	chainId, err := e.fetchChainId(ctx, wallet)
	if err != nil {
		// An endpoint that can't answer eth_chainId is not a usable wallet
		return nil, fmt.Errorf("%w: %w", ErrNoWalletFound, err)
	}
	if e.config.ChainId != 0 && chainId != e.config.ChainId {
		return nil, fmt.Errorf(
			"%w: expected chain %d, wallet is on %d",
			ErrWrongNetwork,
			e.config.ChainId,
			chainId,
		)
	}
	method := "eth_accounts"
	if prompt {
		method = "eth_requestAccounts"
	}
	var accounts []common.Address
	err = wallet.CallContext(ctx, &accounts, method)
	e.observe(method, err)
	if err != nil {
		if isUserRejection(err) {
			return nil, fmt.Errorf("%w: %w", ErrConnectionRejected, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNetworkFailure, method, err)
	}
	ret := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ret = append(ret, account.Hex())
	}
	e.startWatcher(wallet, chainId)
	return ret, nil
}

// Call implements Gateway
func (e *Ethereum) Call(
	ctx context.Context,
	method string,
	args ...any,
) ([]any, error) {
	_, reader, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	to := e.contract
	out, err := reader.CallContract(
		ctx,
		ethereum.CallMsg{To: &to, Data: data},
		nil,
	)
	e.observe(method, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetworkFailure, method, err)
	}
	ret, err := e.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedResponse, method, err)
	}
	return ret, nil
}

// Submit implements Gateway
func (e *Ethereum) Submit(
	ctx context.Context,
	from string,
	method string,
	args ...any,
) (PendingTx, error) {
	if !common.IsHexAddress(from) {
		return nil, fmt.Errorf("invalid sender address: %q", from)
	}
	wallet, reader, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	txArgs := map[string]any{
		"from": common.HexToAddress(from),
		"to":   e.contract,
		"data": hexutil.Bytes(data),
	}
	var hash common.Hash
	err = wallet.CallContext(ctx, &hash, "eth_sendTransaction", txArgs)
	e.observe(method, err)
	if err != nil {
		if isUserRejection(err) || isRevert(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrTransactionRejected, method, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNetworkFailure, method, err)
	}
	e.logger.Info(
		"submitted transaction",
		"method", method,
		"hash", hash.Hex(),
		"from", from,
	)
	return &ethereumTx{
		hash:     hash,
		method:   method,
		reader:   reader,
		interval: e.config.ReceiptPollInterval,
		logger:   e.logger,
	}, nil
}

// ChainId returns the last chain ID seen from the wallet
func (e *Ethereum) ChainId() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chainId
}

// Close stops the network watcher and closes the RPC clients
func (e *Ethereum) Close() error {
	e.mu.Lock()
	cancel := e.watchCancel
	done := e.watchDone
	e.watchCancel = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readerRpc != nil {
		e.readerRpc.Close()
		e.readerRpc = nil
	}
	if e.wallet != nil {
		e.wallet.Close()
		e.wallet = nil
		e.reader = nil
	}
	return nil
}

func (e *Ethereum) fetchChainId(
	ctx context.Context,
	wallet *rpc.Client,
) (uint64, error) {
	var chainId hexutil.Uint64
	err := wallet.CallContext(ctx, &chainId, "eth_chainId")
	e.observe("eth_chainId", err)
	if err != nil {
		return 0, err
	}
	return uint64(chainId), nil
}

func (e *Ethereum) observe(method string, err error) {
	if e.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.metrics.calls.WithLabelValues(method, result).Inc()
}

type ethereumTx struct {
	hash     common.Hash
	method   string
	reader   *ethclient.Client
	interval time.Duration
	logger   *slog.Logger
}

func (t *ethereumTx) Hash() string {
	return t.hash.Hex()
}

// Wait polls for the receipt until the transaction is mined or ctx ends
func (t *ethereumTx) Wait(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		receipt, err := t.reader.TransactionReceipt(ctx, t.hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf(
					"%w: %s reverted in block %s",
					ErrTransactionRejected,
					t.hash.Hex(),
					receipt.BlockNumber,
				)
			}
			t.logger.Info(
				"transaction confirmed",
				"method", t.method,
				"hash", t.hash.Hex(),
				"block", receipt.BlockNumber,
			)
			return nil
		case errors.Is(err, ethereum.NotFound):
			t.logger.Debug("transaction not yet mined", "hash", t.hash.Hex())
		default:
			t.logger.Debug(
				"failed to get transaction receipt",
				"hash", t.hash.Hex(),
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func isUserRejection(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode
}

func isRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == executionRevertedCode {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
