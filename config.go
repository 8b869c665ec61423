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

package roombook

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/roombook/gateway"
	"github.com/blinklabs-io/roombook/web"
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	gateway             gateway.Gateway
	walletUrl           string
	rpcUrl              string
	contractAddress     string
	listenAddress       string
	basePath            string
	assetSource         string
	gcsCredentialsFile  string
	chainId             uint64
	networkPollInterval time.Duration
	receiptPollInterval time.Duration
	confirmationTimeout time.Duration
	shutdownTimeout     time.Duration
	rpcRetryMax         int
	nameLookupWorkers   int
	tracing             bool
	tracingStdout       bool
}

func (c *Config) validate() error {
	if c.gateway == nil {
		if c.walletUrl == "" {
			return errors.New("no wallet URL configured")
		}
		if !common.IsHexAddress(c.contractAddress) {
			return errors.New("invalid or missing contract address")
		}
	}
	if c.confirmationTimeout < 0 {
		return errors.New("confirmation timeout must not be negative")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the App config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new roombook config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		listenAddress: web.DefaultListenAddress,
		rpcRetryMax:   gateway.DefaultRpcRetryMax,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. The default discards all output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegisterer would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithGateway replaces the JSON-RPC wallet gateway. The wallet and contract
// settings are ignored when it is set
func WithGateway(gw gateway.Gateway) ConfigOptionFunc {
	return func(c *Config) {
		c.gateway = gw
	}
}

// WithWalletUrl specifies the wallet's JSON-RPC endpoint
func WithWalletUrl(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.walletUrl = url
	}
}

// WithRpcUrl specifies a node endpoint for reads and receipts. The wallet endpoint is used when unset
func WithRpcUrl(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.rpcUrl = url
	}
}

// WithContractAddress specifies the address of the booking contract
func WithContractAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.contractAddress = address
	}
}

// WithChainId pins the expected chain. Zero accepts any chain
func WithChainId(chainId uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.chainId = chainId
	}
}

// WithListenAddress specifies the host:port for the web shell
func WithListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.listenAddress = address
	}
}

// WithBasePath specifies the path prefix for all pages and assets
func WithBasePath(basePath string) ConfigOptionFunc {
	return func(c *Config) {
		c.basePath = basePath
	}
}

// WithAssetSource specifies a local directory or gs://bucket/prefix holding the static assets
func WithAssetSource(source string, gcsCredentialsFile string) ConfigOptionFunc {
	return func(c *Config) {
		c.assetSource = source
		c.gcsCredentialsFile = gcsCredentialsFile
	}
}

// WithPollIntervals specifies how often the wallet's chain and pending receipts are checked
func WithPollIntervals(network, receipt time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.networkPollInterval = network
		c.receiptPollInterval = receipt
	}
}

// WithConfirmationTimeout bounds the wait for a transaction to be mined. Zero waits indefinitely
func WithConfirmationTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.confirmationTimeout = timeout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithRpcRetryMax specifies how many times a failed read is retried
func WithRpcRetryMax(retryMax int) ConfigOptionFunc {
	return func(c *Config) {
		c.rpcRetryMax = retryMax
	}
}

// WithNameLookupWorkers bounds concurrent user name lookups during a refresh
func WithNameLookupWorkers(workers int) ConfigOptionFunc {
	return func(c *Config) {
		c.nameLookupWorkers = workers
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}
