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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/getsops/sops/v3/decrypt"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "roombook.config"

const (
	DefaultShutdownTimeout     = "30s"
	DefaultNetworkPollInterval = "15s"
	DefaultReceiptPollInterval = "2s"

	envPrefix = "roombook"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	ContractAddress string `yaml:"contractAddress" split_words:"true"`
	WalletUrl       string `yaml:"walletUrl"       split_words:"true"`
	// RpcUrl is optional, reads go through the wallet endpoint when empty
	RpcUrl  string `yaml:"rpcUrl"  split_words:"true"`
	ChainId uint64 `yaml:"chainId" split_words:"true"`
	// Account overrides the first wallet account for CLI actions
	Account             string `yaml:"account"`
	BindAddr            string `yaml:"bindAddr"            split_words:"true"`
	Port                uint   `yaml:"port"`
	BasePath            string `yaml:"basePath"            split_words:"true"`
	AssetSource         string `yaml:"assetSource"         split_words:"true"`
	GcsCredentialsFile  string `yaml:"gcsCredentialsFile"  envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	MetricsPort         uint   `yaml:"metricsPort"         split_words:"true"`
	NetworkPollInterval string `yaml:"networkPollInterval" split_words:"true"`
	ReceiptPollInterval string `yaml:"receiptPollInterval" split_words:"true"`
	ConfirmationTimeout string `yaml:"confirmationTimeout" split_words:"true"`
	ShutdownTimeout     string `yaml:"shutdownTimeout"     split_words:"true"`
	RpcRetryMax         int    `yaml:"rpcRetryMax"         split_words:"true"`
	NameLookupWorkers   int    `yaml:"nameLookupWorkers"   split_words:"true"`
	Tracing             bool   `yaml:"tracing"`
	TracingStdout       bool   `yaml:"tracingStdout"       split_words:"true"`
}

// DefaultConfig returns the values used when neither the config file nor
// the environment sets them
func DefaultConfig() *Config {
	return &Config{
		WalletUrl:           "http://127.0.0.1:8545",
		BindAddr:            "0.0.0.0",
		Port:                8080,
		BasePath:            "/",
		MetricsPort:         12799,
		NetworkPollInterval: DefaultNetworkPollInterval,
		ReceiptPollInterval: DefaultReceiptPollInterval,
		ConfirmationTimeout: "0s",
		ShutdownTimeout:     DefaultShutdownTimeout,
		RpcRetryMax:         3,
		NameLookupWorkers:   4,
	}
}

// LoadConfig builds the config from the defaults, the config file and the
// environment, in increasing order of precedence. With an empty configFile,
// ~/.roombook/roombook.yaml and then /etc/roombook/roombook.yaml are tried.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		buf, err = decryptIfNeeded(buf)
		if err != nil {
			return nil, fmt.Errorf("error decrypting config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".roombook", "roombook.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/roombook/roombook.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

// decryptIfNeeded decrypts SOPS-encrypted YAML. Plain files are returned
// unchanged.
func decryptIfNeeded(buf []byte) ([]byte, error) {
	var probe struct {
		Sops map[string]any `yaml:"sops"`
	}
	if err := yaml.Unmarshal(buf, &probe); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if probe.Sops == nil {
		return buf, nil
	}
	return decrypt.Data(buf, "yaml")
}

// Validate checks the durations parse and the listener is usable. The
// contract address is only checked when a ledger connection is made.
func (c *Config) Validate() error {
	durations := map[string]string{
		"networkPollInterval": c.NetworkPollInterval,
		"receiptPollInterval": c.ReceiptPollInterval,
		"confirmationTimeout": c.ConfirmationTimeout,
		"shutdownTimeout":     c.ShutdownTimeout,
	}
	for name, val := range durations {
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", name)
		}
	}
	if c.Port == 0 {
		return errors.New("invalid port: must not be zero")
	}
	if c.NameLookupWorkers < 0 {
		return errors.New("invalid nameLookupWorkers: must not be negative")
	}
	return nil
}

// Duration returns the parsed value of a duration setting, or zero when it
// is unset. Values are checked by Validate.
func Duration(val string) time.Duration {
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}

// ListenAddress is the web shell's host:port
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}
