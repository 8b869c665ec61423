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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roombook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CompareFullStruct(t *testing.T) {
	path := writeConfig(t, `
contractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
walletUrl: "http://wallet:8545"
rpcUrl: "http://node:8545"
chainId: 31337
account: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
bindAddr: "127.0.0.1"
port: 9000
basePath: "/rooms"
assetSource: "gs://assets/build"
gcsCredentialsFile: "creds.json"
metricsPort: 9100
networkPollInterval: "5s"
receiptPollInterval: "1s"
confirmationTimeout: "2m"
shutdownTimeout: "10s"
rpcRetryMax: 5
nameLookupWorkers: 8
tracing: true
tracingStdout: true
`)
	expected := &Config{
		ContractAddress:     "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		WalletUrl:           "http://wallet:8545",
		RpcUrl:              "http://node:8545",
		ChainId:             31337,
		Account:             "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		BindAddr:            "127.0.0.1",
		Port:                9000,
		BasePath:            "/rooms",
		AssetSource:         "gs://assets/build",
		GcsCredentialsFile:  "creds.json",
		MetricsPort:         9100,
		NetworkPollInterval: "5s",
		ReceiptPollInterval: "1s",
		ConfirmationTimeout: "2m",
		ShutdownTimeout:     "10s",
		RpcRetryMax:         5,
		NameLookupWorkers:   8,
		Tracing:             true,
		TracingStdout:       true,
	}
	actual, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
contractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
port: 3000
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	expected.Port = 3000
	assert.Equal(t, expected, cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
walletUrl: "http://wallet:8545"
port: 3000
`)
	t.Setenv("ROOMBOOK_WALLET_URL", "http://other:8545")
	t.Setenv("ROOMBOOK_PORT", "4000")
	t.Setenv("ROOMBOOK_BASE_PATH", "/book")
	t.Setenv("ROOMBOOK_CHAIN_ID", "11155111")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/gcs.json")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://other:8545", cfg.WalletUrl)
	assert.Equal(t, uint(4000), cfg.Port)
	assert.Equal(t, "/book", cfg.BasePath)
	assert.Equal(t, uint64(11155111), cfg.ChainId)
	assert.Equal(t, "/secrets/gcs.json", cfg.GcsCredentialsFile)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad duration":      `shutdownTimeout: "soon"`,
		"negative duration": `confirmationTimeout: "-1s"`,
		"zero port":         `port: 0`,
		"negative workers":  `nameLookupWorkers: -1`,
		"bad yaml":          `port: [`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDecryptIfNeededPassesPlainFiles(t *testing.T) {
	plain := []byte("port: 9000\n")
	out, err := decryptIfNeeded(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
}

func TestDecryptIfNeededRejectsBrokenEnvelope(t *testing.T) {
	// A sops section without usable key material cannot be decrypted
	_, err := decryptIfNeeded([]byte("port: ENC[junk]\nsops:\n  version: 3.9.0\n"))
	require.Error(t, err)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, Duration("1m30s"))
	assert.Equal(t, time.Duration(0), Duration(""))
	assert.Equal(t, time.Duration(0), Duration("bogus"))
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddress())
}
