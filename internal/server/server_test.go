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

package server

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/roombook"
	"github.com/blinklabs-io/roombook/internal/config"
)

func TestAppOptionsBuildApp(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.DefaultConfig()
	cfg.ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	app, err := roombook.New(roombook.NewConfig(AppOptions(cfg, logger)...))
	require.NoError(t, err)
	require.NoError(t, app.Stop())
}

func TestAppOptionsRequireContract(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	_, err := roombook.New(
		roombook.NewConfig(AppOptions(config.DefaultConfig(), logger)...),
	)
	require.Error(t, err)
}
