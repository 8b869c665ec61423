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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type gatewayMetrics struct {
	calls *prometheus.CounterVec
}

func newGatewayMetrics(promRegistry prometheus.Registerer) *gatewayMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &gatewayMetrics{
		calls: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roombook_gateway_rpc_calls_total",
				Help: "wallet and node RPC calls, by method and result",
			},
			[]string{"method", "result"},
		),
	}
}
