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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type viewModelMetrics struct {
	actions *prometheus.CounterVec
	pending *prometheus.GaugeVec
}

func newViewModelMetrics(promRegistry prometheus.Registerer) *viewModelMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &viewModelMetrics{
		actions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roombook_actions_total",
				Help: "user actions, by action and outcome",
			},
			[]string{"action", "result"},
		),
		pending: promautoFactory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roombook_actions_pending",
				Help: "actions waiting for confirmation",
			},
			[]string{"action"},
		),
	}
}
