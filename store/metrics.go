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

package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type storeMetrics struct {
	refreshes        *prometheus.CounterVec
	refreshDuration  prometheus.Histogram
	nameLookupErrors prometheus.Counter
}

func newStoreMetrics(promRegistry prometheus.Registerer) *storeMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &storeMetrics{
		refreshes: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roombook_store_refreshes_total",
				Help: "read model refreshes, by result",
			},
			[]string{"result"},
		),
		refreshDuration: promautoFactory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "roombook_store_refresh_duration_seconds",
				Help:    "time to rebuild the read model",
				Buckets: prometheus.DefBuckets,
			},
		),
		nameLookupErrors: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "roombook_store_name_lookup_errors_total",
				Help: "user name lookups that failed and were skipped",
			},
		),
	}
}

func (m *storeMetrics) observe(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(elapsed.Seconds())
}
