// Copyright 2026 Datum Technology Corporation
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
//
// SPDX-License-Identifier: Apache-2.0

package regr

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsRegr holds Prometheus metrics for the regression scheduler.
type metricsRegr struct {
	once sync.Once

	testsLaunched prometheus.Counter
	testsPassed   prometheus.Counter
	testsFailed   prometheus.Counter
	timeouts      prometheus.Counter

	prepDuration prometheus.Histogram
	testDuration prometheus.Histogram
}

var regrMetrics metricsRegr

func (m *metricsRegr) init() {
	m.once.Do(func() {
		m.testsLaunched = prometheus.NewCounter(prometheus.CounterOpts{Name: "mio_regr_tests_launched_total", Help: "Regression tests handed to a simulator"})
		m.testsPassed = prometheus.NewCounter(prometheus.CounterOpts{Name: "mio_regr_tests_passed_total", Help: "Regression tests that completed without a tool failure"})
		m.testsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "mio_regr_tests_failed_total", Help: "Regression tests that ended in a tool failure"})
		m.timeouts = prometheus.NewCounter(prometheus.CounterOpts{Name: "mio_regr_timeouts_total", Help: "Regressions aborted by the wall-clock deadline"})

		buckets := []float64{1, 5, 15, 60, 300, 900, 3600, 14400}
		m.prepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "mio_regr_prep_seconds", Help: "Duration of the shared compile+elaborate preparation", Buckets: buckets})
		m.testDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "mio_regr_test_seconds", Help: "Duration of individual regression tests", Buckets: buckets})

		prometheus.MustRegister(
			m.testsLaunched, m.testsPassed, m.testsFailed, m.timeouts,
			m.prepDuration, m.testDuration,
		)
	})
}
