// Copyright 2025 Google LLC. All Rights Reserved.
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

package bandwidth

import (
	"sync"

	"github.com/google/bandwidth/monitoring"
)

var (
	// Metrics groups all bandwidth accounting metrics. Until InitMetrics
	// is called all metrics are nil and updates are dropped.
	Metrics     = &m{}
	metricsOnce = sync.Once{}
)

type m struct {
	Refills            monitoring.Counter
	Slices             monitoring.Counter
	RuntimeGranted     monitoring.Counter
	DriftExtensions    monitoring.Counter
	ExpiredBalances    monitoring.Counter
	Throttles          monitoring.Counter
	TimerDeactivations monitoring.Counter
	TimerOverruns      monitoring.Counter
	PoolRuntime        monitoring.Gauge
}

// InitMetrics initializes Metrics using mf to create the monitoring objects.
// May be called multiple times. If so, the first call is the one that counts.
func InitMetrics(mf monitoring.MetricFactory) {
	metricsOnce.Do(func() {
		Metrics.Refills = mf.NewCounter("period_refills", "Number of pool refills", "group")
		Metrics.Slices = mf.NewCounter("slices_assigned", "Number of slices transferred from pools to CPU accounts", "group")
		Metrics.RuntimeGranted = mf.NewCounter("runtime_granted_seconds", "Runtime transferred from pools to CPU accounts", "group")
		Metrics.DriftExtensions = mf.NewCounter("drift_extensions", "Number of local deadlines extended due to cross-CPU clock drift", "group")
		Metrics.ExpiredBalances = mf.NewCounter("expired_balances", "Number of local balances discarded after a period rollover", "group")
		Metrics.Throttles = mf.NewCounter("throttle_signals", "Number of throttle notifications after failed replenishment", "group")
		Metrics.TimerDeactivations = mf.NewCounter("timer_deactivations", "Number of times an idle pool let its replenishment timer go dormant", "group")
		Metrics.TimerOverruns = mf.NewCounter("timer_overruns", "Number of period boundaries missed by delayed replenishment timers", "group")
		Metrics.PoolRuntime = mf.NewGauge("pool_runtime_seconds", "Remaining pool runtime for the current period", "group")
	})
}

func inc(c monitoring.Counter, labelVals ...string) {
	if c != nil {
		c.Inc(labelVals...)
	}
}

func add(c monitoring.Counter, val float64, labelVals ...string) {
	if c != nil {
		c.Add(val, labelVals...)
	}
}

func set(g monitoring.Gauge, val float64, labelVals ...string) {
	if g != nil {
		g.Set(val, labelVals...)
	}
}
