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
	"time"

	"github.com/google/bandwidth/util/clock"
)

// Pool is the shared runtime balance of a group for the current period.
// All fields below mu are guarded by it; slice and tick are fixed at
// construction and read without the lock.
type Pool struct {
	name  string
	clock clock.TimeSource
	slice time.Duration
	tick  time.Duration

	mu             sync.Mutex
	quota          time.Duration
	period         time.Duration
	runtime        time.Duration
	runtimeExpires time.Time
	idle           bool
	timerActive    bool

	// activate wakes the dormant refill driver; see Group.Run.
	activate chan struct{}
}

func newPool(name string, cfg Config, ts clock.TimeSource) *Pool {
	p := &Pool{
		name:     name,
		clock:    ts,
		slice:    cfg.Slice,
		tick:     cfg.Tick,
		quota:    cfg.Quota,
		period:   cfg.Period,
		activate: make(chan struct{}, 1),
	}
	p.mu.Lock()
	p.refillLocked(ts.Now())
	p.mu.Unlock()
	return p
}

// refillLocked resets the balance for a new period. now is the clock reading
// of whichever CPU triggered the refill; the deadline is anchored to it, not
// to a globally agreed instant.
func (p *Pool) refillLocked(now time.Time) {
	if p.quota == QuotaUnlimited {
		return
	}
	p.runtime = p.quota
	p.runtimeExpires = now.Add(p.period)
	inc(Metrics.Refills, p.name)
	set(Metrics.PoolRuntime, p.runtime.Seconds(), p.name)
}

// setLimits applies a new quota and period and refills immediately, so the
// new limits take effect without waiting out the current period.
func (p *Pool) setLimits(quota, period time.Duration) {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quota = quota
	p.period = period
	p.refillLocked(now)
}

// deadline returns the end of the period the pool's current balance belongs
// to.
func (p *Pool) deadline() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runtimeExpires
}

func (p *Pool) periodLen() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.period
}
