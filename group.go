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
	"fmt"
	"time"

	"github.com/google/bandwidth/util/clock"
	"k8s.io/klog/v2"
)

// Throttler is notified when a CPU's account remains out of runtime after a
// replenishment attempt. What happens to the throttled CPU's tasks, and when
// they resume, is outside this package.
type Throttler interface {
	Throttle(group string, cpu int)
}

type noopThrottler struct{}

func (noopThrottler) Throttle(string, int) {}

// NoopThrottler returns a Throttler that ignores all notifications.
func NoopThrottler() Throttler {
	return noopThrottler{}
}

// Group enforces a shared CPU-time quota over a set of CPUs: one pool plus
// one local runtime account per CPU. Charge may be called concurrently for
// different CPUs; calls for the same CPU must come from that CPU's
// scheduling context.
type Group struct {
	name      string
	pool      *Pool
	cpus      []*Account
	throttler Throttler
}

// New creates a Group with one account per entry in clocks, each account
// reading time from its own source. The pool's replenishment timer runs off
// the first CPU's clock. A nil throttler drops throttle notifications.
func New(name string, cfg Config, clocks []clock.TimeSource, throttler Throttler) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if len(clocks) == 0 {
		return nil, fmt.Errorf("at least one CPU clock is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if throttler == nil {
		throttler = noopThrottler{}
	}

	g := &Group{
		name:      name,
		pool:      newPool(name, cfg, clocks[0]),
		throttler: throttler,
	}
	g.cpus = make([]*Account, len(clocks))
	for i, ts := range clocks {
		g.cpus[i] = &Account{cpu: i, clock: ts, enabled: cfg.Quota != QuotaUnlimited}
	}
	return g, nil
}

// Name returns the group's name.
func (g *Group) Name() string {
	return g.name
}

// SetLimits applies a new quota and period, refilling the pool immediately
// so the new limits take effect without waiting out the current period.
// SetLimits must not run concurrently with Charge: the caller quiesces the
// per-CPU scheduling contexts around reconfiguration.
func (g *Group) SetLimits(quota, period time.Duration) error {
	cfg := Config{Quota: quota, Period: period, Slice: g.pool.slice, Tick: g.pool.tick}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.pool.setLimits(quota, period)
	enabled := quota != QuotaUnlimited
	for _, a := range g.cpus {
		a.enabled = enabled
	}
	klog.V(1).Infof("group %q: limits set to quota=%v period=%v", g.name, quota, period)
	return nil
}

// Charge debits delta of execution time from cpu's account, revalidates the
// balance against the pool's period and draws a fresh slice if the balance
// ran out. now is the charging CPU's run-queue clock reading.
//
// The debit happens before the expiry check: execution may straddle a period
// boundary, and usage must be attributed before the balance is invalidated.
func (g *Group) Charge(cpu int, delta time.Duration, now time.Time) {
	a := g.cpus[cpu]
	if !a.enabled {
		return
	}
	a.remaining -= delta
	a.expire(g.pool, now)
	if a.remaining > 0 {
		return
	}
	g.pool.assign(a)
	if a.remaining <= 0 {
		inc(Metrics.Throttles, g.name)
		g.throttler.Throttle(g.name, cpu)
	}
}

// PoolState is a diagnostic view of a group's pool.
type PoolState struct {
	Quota          time.Duration
	Period         time.Duration
	Runtime        time.Duration
	RuntimeExpires time.Time
	Idle           bool
	TimerActive    bool
}

// AccountState is a diagnostic view of one CPU's account.
type AccountState struct {
	CPU       int
	Enabled   bool
	Remaining time.Duration
	Expires   time.Time
}

// Snapshot returns a diagnostic view of the pool and all accounts. Pool
// state is read under the pool lock; account fields are owned by their CPUs,
// so values reported for a busy CPU may be stale or torn.
func (g *Group) Snapshot() (PoolState, []AccountState) {
	p := g.pool
	p.mu.Lock()
	ps := PoolState{
		Quota:          p.quota,
		Period:         p.period,
		Runtime:        p.runtime,
		RuntimeExpires: p.runtimeExpires,
		Idle:           p.idle,
		TimerActive:    p.timerActive,
	}
	p.mu.Unlock()

	accounts := make([]AccountState, len(g.cpus))
	for i, a := range g.cpus {
		accounts[i] = AccountState{CPU: a.cpu, Enabled: a.enabled, Remaining: a.remaining, Expires: a.expires}
	}
	return ps, accounts
}
