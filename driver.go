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
	"context"
	"time"

	"k8s.io/klog/v2"
)

// periodTick advances the pool across a period boundary. overruns is how
// many boundaries elapsed since the timer last fired (1 when on time).
// Returns whether the replenishment timer should stay armed.
//
// The pool is a two-state machine: active (consumed this period) or idle.
// Each refill speculatively marks it idle; the next assignment marks it
// active again. A pool still idle at the following boundary lets its timer
// go dormant.
func (p *Pool) periodTick(now time.Time, overruns int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quota == QuotaUnlimited || p.idle {
		p.timerActive = false
		inc(Metrics.TimerDeactivations, p.name)
		return false
	}
	if overruns > 1 {
		klog.Warningf("group %q: replenishment timer missed %d period boundaries", p.name, overruns-1)
		add(Metrics.TimerOverruns, float64(overruns-1), p.name)
	}
	p.refillLocked(now)
	p.idle = true
	return true
}

// Run drives the group's periodic refill until ctx is done. The driver
// sleeps while the pool is dormant, arms a timer for one period when an
// assignment activates the pool, and goes dormant again once a full period
// passes without consumption. A group whose quota is enforced needs exactly
// one Run goroutine; without it the pool is only refilled lazily on
// assignment and deadlines go stale.
func (g *Group) Run(ctx context.Context) {
	p := g.pool
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.activate:
		}
		g.runArmed(ctx)
	}
}

// runArmed fires period boundaries until the pool goes idle or ctx is done.
func (g *Group) runArmed(ctx context.Context) {
	p := g.pool
	for {
		period := p.periodLen()
		armed := p.clock.Now()
		timer := p.clock.NewTimer(period)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.Chan():
			overruns := 1
			if late := now.Sub(armed.Add(period)); late > 0 && period > 0 {
				overruns += int(late / period)
			}
			if !p.periodTick(now, overruns) {
				klog.V(1).Infof("group %q: pool idle, replenishment timer going dormant", p.name)
				return
			}
		}
	}
}
