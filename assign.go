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

import "time"

// assign transfers runtime from the pool into a, topping its balance back up
// to one slice, and returns the amount granted. A zero grant means the pool
// is exhausted for this period; the caller escalates to throttling.
//
// If the replenishment timer went dormant while the pool was idle, the pool
// is refilled on the spot and the driver is woken.
func (p *Pool) assign(a *Account) time.Duration {
	amount := p.slice - a.remaining

	p.mu.Lock()
	if p.quota == QuotaUnlimited {
		p.mu.Unlock()
		a.remaining += amount
		return amount
	}

	poke := false
	if !p.timerActive {
		p.refillLocked(a.clock.Now())
		p.timerActive = true
		poke = true
	}
	var granted time.Duration
	if p.runtime > 0 {
		granted = amount
		if granted > p.runtime {
			granted = p.runtime
		}
		p.runtime -= granted
		p.idle = false
		set(Metrics.PoolRuntime, p.runtime.Seconds(), p.name)
	}
	expires := p.runtimeExpires
	p.mu.Unlock()

	if poke {
		select {
		case p.activate <- struct{}{}:
		default:
		}
	}

	a.remaining += granted
	// The local deadline only ever moves forward.
	if expires.After(a.expires) {
		a.expires = expires
	}
	if granted > 0 {
		inc(Metrics.Slices, p.name)
		add(Metrics.RuntimeGranted, granted.Seconds(), p.name)
	}
	return granted
}
