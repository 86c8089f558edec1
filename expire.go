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

type expiryAction int

const (
	// expiryUnchanged leaves the account alone: its deadline has not been
	// reached yet.
	expiryUnchanged expiryAction = iota

	// expiryExtend nudges the local deadline forward by one tick: the
	// local clock ran ahead of the clock that stamped the deadline, but
	// the period has not rolled over.
	expiryExtend

	// expiryDiscard zeroes the local balance: the pool has moved on to a
	// new period and the balance belongs to a closed one.
	expiryDiscard
)

// expiryDecision decides whether a balance granted under localExpires is
// still valid given the pool's current deadline and the local clock reading
// now. Deadlines are compared against each other, not against raw clock
// readings: per-CPU clocks may disagree by a bounded amount, so a locally
// passed deadline does not by itself prove the period rolled over. The pool
// deadline is the only shared reference point, and it is enough.
func expiryDecision(localExpires, poolExpires, now time.Time) expiryAction {
	if now.Before(localExpires) {
		return expiryUnchanged
	}
	if !localExpires.Before(poolExpires) {
		return expiryExtend
	}
	return expiryDiscard
}

// expire invalidates a's balance if it belongs to a closed period. Invoked
// before any new usage is charged; now is the charging CPU's clock reading.
func (a *Account) expire(p *Pool, now time.Time) {
	// Common case: deadline not reached. Must stay cheap, no pool access.
	if now.Before(a.expires) {
		return
	}
	// A deficit is settled by the next assignment regardless of which
	// period it was incurred in.
	if a.remaining < 0 {
		return
	}
	switch expiryDecision(a.expires, p.deadline(), now) {
	case expiryExtend:
		a.expires = a.expires.Add(p.tick)
		inc(Metrics.DriftExtensions, p.name)
	case expiryDiscard:
		// Runtime from a closed period is forfeit. The deadline is
		// left as is; the next assignment adopts the pool's new one.
		a.remaining = 0
		inc(Metrics.ExpiredBalances, p.name)
	}
}
