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
	"time"

	"github.com/google/bandwidth/util/clock"
)

// Account is the runtime one CPU holds on behalf of a group. It is written
// only from that CPU's scheduling context; cross-CPU reads go through
// Group.Snapshot and are not guaranteed consistent.
type Account struct {
	cpu     int
	clock   clock.TimeSource
	enabled bool

	// remaining may go negative transiently: usage is debited before
	// expiry and replenishment are resolved.
	remaining time.Duration

	// expires is the pool deadline inherited with the current balance.
	// It only ever moves forward: by adopting a newer pool deadline on
	// assignment, or by one tick of drift correction.
	expires time.Time
}
