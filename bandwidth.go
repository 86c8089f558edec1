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
)

// QuotaUnlimited disables quota enforcement for a group. With an unlimited
// quota no deadline state is consulted or updated.
const QuotaUnlimited time.Duration = -1

const (
	// DefaultSlice is the default amount of runtime transferred from the
	// pool to a CPU per assignment.
	DefaultSlice = 5 * time.Millisecond

	// DefaultTick is the default assumed upper bound on cross-CPU clock
	// spread, and the step by which a locally passed deadline is extended
	// when the pool shows the period has not actually rolled over.
	DefaultTick = time.Millisecond
)

// Config holds the bandwidth parameters of a group.
type Config struct {
	// Period is the wall-clock interval over which Quota is granted.
	Period time.Duration

	// Quota is the total runtime the group may consume per Period, across
	// all its CPUs. QuotaUnlimited disables enforcement.
	Quota time.Duration

	// Slice caps the runtime transferred to a CPU per assignment.
	// Zero means DefaultSlice.
	Slice time.Duration

	// Tick is the drift-correction step. Zero means DefaultTick.
	Tick time.Duration
}

func (c Config) withDefaults() Config {
	if c.Slice == 0 {
		c.Slice = DefaultSlice
	}
	if c.Tick == 0 {
		c.Tick = DefaultTick
	}
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.Period <= 0:
		return fmt.Errorf("invalid period: %v (>0 required)", c.Period)
	case c.Quota <= 0 && c.Quota != QuotaUnlimited:
		return fmt.Errorf("invalid quota: %v (>0 or QuotaUnlimited required)", c.Quota)
	case c.Slice < 0:
		return fmt.Errorf("invalid slice: %v", c.Slice)
	case c.Tick < 0:
		return fmt.Errorf("invalid tick: %v", c.Tick)
	}
	return nil
}
