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

// Package clock contains time sources and timers, and types that allow
// mocking system time in tests. Time sources are per consumer: two sources
// are not required to agree on the current instant beyond a small bounded
// skew, which is what the bandwidth accounting protocol is built around.
package clock

import (
	"sync"
	"time"
)

// System is a default TimeSource that provides system time.
var System TimeSource = systemTimeSource{}

// TimeSource can provide the current time, or be replaced by a mock in tests
// to return specific values.
type TimeSource interface {
	// Now returns the current time as seen by this TimeSource.
	Now() time.Time
	// NewTimer creates a timer that fires after the specified duration.
	NewTimer(d time.Duration) Timer
}

// systemTimeSource provides the current system local time.
type systemTimeSource struct{}

// Now returns the true current local time.
func (s systemTimeSource) Now() time.Time {
	return time.Now()
}

// NewTimer returns a real timer.
func (s systemTimeSource) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

// FakeTimeSource provides time that can be arbitrarily set. For tests only.
type FakeTimeSource struct {
	mu     sync.RWMutex
	now    time.Time
	timers map[int]*fakeTimer
	nextID int
}

// NewFake creates a FakeTimeSource instance.
func NewFake(t time.Time) *FakeTimeSource {
	return &FakeTimeSource{now: t, timers: make(map[int]*fakeTimer)}
}

// Now returns the time value this instance contains.
func (f *FakeTimeSource) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// NewTimer returns a fake Timer, fired by Set/Advance calls on f.
func (f *FakeTimeSource) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	timer := newFakeTimer(f, id, f.now.Add(d))
	f.timers[id] = timer
	return timer
}

// unsubscribe removes the Timer with the specified ID if it exists, and
// returns the existence bit.
func (f *FakeTimeSource) unsubscribe(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.timers[id]
	if ok {
		delete(f.timers, id)
	}
	return ok
}

// Set updates the time that this instance will report, firing any timers
// whose deadline has been reached.
func (f *FakeTimeSource) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
	for id, timer := range f.timers {
		if timer.tryFire(t) {
			delete(f.timers, id)
		}
	}
}

// Advance moves the reported time forward by d and returns the new value.
func (f *FakeTimeSource) Advance(d time.Duration) time.Time {
	t := f.Now().Add(d)
	f.Set(t)
	return t
}

// SkewedSource wraps a TimeSource and shifts every reading by a fixed
// offset. It models a CPU whose clock disagrees with its peers by a bounded
// amount, which the expiration protocol must tolerate. For tests only.
type SkewedSource struct {
	base   TimeSource
	offset time.Duration
}

// NewSkewed creates a SkewedSource reading offset ahead of (or, if negative,
// behind) base.
func NewSkewed(base TimeSource, offset time.Duration) *SkewedSource {
	return &SkewedSource{base: base, offset: offset}
}

// Now returns the skewed reading of the underlying source.
func (s *SkewedSource) Now() time.Time {
	return s.base.Now().Add(s.offset)
}

// NewTimer creates a timer on the underlying source. Timer deadlines are not
// skewed: skew models disagreement between clock readings, not timer delivery.
func (s *SkewedSource) NewTimer(d time.Duration) Timer {
	return s.base.NewTimer(d)
}
