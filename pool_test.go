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
	"os"
	"testing"
	"time"

	"github.com/google/bandwidth/monitoring"
	"github.com/google/bandwidth/util/clock"
)

func TestMain(m *testing.M) {
	InitMetrics(monitoring.InertMetricFactory{})
	os.Exit(m.Run())
}

func TestRefillAdvancesDeadlineByOnePeriod(t *testing.T) {
	fake := clock.NewFake(testStart)
	cfg := Config{Period: 100 * time.Millisecond, Quota: 50 * time.Millisecond, Slice: 10 * time.Millisecond}
	g := newTestGroup(t, cfg, fake)
	p := g.pool

	ps, _ := g.Snapshot()
	if got, want := ps.Runtime, cfg.Quota; got != want {
		t.Fatalf("initial runtime = %v, want %v", got, want)
	}
	if got, want := ps.RuntimeExpires, testStart.Add(cfg.Period); got != want {
		t.Fatalf("initial deadline = %v, want %v", got, want)
	}

	// Drain some runtime, then walk several genuine refills: each one
	// resets the balance and advances the deadline by exactly one period.
	for i := 1; i <= 3; i++ {
		g.pool.assign(g.cpus[0])
		boundary := testStart.Add(time.Duration(i) * cfg.Period)
		fake.Set(boundary)
		if got, want := p.periodTick(boundary, 1), true; got != want {
			t.Fatalf("refill %d: periodTick() = %v, want %v", i, got, want)
		}
		ps, _ := g.Snapshot()
		if got, want := ps.Runtime, cfg.Quota; got != want {
			t.Errorf("refill %d: runtime = %v, want %v", i, got, want)
		}
		if got, want := ps.RuntimeExpires, boundary.Add(cfg.Period); got != want {
			t.Errorf("refill %d: deadline = %v, want %v", i, got, want)
		}
		// Drained slice must be re-drawable next round.
		g.cpus[0].remaining = 0
		g.cpus[0].expires = time.Time{}
	}
}

func TestRefillCountsInMetrics(t *testing.T) {
	fake := clock.NewFake(testStart)
	cfg := Config{Period: 100 * time.Millisecond, Quota: 50 * time.Millisecond, Slice: 10 * time.Millisecond}
	g := newTestGroup(t, cfg, fake)

	before := Metrics.Refills.Value("test")
	g.pool.assign(g.cpus[0])
	g.pool.periodTick(testStart.Add(cfg.Period), 1)
	if got, want := Metrics.Refills.Value("test"), before+1; got != want {
		t.Errorf("Refills = %v, want %v", got, want)
	}
}

func TestUnlimitedQuotaSkipsDeadlines(t *testing.T) {
	fake := clock.NewFake(testStart)
	cfg := Config{Period: 100 * time.Millisecond, Quota: QuotaUnlimited, Slice: 10 * time.Millisecond}
	g, err := New("test", cfg, []clock.TimeSource{fake}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	a := g.cpus[0]

	if a.enabled {
		t.Error("account enabled with unlimited quota")
	}
	if got, want := g.pool.assign(a), cfg.Slice; got != want {
		t.Errorf("assign() = %v, want %v", got, want)
	}
	ps, accounts := g.Snapshot()
	if !ps.RuntimeExpires.IsZero() {
		t.Errorf("pool deadline = %v, want zero (never written)", ps.RuntimeExpires)
	}
	if !accounts[0].Expires.IsZero() {
		t.Errorf("account deadline = %v, want zero (never written)", accounts[0].Expires)
	}
	// Charge is a no-op for disabled accounts.
	g.Charge(0, time.Hour, testStart)
	if got, want := g.cpus[0].remaining, cfg.Slice; got != want {
		t.Errorf("remaining after Charge = %v, want %v", got, want)
	}
}

func TestSetLimitsRefillsImmediately(t *testing.T) {
	fake := clock.NewFake(testStart)
	cfg := Config{Period: 100 * time.Millisecond, Quota: 50 * time.Millisecond, Slice: 10 * time.Millisecond}
	g := newTestGroup(t, cfg, fake)
	g.pool.assign(g.cpus[0])

	now := fake.Advance(30 * time.Millisecond)
	if err := g.SetLimits(80*time.Millisecond, 200*time.Millisecond); err != nil {
		t.Fatalf("SetLimits() = %v", err)
	}
	ps, _ := g.Snapshot()
	if got, want := ps.Runtime, 80*time.Millisecond; got != want {
		t.Errorf("runtime = %v, want %v (new limits must not wait out the period)", got, want)
	}
	if got, want := ps.RuntimeExpires, now.Add(200*time.Millisecond); got != want {
		t.Errorf("deadline = %v, want %v", got, want)
	}
}

func TestSetLimitsTogglesEnforcement(t *testing.T) {
	fake := clock.NewFake(testStart)
	cfg := Config{Period: 100 * time.Millisecond, Quota: 50 * time.Millisecond, Slice: 10 * time.Millisecond}
	g := newTestGroup(t, cfg, fake)

	if err := g.SetLimits(QuotaUnlimited, cfg.Period); err != nil {
		t.Fatalf("SetLimits(unlimited) = %v", err)
	}
	if g.cpus[0].enabled {
		t.Error("account still enabled after switch to unlimited")
	}
	if err := g.SetLimits(20*time.Millisecond, cfg.Period); err != nil {
		t.Fatalf("SetLimits(20ms) = %v", err)
	}
	if !g.cpus[0].enabled {
		t.Error("account not re-enabled after switch to limited")
	}
}

func TestSetLimitsRejectsBadValues(t *testing.T) {
	fake := clock.NewFake(testStart)
	cfg := Config{Period: 100 * time.Millisecond, Quota: 50 * time.Millisecond}
	g := newTestGroup(t, cfg, fake)

	for _, test := range []struct {
		quota, period time.Duration
	}{
		{quota: 0, period: 100 * time.Millisecond},
		{quota: -5 * time.Millisecond, period: 100 * time.Millisecond},
		{quota: 50 * time.Millisecond, period: 0},
		{quota: 50 * time.Millisecond, period: -time.Second},
	} {
		if err := g.SetLimits(test.quota, test.period); err == nil {
			t.Errorf("SetLimits(%v, %v) = nil, want error", test.quota, test.period)
		}
	}
}

func TestNewValidation(t *testing.T) {
	fake := clock.NewFake(testStart)
	clocks := []clock.TimeSource{fake}
	good := Config{Period: 100 * time.Millisecond, Quota: 50 * time.Millisecond}

	tests := []struct {
		desc    string
		name    string
		cfg     Config
		clocks  []clock.TimeSource
		wantErr bool
	}{
		{desc: "ok", name: "g", cfg: good, clocks: clocks},
		{desc: "no name", name: "", cfg: good, clocks: clocks, wantErr: true},
		{desc: "no clocks", name: "g", cfg: good, clocks: nil, wantErr: true},
		{desc: "no period", name: "g", cfg: Config{Quota: 50 * time.Millisecond}, clocks: clocks, wantErr: true},
		{desc: "zero quota", name: "g", cfg: Config{Period: time.Second}, clocks: clocks, wantErr: true},
		{desc: "negative slice", name: "g", cfg: Config{Period: time.Second, Quota: time.Millisecond, Slice: -1}, clocks: clocks, wantErr: true},
		{desc: "negative tick", name: "g", cfg: Config{Period: time.Second, Quota: time.Millisecond, Tick: -1}, clocks: clocks, wantErr: true},
		{desc: "unlimited", name: "g", cfg: Config{Period: time.Second, Quota: QuotaUnlimited}, clocks: clocks},
	}
	for _, test := range tests {
		_, err := New(test.name, test.cfg, test.clocks, nil)
		if gotErr := err != nil; gotErr != test.wantErr {
			t.Errorf("%v: New() = %v, wantErr %v", test.desc, err, test.wantErr)
		}
	}
}
