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

package monitoring

import "testing"

func TestInertCounter(t *testing.T) {
	var mf MetricFactory = InertMetricFactory{}
	c := mf.NewCounter("test_counter", "help", "label")

	c.Inc("a")
	c.Add(3.5, "a")
	c.Inc("b")

	if got, want := c.Value("a"), 4.5; got != want {
		t.Errorf("c.Value(a)=%v; want %v", got, want)
	}
	if got, want := c.Value("b"), 1.0; got != want {
		t.Errorf("c.Value(b)=%v; want %v", got, want)
	}
}

func TestInertGauge(t *testing.T) {
	var mf MetricFactory = InertMetricFactory{}
	g := mf.NewGauge("test_gauge", "help")

	g.Set(10.0)
	g.Inc()
	g.Dec()
	g.Add(-2.5)

	if got, want := g.Value(), 7.5; got != want {
		t.Errorf("g.Value()=%v; want %v", got, want)
	}
}

func TestInertLabelMismatch(t *testing.T) {
	var mf MetricFactory = InertMetricFactory{}
	c := mf.NewCounter("test_counter", "help", "label")

	// Mismatched labels are dropped rather than recorded under a wrong key.
	c.Inc()
	c.Inc("a", "b")

	if got, want := c.Value("a"), 0.0; got != want {
		t.Errorf("c.Value(a)=%v; want %v", got, want)
	}
}
