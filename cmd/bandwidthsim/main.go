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

// The bandwidthsim binary exercises the bandwidth accounting core: it
// creates the groups described by a YAML config file, runs one charging
// worker per simulated CPU and serves the accounting metrics over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/google/bandwidth"
	"github.com/google/bandwidth/config"
	"github.com/google/bandwidth/monitoring/prometheus"
	"github.com/google/bandwidth/util/clock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	configFile     = flag.String("config", "", "Config file with group quota/period definitions (required)")
	httpEndpoint   = flag.String("http_endpoint", "localhost:8091", "Endpoint for HTTP metrics (host:port, empty means disabled)")
	numCPUs        = flag.Int("cpus", 4, "Number of simulated CPUs per group")
	chargeInterval = flag.Duration("charge_interval", time.Millisecond, "Interval between usage charges on each simulated CPU")
	runFor         = flag.Duration("run_for", 10*time.Second, "How long to run the simulation (0 means forever)")
)

// logThrottler logs throttle notifications instead of dequeuing anything.
type logThrottler struct{}

func (logThrottler) Throttle(group string, cpu int) {
	klog.V(1).Infof("group %q: cpu %d out of runtime, would throttle", group, cpu)
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *configFile == "" {
		klog.Exitf("--config flag is required")
	}
	cfgs, err := config.Load(*configFile)
	if err != nil {
		klog.Exitf("Failed to load config from %q: %v", *configFile, err)
	}

	bandwidth.InitMetrics(prometheus.MetricFactory{Prefix: "bandwidth_"})
	if *httpEndpoint != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*httpEndpoint, nil); err != nil {
				klog.Exitf("HTTP server exited: %v", err)
			}
		}()
	}

	ctx := context.Background()
	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, gc := range cfgs.Groups {
		cfg, err := gc.Config()
		if err != nil {
			klog.Exitf("Bad config for group %q: %v", gc.Name, err)
		}
		clocks := make([]clock.TimeSource, *numCPUs)
		for i := range clocks {
			clocks[i] = clock.System
		}
		group, err := bandwidth.New(gc.Name, cfg, clocks, logThrottler{})
		if err != nil {
			klog.Exitf("Failed to create group %q: %v", gc.Name, err)
		}
		klog.Infof("group %q: %d cpus, quota=%v period=%v", gc.Name, *numCPUs, cfg.Quota, cfg.Period)

		eg.Go(func() error {
			group.Run(ctx)
			return nil
		})
		for cpu := 0; cpu < *numCPUs; cpu++ {
			cpu := cpu
			eg.Go(func() error {
				return charge(ctx, group, cpu)
			})
		}
	}
	if err := eg.Wait(); err != nil {
		klog.Exitf("Simulation failed: %v", err)
	}
	klog.Info("Simulation done")
}

// charge pretends cpu ran flat out, charging wall time elapsed between
// wakeups against its account.
func charge(ctx context.Context, g *bandwidth.Group, cpu int) error {
	last := time.Now()
	ticker := time.NewTicker(*chargeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			g.Charge(cpu, now.Sub(last), now)
			last = now
		}
	}
}
