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

// Package config loads declarative bandwidth configurations for task groups.
//
// A configuration file looks like:
//
//	groups:
//	  - name: batch
//	    period: 100ms
//	    quota: 50ms
//	    slice: 10ms
//	  - name: interactive
//	    period: 100ms
//	    quota: unlimited
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/bandwidth"
	"gopkg.in/yaml.v2"
)

// Unlimited is the quota value that disables enforcement for a group.
const Unlimited = "unlimited"

// Group describes the bandwidth configuration of one task group. Durations
// use time.ParseDuration syntax.
type Group struct {
	Name   string `yaml:"name"`
	Period string `yaml:"period"`
	Quota  string `yaml:"quota"`
	Slice  string `yaml:"slice,omitempty"`
	Tick   string `yaml:"tick,omitempty"`
}

// File is the top level of a bandwidth configuration file.
type File struct {
	Groups []Group `yaml:"groups"`
}

// Parse reads a configuration from data and validates it.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads a configuration from the file at path and validates it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (f *File) validate() error {
	names := make(map[string]bool)
	for i, g := range f.Groups {
		if g.Name == "" {
			return fmt.Errorf("group name is required (groups[%d].name is empty)", i)
		}
		if names[g.Name] {
			return fmt.Errorf("duplicate group name found at groups[%d].name", i)
		}
		names[g.Name] = true
		if _, err := g.Config(); err != nil {
			return fmt.Errorf("groups[%d] (%q): %v", i, g.Name, err)
		}
	}
	return nil
}

// Config converts the entry into a bandwidth.Config.
func (g Group) Config() (bandwidth.Config, error) {
	var cfg bandwidth.Config

	period, err := time.ParseDuration(g.Period)
	if err != nil {
		return cfg, fmt.Errorf("invalid period %q: %v", g.Period, err)
	}
	cfg.Period = period

	switch g.Quota {
	case "":
		return cfg, fmt.Errorf("quota is required (use %q to disable enforcement)", Unlimited)
	case Unlimited:
		cfg.Quota = bandwidth.QuotaUnlimited
	default:
		quota, err := time.ParseDuration(g.Quota)
		if err != nil {
			return cfg, fmt.Errorf("invalid quota %q: %v", g.Quota, err)
		}
		cfg.Quota = quota
	}

	if g.Slice != "" {
		slice, err := time.ParseDuration(g.Slice)
		if err != nil {
			return cfg, fmt.Errorf("invalid slice %q: %v", g.Slice, err)
		}
		cfg.Slice = slice
	}
	if g.Tick != "" {
		tick, err := time.ParseDuration(g.Tick)
		if err != nil {
			return cfg, fmt.Errorf("invalid tick %q: %v", g.Tick, err)
		}
		cfg.Tick = tick
	}
	return cfg, cfg.Validate()
}

// Apply pushes the entry's quota and period onto an existing group,
// refilling its pool immediately.
func (g Group) Apply(target *bandwidth.Group) error {
	cfg, err := g.Config()
	if err != nil {
		return err
	}
	return target.SetLimits(cfg.Quota, cfg.Period)
}
