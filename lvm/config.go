// Copyright 2025 Google LLC
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

package lvm

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/blockdevkit/blockdev/runner"
)

// Config holds the per-process LVM config overrides of spec.md §3.3's
// "global_config_str and global_devices_str ... mutated only by
// set_global_config and set_devices_filter, both holding the config
// mutex; read under the same mutex during every LVM call." A single
// mutex both protects these two fields and, when a call takes the
// lockConfig path, is held across the full method-call protocol so a
// concurrent SetGlobalConfig cannot change the view mid-call.
type Config struct {
	mu                sync.Mutex
	globalConfigStr   string
	globalDevicesStr  string
}

// NewConfig returns an empty Config; zero value also works.
func NewConfig() *Config { return &Config{} }

func (c *Config) SetGlobalConfig(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.globalConfigStr = s
}

func (c *Config) SetDevicesFilter(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.globalDevicesStr = s
}

// Lock/Unlock expose the process-wide config mutex for Call's lockConfig
// path (spec.md §4.4.2 step 1 / step 7).
func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }

// buildDict folds the current global config string, device filter and
// any per-call extra args into the a{sv} dictionary the protocol appends
// as the final call argument (spec.md §4.4.2 step 2). Callers that
// already hold c's mutex (the lockConfig path) must not call this
// concurrently with SetGlobalConfig/SetDevicesFilter from elsewhere,
// which buildDictLocked assumes.
func (c *Config) buildDict(extra []runner.ExtraArg) map[string]dbus.Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildDictLocked(extra)
}

func (c *Config) buildDictLocked(extra []runner.ExtraArg) map[string]dbus.Variant {
	d := make(map[string]dbus.Variant, len(extra)+2)
	if c.globalConfigStr != "" {
		d["--config"] = dbus.MakeVariant(c.globalConfigStr)
	}
	if c.globalDevicesStr != "" {
		d["--devices"] = dbus.MakeVariant(c.globalDevicesStr)
	}
	for _, e := range extra {
		d[e.Opt] = dbus.MakeVariant(e.Val)
	}
	return d
}
