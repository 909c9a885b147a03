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

package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig_DefaultIsValid(t *testing.T) {
	c := Default()
	assert.NoError(t, ValidateConfig(&c))
}

func TestValidateConfig_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad severity", func(c *Config) { c.Logging.Severity = "LOUD" }},
		{"empty bus name", func(c *Config) { c.LVM.BusName = "" }},
		{"non-positive call timeout", func(c *Config) { c.LVM.CallTimeoutSecs = 0 }},
		{"non-positive poll interval", func(c *Config) { c.LVM.JobPollIntervalMs = -1 }},
		{"empty temp dir root", func(c *Config) { c.Mount.TempDirRoot = "" }},
		{"negative retry count", func(c *Config) { c.Probe.RetryCount = -1 }},
		{"negative retry interval", func(c *Config) { c.Probe.RetryIntervalMs = -1 }},
		{"unnamed override", func(c *Config) {
			c.Deps.VersionOverrides = []ToolVersionOverride{{MinVersion: "1.0"}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			assert.Error(t, ValidateConfig(&c))
		})
	}
}
