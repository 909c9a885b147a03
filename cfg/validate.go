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

import "fmt"

// ValidateConfig returns a non-nil error if config is unusable.
func ValidateConfig(config *Config) error {
	if _, ok := severityRanking[config.Logging.Severity]; !ok {
		return fmt.Errorf("invalid logging.severity: %s", config.Logging.Severity)
	}

	if config.LVM.BusName == "" {
		return fmt.Errorf("lvm.bus-name must not be empty")
	}
	if config.LVM.CallTimeoutSecs <= 0 {
		return fmt.Errorf("lvm.call-timeout-secs must be positive")
	}
	if config.LVM.JobPollIntervalMs <= 0 {
		return fmt.Errorf("lvm.job-poll-interval-ms must be positive")
	}

	if config.Mount.TempDirRoot == "" {
		return fmt.Errorf("mount.temp-dir-root must not be empty")
	}

	if config.Probe.RetryCount < 0 {
		return fmt.Errorf("probe.retry-count must not be negative")
	}
	if config.Probe.RetryIntervalMs < 0 {
		return fmt.Errorf("probe.retry-interval-ms must not be negative")
	}

	for _, o := range config.Deps.VersionOverrides {
		if o.Tool == "" {
			return fmt.Errorf("deps.version-overrides: tool name must not be empty")
		}
	}

	return nil
}
