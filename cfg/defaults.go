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

// Default returns the configuration used before any config file or flags
// are parsed, matching the values BindFlags registers.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Severity: InfoLogSeverity,
			Format:   TextLogFormat,
		},
		LVM: LVMConfig{
			BusName:           "com.redhat.lvmdbus1",
			CallTimeoutSecs:   5,
			JobPollIntervalMs: 500,
		},
		Mount: MountConfig{
			TempDirRoot: "/tmp",
		},
		Probe: ProbeConfig{
			RetryCount:      5,
			RetryIntervalMs: 100,
		},
	}
}
