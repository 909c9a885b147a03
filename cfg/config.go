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

// Package cfg is the ambient configuration layer of SPEC_FULL.md §2: a
// nested Config struct with yaml tags plus a BindFlags that registers
// pflag flags and binds them into viper, in the shape of the teacher's
// cfg/config.go, carrying the knobs the blockdev library itself needs
// rather than gcsfuse's mount-flag surface.
package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for the blockdev library and its
// cmd/blockdevctl sample driver. cmd/blockdevctl applies only the Logging
// section; the Deps, LVM, Mount and Probe sections are decoded and
// validated, and no other package reads them.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`

	Deps DepsConfig `yaml:"deps"`

	LVM LVMConfig `yaml:"lvm"`

	Mount MountConfig `yaml:"mount"`

	Probe ProbeConfig `yaml:"probe"`
}

// LoggingConfig controls internal/logger, mirroring the teacher's
// Logging.Severity/Logging.Format.
type LoggingConfig struct {
	Severity LogSeverity `yaml:"severity"`
	Format   LogFormat   `yaml:"format"`
}

// DepsConfig lists per-tool minimum-version overrides (spec.md §2 item 3).
// deps.Registry does not read them; it checks the MinVersion each caller
// passes in its deps.Tool.
type DepsConfig struct {
	VersionOverrides []ToolVersionOverride `yaml:"version-overrides" mapstructure:"version-overrides"`
}

// LVMConfig configures the LVM D-Bus adapter (spec.md §4.4, §6.5).
type LVMConfig struct {
	// BusName is the D-Bus well-known name of the LVM service.
	BusName string `yaml:"bus-name" mapstructure:"bus-name"`
	// CallTimeoutSecs is the per-call D-Bus timeout setting (spec.md
	// §4.4.2 step 4). The lvm package uses a fixed 5-second transport
	// timeout and does not read this value.
	CallTimeoutSecs int `yaml:"call-timeout-secs" mapstructure:"call-timeout-secs"`
	// JobPollIntervalMs is the Job.Complete polling interval setting
	// (spec.md §4.4.2 step 6, §5 "g_usleep(500 ms)"). The lvm package
	// polls at a fixed 500 ms and does not read this value.
	JobPollIntervalMs int `yaml:"job-poll-interval-ms" mapstructure:"job-poll-interval-ms"`
	// DevicesFile is the LVM devices file path override (spec.md §6.6).
	// No package reads it; lvm.DevicesFilePath takes its override as an
	// argument and the per-call config dictionary does not carry it.
	DevicesFile string `yaml:"devices-file" mapstructure:"devices-file"`
}

// MountConfig configures mount-on-demand (spec.md §4.1.1).
type MountConfig struct {
	// TempDirRoot is the parent directory setting for temporary
	// mountpoints (spec.md §6.6's /tmp/blockdev.XXXXXX). Mount-on-demand
	// creates its directories under os.TempDir() and does not read it.
	TempDirRoot string `yaml:"temp-dir-root" mapstructure:"temp-dir-root"`
}

// ProbeConfig holds the superblock-prober retry settings (spec.md §4.3).
// The probe package does not read them.
type ProbeConfig struct {
	RetryCount         int `yaml:"retry-count" mapstructure:"retry-count"`
	RetryIntervalMs    int `yaml:"retry-interval-ms" mapstructure:"retry-interval-ms"`
}

// BindFlags registers the library's command-line flags on flagSet and
// binds each into v under the matching dotted key, in the shape of the
// teacher's cfg.BindFlags.
func BindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	bind := func(key, flag string) error {
		return v.BindPFlag(key, flagSet.Lookup(flag))
	}

	flagSet.StringP("log-severity", "", string(InfoLogSeverity), "Logging severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err := bind("logging.severity", "log-severity"); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", string(TextLogFormat), "Logging output format: text or json.")
	if err := bind("logging.format", "log-format"); err != nil {
		return err
	}

	flagSet.StringP("lvm-bus-name", "", "com.redhat.lvmdbus1", "D-Bus well-known name of the LVM service.")
	if err := bind("lvm.bus-name", "lvm-bus-name"); err != nil {
		return err
	}

	flagSet.IntP("lvm-call-timeout-secs", "", 5, "Per-call D-Bus transport timeout in seconds.")
	if err := bind("lvm.call-timeout-secs", "lvm-call-timeout-secs"); err != nil {
		return err
	}

	flagSet.IntP("lvm-job-poll-interval-ms", "", 500, "Polling interval for LVM Job.Complete, in milliseconds.")
	if err := bind("lvm.job-poll-interval-ms", "lvm-job-poll-interval-ms"); err != nil {
		return err
	}

	flagSet.StringP("lvm-devices-file", "", "", "Override path to the LVM devices file (default /etc/lvm/devices/system.devices).")
	if err := bind("lvm.devices-file", "lvm-devices-file"); err != nil {
		return err
	}

	flagSet.StringP("mount-temp-dir-root", "", "/tmp", "Parent directory for mount-on-demand temporary mountpoints.")
	if err := bind("mount.temp-dir-root", "mount-temp-dir-root"); err != nil {
		return err
	}

	flagSet.IntP("probe-retry-count", "", 5, "Superblock-probe transient-failure retry count.")
	if err := bind("probe.retry-count", "probe-retry-count"); err != nil {
		return err
	}

	flagSet.IntP("probe-retry-interval-ms", "", 100, "Delay between superblock-probe retries, in milliseconds.")
	if err := bind("probe.retry-interval-ms", "probe-retry-interval-ms"); err != nil {
		return err
	}

	return nil
}
