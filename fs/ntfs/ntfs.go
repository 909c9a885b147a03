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

// Package ntfs implements fs.Backend for ntfs, spec.md §4.2.4.
package ntfs

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/mount"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

type Backend struct {
	Runner runner.Runner
	Deps   *deps.Registry
	Prober probe.Prober
	Mounts mount.Table
}

func New(r runner.Runner, dr *deps.Registry, p probe.Prober, mt mount.Table) *Backend {
	return &Backend{Runner: r, Deps: dr, Prober: p, Mounts: mt}
}

func (b *Backend) Family() fs.Family { return fs.NTFS }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:       {"mkntfs"},
	fs.ModeCheck:      {"ntfsfix"},
	fs.ModeRepair:     {"ntfsfix"},
	fs.ModeSetLabel:   {"ntfslabel"},
	fs.ModeSetUUID:    {"ntfslabel"},
	fs.ModeResize:     {"ntfsresize"},
	fs.ModeGetMinSize: {"ntfsresize"},
}

func (b *Backend) IsTechAvail(ctx context.Context, mode fs.Mode) (bool, string, error) {
	tools, ok := toolsForMode[mode]
	if !ok {
		return true, "", nil
	}
	for _, name := range tools {
		if st := b.Deps.IsAvailable(ctx, deps.Tool{Name: name}); !st.Available {
			return false, name, nil
		}
	}
	return true, "", nil
}

func (b *Backend) Mkfs(ctx context.Context, device string, opts fs.MkfsOptions, extra []runner.ExtraArg) error {
	flags := fs.MkfsFlagSet{
		Label:  func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-L", Val: l}} },
		DryRun: runner.ExtraArg{Opt: "-n"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkntfs", "-f", "-F"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkntfs", err)
	}
	return nil
}

// Check runs ntfsfix -n; exit 1 is "recoverable, still clean" per
// spec.md §4.2.4.
func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"ntfsfix", "-n", device}, runner.ExtraArgs(extra)...)
	status, err := b.Runner.ExecAndReportStatusError(ctx, args, nil)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "ntfsfix", err)
	}
	if status == 0 || status == 1 {
		return fs.Clean, nil
	}
	return fs.Dirty, nil
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"ntfsfix", "-d", device}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "repair", device, "ntfsfix", err)
	}
	return nil
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	if err := b.Runner.ExecAndReportError(ctx, []string{"ntfslabel", device, label}, nil); err != nil {
		return errs.New(errs.Fail, "set-label", device, "ntfslabel", err)
	}
	return nil
}

// SetUUID accepts a 16-hex-char full serial or an 8-hex-char half serial,
// per spec.md §4.2.4; id == "" generates a fresh random serial.
func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	var arg string
	switch len(id) {
	case 0:
		arg = "--new-serial"
	case 16:
		arg = fmt.Sprintf("--new-serial=%s", id)
	case 8:
		arg = fmt.Sprintf("--new-half-serial=%s", id)
	default:
		return errs.New(errs.UuidInvalid, "set-uuid", device, "ntfs serial must be 8 or 16 hex characters", nil)
	}
	if err := b.Runner.ExecAndReportError(ctx, []string{"ntfslabel", device, arg}, nil); err != nil {
		return errs.New(errs.Fail, "set-uuid", device, "ntfslabel", err)
	}
	return nil
}

var (
	clusterSizeLine = regexp.MustCompile(`Cluster Size:\s*(\d+)`)
	volumeClusters  = regexp.MustCompile(`Volume Size in Clusters:\s*(\d+)`)
	freeClusters    = regexp.MustCompile(`Free Clusters:\s*(\d+)`)
)

// GetInfo must not run on a mounted device: the reversed semantic of
// spec.md §4.2.4 ("ntfsinfo requires the device be unmounted").
func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	if _, mounted, err := b.Mounts.FindTarget(ctx, device); err == nil && mounted {
		return fs.FsInfo{}, errs.New(errs.NotMounted, "get-info", device, "ntfsinfo requires device unmounted", nil)
	}

	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"ntfsinfo", "-m", device}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "ntfsinfo", err)
	}

	var clusterSize, clusterCount, free uint64
	if m := clusterSizeLine.FindStringSubmatch(out); m != nil {
		clusterSize, _ = strconv.ParseUint(m[1], 10, 64)
	}
	if m := volumeClusters.FindStringSubmatch(out); m != nil {
		clusterCount, _ = strconv.ParseUint(m[1], 10, 64)
	}
	if m := freeClusters.FindStringSubmatch(out); m != nil {
		free, _ = strconv.ParseUint(m[1], 10, 64)
	}

	return fs.FsInfo{
		Label:            sig.Label,
		UUID:             sig.UUID,
		ClusterSize:      clusterSize,
		ClusterCount:     clusterCount,
		FreeClusterCount: free,
		Size:             clusterSize * clusterCount,
		FreeSpace:        clusterSize * free,
	}, nil
}

func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	args := []string{"ntfsresize", "--no-progress-bar"}
	if newSize != 0 {
		args = append(args, "-s", fmt.Sprintf("%d", newSize))
	}
	args = append(args, runner.ExtraArgs(extra)...)
	args = append(args, device)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "resize", device, "ntfsresize", err)
	}
	return nil
}

var resizeEstimate = regexp.MustCompile(`You might resize at (\d+) bytes`)

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"ntfsresize", "--info", device}, nil)
	if err != nil {
		return 0, false, errs.New(errs.Fail, "get-min-size", device, "ntfsresize --info", err)
	}
	m := resizeEstimate.FindStringSubmatch(out)
	if m == nil {
		return 0, false, errs.New(errs.Parse, "get-min-size", device, "could not parse ntfsresize --info output", nil)
	}
	size, _ := strconv.ParseUint(m[1], 10, 64)
	return size, true, nil
}
