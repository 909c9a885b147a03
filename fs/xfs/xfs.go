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

// Package xfs implements fs.Backend for xfs, spec.md §4.2.2.
package xfs

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

func (b *Backend) Family() fs.Family { return fs.XFS }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:     {"mkfs.xfs"},
	fs.ModeCheck:    {"xfs_repair"},
	fs.ModeRepair:   {"xfs_repair"},
	fs.ModeSetLabel: {"xfs_admin"},
	fs.ModeSetUUID:  {"xfs_admin"},
	fs.ModeResize:   {"xfs_growfs"},
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
		Label:     func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-L", Val: l}} },
		UUID:      func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-m", Val: "uuid=" + u}} },
		DryRun:    runner.ExtraArg{Opt: "-N"},
		NoDiscard: runner.ExtraArg{Opt: "-K"},
		Force:     runner.ExtraArg{Opt: "-f"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkfs.xfs"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkfs.xfs", err)
	}
	return nil
}

// Check runs xfs_repair -n; per spec.md §4.2.2 a nonzero exit means "not
// clean" and is explicitly not an error.
func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"xfs_repair", "-n", device}, runner.ExtraArgs(extra)...)
	status, err := b.Runner.ExecAndReportStatusError(ctx, args, nil)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "xfs_repair", err)
	}
	if status == 0 {
		return fs.Clean, nil
	}
	return fs.Dirty, nil
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"xfs_repair", device}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "repair", device, "xfs_repair", err)
	}
	return nil
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	args := []string{"xfs_admin", "-L"}
	if label == "" {
		args = append(args, "--", "")
	} else {
		args = append(args, label)
	}
	args = append(args, device)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "set-label", device, "xfs_admin", err)
	}
	return nil
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	val := id
	if val == "" {
		val = "generate"
	}
	if err := b.Runner.ExecAndReportError(ctx, []string{"xfs_admin", "-U", val, device}, nil); err != nil {
		return errs.New(errs.Fail, "set-uuid", device, "xfs_admin", err)
	}
	return nil
}

var xfsInfoDataLine = regexp.MustCompile(`data\s*=\s*bsize=(\d+)\s+blocks=(\d+)`)

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	var out string
	if mp, mounted, findErr := b.Mounts.FindTarget(ctx, device); findErr == nil && mounted {
		out, err = b.Runner.ExecAndCaptureOutput(ctx, []string{"xfs_spaceman", "-c", "info", mp}, nil)
	} else {
		out, err = b.Runner.ExecAndCaptureOutput(ctx, []string{"xfs_db", "-r", "-c", "info", device}, nil)
	}
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "xfs info", err)
	}

	m := xfsInfoDataLine.FindStringSubmatch(out)
	if m == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", device, "could not parse xfs info output", nil)
	}
	blockSize, _ := strconv.ParseUint(m[1], 10, 64)
	blockCount, _ := strconv.ParseUint(m[2], 10, 64)

	return fs.FsInfo{
		Label:      sig.Label,
		UUID:       sig.UUID,
		BlockSize:  blockSize,
		BlockCount: blockCount,
		Size:       blockSize * blockCount,
	}, nil
}

// Resize requires a mountpoint; the dispatcher's mount-on-demand logic
// guarantees mountpoint is always a live mountpoint here.
func (b *Backend) Resize(ctx context.Context, mountpoint string, newSize uint64, extra []runner.ExtraArg) error {
	args := []string{"xfs_growfs"}
	if newSize != 0 {
		args = append(args, "-D", fmt.Sprintf("%d", newSize/512))
	}
	args = append(args, runner.ExtraArgs(extra)...)
	args = append(args, mountpoint)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "resize", mountpoint, "xfs_growfs", err)
	}
	return nil
}

// GetMinSize is not supported for xfs (no tool reports it).
func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
