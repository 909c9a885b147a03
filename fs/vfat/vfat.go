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

// Package vfat implements fs.Backend for vfat, spec.md §4.2.3.
package vfat

import (
	"context"
	"regexp"
	"strconv"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/partedit"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

type Backend struct {
	Runner runner.Runner
	Deps   *deps.Registry
	Prober probe.Prober
	Editor partedit.Editor
}

func New(r runner.Runner, dr *deps.Registry, p probe.Prober, e partedit.Editor) *Backend {
	return &Backend{Runner: r, Deps: dr, Prober: p, Editor: e}
}

func (b *Backend) Family() fs.Family { return fs.Vfat }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:     {"mkfs.vfat"},
	fs.ModeCheck:    {"fsck.vfat"},
	fs.ModeRepair:   {"fsck.vfat"},
	fs.ModeSetLabel: {"fatlabel"},
	fs.ModeResize:   {"fatresize"},
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
	noPT := runner.ExtraArg{Opt: "-I"}
	flags := fs.MkfsFlagSet{
		Label:      func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-n", Val: l}} },
		UUID:       func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-i", Val: u}} },
		NoPTAlways: &noPT,
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkfs.vfat"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkfs.vfat", err)
	}
	return nil
}

// Check runs fsck.vfat -n; exit 1 means recoverable errors found, treated
// as clean per spec.md §4.2.3.
func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"fsck.vfat", "-n", device}, runner.ExtraArgs(extra)...)
	status, err := b.Runner.ExecAndReportStatusError(ctx, args, nil)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "fsck.vfat", err)
	}
	if status == 0 || status == 1 {
		return fs.Clean, nil
	}
	return fs.Dirty, nil
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"fsck.vfat", "-a", device}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "repair", device, "fsck.vfat", err)
	}
	return nil
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	if err := b.Runner.ExecAndReportError(ctx, []string{"fatlabel", device, label}, nil); err != nil {
		return errs.New(errs.Fail, "set-label", device, "fatlabel", err)
	}
	return nil
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	return errs.New(errs.NotSupported, "set-uuid", device, "vfat has no uuid setter", nil)
}

var (
	bytesPerCluster = regexp.MustCompile(`(\d+)\s+bytes per cluster`)
	clusterUsage    = regexp.MustCompile(`(\d+)/(\d+)\s+clusters`)
)

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, _ := b.Runner.ExecAndCaptureOutput(ctx, []string{"fsck.vfat", "-nv", device}, nil)

	var clusterSize, used, total uint64
	if m := bytesPerCluster.FindStringSubmatch(out); m != nil {
		clusterSize, _ = strconv.ParseUint(m[1], 10, 64)
	}
	if m := clusterUsage.FindStringSubmatch(out); m != nil {
		used, _ = strconv.ParseUint(m[1], 10, 64)
		total, _ = strconv.ParseUint(m[2], 10, 64)
	}

	return fs.FsInfo{
		Label:            sig.Label,
		UUID:             sig.UUID,
		ClusterSize:      clusterSize,
		ClusterCount:     total,
		FreeClusterCount: total - used,
		Size:             clusterSize * total,
		FreeSpace:        clusterSize * (total - used),
	}, nil
}

// Resize implements spec.md §4.2.3's partition-editor dance: query the
// device's geometry, compute the target size (device length if newSize
// is zero), then ask the editor to resize the filesystem in place.
func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	sectors, sectorSize, err := b.Editor.DeviceLength(ctx, device)
	if err != nil {
		return err
	}
	target := newSize
	if target == 0 {
		target = sectors * sectorSize
	}
	if err := b.Editor.Resize(ctx, device, target); err != nil {
		return err
	}
	return nil
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
