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

// Package btrfs implements fs.Backend for btrfs, spec.md §4.2.6. Unlike
// the other families, most of its operations take a mountpoint rather
// than the raw device; the dispatcher's mount-on-demand logic guarantees
// that by consulting the capability matrix's MountRequiredLabel/Info and
// OnlineOnly-resize flags.
package btrfs

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/runner"
)

type Backend struct {
	Runner runner.Runner
	Deps   *deps.Registry
}

func New(r runner.Runner, dr *deps.Registry) *Backend {
	return &Backend{Runner: r, Deps: dr}
}

func (b *Backend) Family() fs.Family { return fs.Btrfs }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:     {"mkfs.btrfs"},
	fs.ModeCheck:    {"btrfsck"},
	fs.ModeRepair:   {"btrfsck"},
	fs.ModeSetLabel: {"btrfs"},
	fs.ModeSetUUID:  {"btrfstune"},
	fs.ModeResize:   {"btrfs"},
	fs.ModeGetInfo:  {"btrfs"},
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
		UUID:      func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-U", Val: u}} },
		NoDiscard: runner.ExtraArg{Opt: "-K"},
		Force:     runner.ExtraArg{Opt: "-f"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkfs.btrfs"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkfs.btrfs", err)
	}
	return nil
}

func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"btrfsck", device}, runner.ExtraArgs(extra)...)
	status, err := b.Runner.ExecAndReportStatusError(ctx, args, nil)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "btrfsck", err)
	}
	if status == 0 {
		return fs.Clean, nil
	}
	return fs.Dirty, nil
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"btrfsck", "--repair", device}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "repair", device, "btrfsck", err)
	}
	return nil
}

// SetLabel takes a mountpoint: the dispatcher's capability matrix marks
// btrfs's set_label MountRequiredLabel.
func (b *Backend) SetLabel(ctx context.Context, mountpoint, label string) error {
	if err := b.Runner.ExecAndReportError(ctx, []string{"btrfs", "filesystem", "label", mountpoint, label}, nil); err != nil {
		return errs.New(errs.Fail, "set-label", mountpoint, "btrfs filesystem label", err)
	}
	return nil
}

// SetUUID runs against the raw device (not mount-required) and feeds
// "y\n" on stdin, matching btrfstune's interactive confirmation prompt
// (spec.md §4.2.6).
func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	args := []string{"btrfstune"}
	if id == "" {
		args = append(args, "-u")
	} else {
		args = append(args, "-U", id)
	}
	args = append(args, device)
	if err := b.Runner.ExecWithInput(ctx, args, "y\n", nil); err != nil {
		return errs.New(errs.Fail, "set-uuid", device, "btrfstune", err)
	}
	return nil
}

var (
	labelUUIDLine    = regexp.MustCompile(`Label:\s*(?:none|'([^']*)')\s+uuid:\s*(\S+)`)
	totalDevicesLine = regexp.MustCompile(`Total devices (\d+) FS bytes used (\d+)`)
	devidSizeLine    = regexp.MustCompile(`devid\s+\d+\s+size (\d+)`)
	minDevSizeLine   = regexp.MustCompile(`(\d+)\s+bytes`)
)

// GetInfo takes a mountpoint (MountRequiredInfo). A volume spanning more
// than one device is refused with Fail, per spec.md §4.2.6 and §8.2
// scenario 3.
func (b *Backend) GetInfo(ctx context.Context, mountpoint string) (fs.FsInfo, error) {
	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"btrfs", "filesystem", "show", "--raw", mountpoint}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", mountpoint, "btrfs filesystem show", err)
	}

	lm := labelUUIDLine.FindStringSubmatch(out)
	if lm == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", mountpoint, "could not parse label/uuid", nil)
	}
	label, uuidStr := lm[1], lm[2]

	dm := totalDevicesLine.FindStringSubmatch(out)
	if dm == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", mountpoint, "could not parse device count", nil)
	}
	deviceCount, _ := strconv.Atoi(dm[1])
	if deviceCount > 1 {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", mountpoint, fmt.Sprintf("spans multiple devices (%d)", deviceCount), nil)
	}

	sm := devidSizeLine.FindStringSubmatch(out)
	if sm == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", mountpoint, "could not parse device size", nil)
	}
	size, _ := strconv.ParseUint(sm[1], 10, 64)

	minOut, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"btrfs", "filesystem", "inspect-internal", "min-dev-size", mountpoint}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", mountpoint, "btrfs inspect-internal min-dev-size", err)
	}
	mm := minDevSizeLine.FindStringSubmatch(minOut)
	if mm == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", mountpoint, "could not parse min-dev-size", nil)
	}
	minSize, _ := strconv.ParseUint(mm[1], 10, 64)

	return fs.FsInfo{
		Label:     label,
		UUID:      uuidStr,
		Size:      size,
		FreeSpace: size - minSize,
	}, nil
}

// Resize runs against a mountpoint (resize is OnlineOnly for btrfs).
// newSize == 0 maps to btrfs's own "max" sentinel.
func (b *Backend) Resize(ctx context.Context, mountpoint string, newSize uint64, extra []runner.ExtraArg) error {
	target := "max"
	if newSize != 0 {
		target = fmt.Sprintf("%d", newSize)
	}
	args := append([]string{"btrfs", "filesystem", "resize", target, mountpoint}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "resize", mountpoint, "btrfs filesystem resize", err)
	}
	return nil
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
