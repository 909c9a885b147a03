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

// Package nilfs2 implements fs.Backend for nilfs2, spec.md §4.2.10. It
// has no check/repair tool and its resize only runs online, against a
// mountpoint, via nilfs-resize.
package nilfs2

import (
	"context"
	"regexp"
	"strconv"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

type Backend struct {
	Runner runner.Runner
	Deps   *deps.Registry
	Prober probe.Prober
}

func New(r runner.Runner, dr *deps.Registry, p probe.Prober) *Backend {
	return &Backend{Runner: r, Deps: dr, Prober: p}
}

func (b *Backend) Family() fs.Family { return fs.Nilfs2 }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:     {"mkfs.nilfs2"},
	fs.ModeSetLabel: {"nilfs-tune"},
	fs.ModeSetUUID:  {"nilfs-tune"},
	fs.ModeResize:   {"nilfs-resize"},
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
		Label: func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-L", Val: l}} },
		UUID:  func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-U", Val: u}} },
		DryRun:    runner.ExtraArg{Opt: "-n"},
		NoDiscard: runner.ExtraArg{Opt: "-K"},
		Force: runner.ExtraArg{Opt: "-f"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkfs.nilfs2"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkfs.nilfs2", err)
	}
	return nil
}

func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	return fs.Clean, errs.New(errs.TechUnavail, "check", device, "nilfs2 has no check tool", nil)
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	return errs.New(errs.TechUnavail, "repair", device, "nilfs2 has no repair tool", nil)
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	if err := b.Runner.ExecAndReportError(ctx, []string{"nilfs-tune", "-L", label, device}, nil); err != nil {
		return errs.New(errs.Fail, "set-label", device, "nilfs-tune", err)
	}
	return nil
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	args := []string{"nilfs-tune"}
	if id == "" {
		args = append(args, "-U")
	} else {
		args = append(args, "-u", id)
	}
	args = append(args, device)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "set-uuid", device, "nilfs-tune", err)
	}
	return nil
}

var blockCountLine = regexp.MustCompile(`Number of blocks\s*:\s*(\d+)`)
var blockSizeLine = regexp.MustCompile(`Block size\s*:\s*(\d+)`)

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"nilfs-tune", "-l", device}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "nilfs-tune", err)
	}

	var blockSize, blockCount uint64
	if m := blockSizeLine.FindStringSubmatch(out); m != nil {
		blockSize, _ = strconv.ParseUint(m[1], 10, 64)
	}
	if m := blockCountLine.FindStringSubmatch(out); m != nil {
		blockCount, _ = strconv.ParseUint(m[1], 10, 64)
	}

	return fs.FsInfo{
		Label:      sig.Label,
		UUID:       sig.UUID,
		BlockSize:  blockSize,
		BlockCount: blockCount,
		Size:       blockSize * blockCount,
	}, nil
}

// Resize runs against a mountpoint; nilfs2 only supports online resize
// (spec.md §4.2.10's OnlineOnly marker in the capability matrix).
func (b *Backend) Resize(ctx context.Context, mountpoint string, newSize uint64, extra []runner.ExtraArg) error {
	args := []string{"nilfs-resize"}
	args = append(args, runner.ExtraArgs(extra)...)
	args = append(args, mountpoint)
	if newSize != 0 {
		args = append(args, strconv.FormatUint(newSize, 10))
	}
	if err := b.Runner.ExecWithInput(ctx, args, "y\n", nil); err != nil {
		return errs.New(errs.Fail, "resize", mountpoint, "nilfs-resize", err)
	}
	return nil
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
