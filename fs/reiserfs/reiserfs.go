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

// Package reiserfs implements fs.Backend for reiserfs, spec.md §4.2.11.
// resize_reiserfs refuses to run against an already-matching size, so
// Resize checks GetInfo first and short-circuits to a no-op.
package reiserfs

import (
	"context"
	"fmt"
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

func (b *Backend) Family() fs.Family { return fs.Reiserfs }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:     {"mkreiserfs"},
	fs.ModeCheck:    {"reiserfsck"},
	fs.ModeRepair:   {"reiserfsck"},
	fs.ModeSetLabel: {"reiserfstune"},
	fs.ModeSetUUID:  {"reiserfstune"},
	fs.ModeResize:   {"resize_reiserfs"},
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
		Label: func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-l", Val: l}} },
		UUID:  func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-u", Val: u}} },
		Force: runner.ExtraArg{Opt: "-f"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkreiserfs", "-q"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkreiserfs", err)
	}
	return nil
}

// Check runs reiserfsck --check; exit codes 0 clean, 1 fixable errors
// found (treated as Dirty), anything higher is a hard failure.
func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"reiserfsck", "--check", "-y", device}, runner.ExtraArgs(extra)...)
	status, err := b.Runner.ExecAndReportStatusError(ctx, args, nil)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "reiserfsck", err)
	}
	switch status {
	case 0:
		return fs.Clean, nil
	case 1:
		return fs.Dirty, nil
	default:
		return fs.Clean, errs.New(errs.Fail, "check", device, fmt.Sprintf("reiserfsck exited %d", status), nil)
	}
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"reiserfsck", "--fix-fixable", "-y", device}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "repair", device, "reiserfsck", err)
	}
	return nil
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	if err := b.Runner.ExecAndReportError(ctx, []string{"reiserfstune", "-l", label, device}, nil); err != nil {
		return errs.New(errs.Fail, "set-label", device, "reiserfstune", err)
	}
	return nil
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	args := []string{"reiserfstune"}
	if id == "" {
		args = append(args, "-u")
	} else {
		args = append(args, "-U", id)
	}
	args = append(args, device)
	if err := b.Runner.ExecWithInput(ctx, args, "y\n", nil); err != nil {
		return errs.New(errs.Fail, "set-uuid", device, "reiserfstune", err)
	}
	return nil
}

var (
	blockSizeLine  = regexp.MustCompile(`Blocksize:\s*(\d+)`)
	blockCountLine = regexp.MustCompile(`Count of blocks on the device:\s*(\d+)`)
	freeBlocksLine = regexp.MustCompile(`Free blocks.*:\s*(\d+)`)
)

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"debugreiserfs", device}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "debugreiserfs", err)
	}

	bm := blockSizeLine.FindStringSubmatch(out)
	cm := blockCountLine.FindStringSubmatch(out)
	if bm == nil || cm == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", device, "could not parse debugreiserfs output", nil)
	}
	blockSize, _ := strconv.ParseUint(bm[1], 10, 64)
	blockCount, _ := strconv.ParseUint(cm[1], 10, 64)
	var freeBlocks uint64
	if fm := freeBlocksLine.FindStringSubmatch(out); fm != nil {
		freeBlocks, _ = strconv.ParseUint(fm[1], 10, 64)
	}

	return fs.FsInfo{
		Label:      sig.Label,
		UUID:       sig.UUID,
		BlockSize:  blockSize,
		BlockCount: blockCount,
		FreeBlocks: freeBlocks,
		Size:       blockSize * blockCount,
		FreeSpace:  blockSize * freeBlocks,
	}, nil
}

// Resize is a no-op when newSize already equals the current size, since
// resize_reiserfs refuses to run against an unchanged size (spec.md
// §4.2.11). Otherwise it feeds the "y\n" confirmation resize_reiserfs
// prompts for in non-interactive use.
func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	if newSize != 0 {
		info, err := b.GetInfo(ctx, device)
		if err != nil {
			return err
		}
		if info.Size == newSize {
			return nil
		}
	}

	args := []string{"resize_reiserfs"}
	if newSize == 0 {
		args = append(args, "-f")
	} else {
		args = append(args, "-s", strconv.FormatUint(newSize, 10))
	}
	args = append(args, runner.ExtraArgs(extra)...)
	args = append(args, device)
	if err := b.Runner.ExecWithInput(ctx, args, "y\n", nil); err != nil {
		return errs.New(errs.Fail, "resize", device, "resize_reiserfs", err)
	}
	return nil
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
