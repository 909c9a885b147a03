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

// Package f2fs implements fs.Backend for f2fs, spec.md §4.2.5.
package f2fs

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

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

func (b *Backend) Family() fs.Family { return fs.F2FS }

var fsckVersionRe = regexp.MustCompile(`(\d+\.\d+\.\d+)`)

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:   {"mkfs.f2fs"},
	fs.ModeRepair: {"fsck.f2fs"},
	fs.ModeResize: {"resize.f2fs"},
}

// IsTechAvail special-cases ModeCheck: spec.md §4.2.5 requires fsck.f2fs
// >= 1.11.0, since the tool lacks a --version flag before that and "version
// unknown" is treated as "too old" (deps.Registry already encodes that).
func (b *Backend) IsTechAvail(ctx context.Context, mode fs.Mode) (bool, string, error) {
	if mode == fs.ModeCheck {
		st := b.Deps.IsAvailable(ctx, deps.Tool{
			Name: "fsck.f2fs", MinVersion: "1.11.0",
			VersionArgs: []string{"--version"}, VersionRegexp: fsckVersionRe,
		})
		if !st.Available {
			return false, "fsck.f2fs", nil
		}
		return true, "", nil
	}
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
		Label:     func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-l", Val: l}} },
		NoDiscard: runner.ExtraArg{Opt: "-t", Val: "nodiscard"},
		Force:     runner.ExtraArg{Opt: "-f"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mkfs.f2fs"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkfs.f2fs", err)
	}
	return nil
}

// Check runs fsck.f2fs --dry-run; exit 255 means dirty but is not an error
// (spec.md §4.2.5).
func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"fsck.f2fs", "--dry-run", device}, runner.ExtraArgs(extra)...)
	status, err := b.Runner.ExecAndReportStatusError(ctx, args, nil)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "fsck.f2fs", err)
	}
	if status == 0 {
		return fs.Clean, nil
	}
	if status == 255 {
		return fs.Dirty, nil
	}
	return fs.Clean, errs.New(errs.Fail, "check", device, fmt.Sprintf("fsck.f2fs exited %d", status), nil)
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"fsck.f2fs", "-a", device}, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "repair", device, "fsck.f2fs", err)
	}
	return nil
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	return errs.New(errs.NotSupported, "set-label", device, "f2fs has no label setter", nil)
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	return errs.New(errs.NotSupported, "set-uuid", device, "f2fs has no uuid setter", nil)
}

// dump.f2fs's lines are located by their "Info:" prefix, not by position.
var (
	sectorSizeLine   = regexp.MustCompile(`Info:\s*sector size\s*=\s*(\d+)`)
	totalSectorsLine = regexp.MustCompile(`Info:\s*total FS sectors\s*=\s*(\d+)`)
	featuresLine     = regexp.MustCompile(`Info:\s*superblock features\s*=\s*(?:0x)?([0-9a-fA-F]+)`)
)

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"dump.f2fs", device}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "dump.f2fs", err)
	}

	var sectorSize, totalSectors, features uint64
	for _, line := range strings.Split(out, "\n") {
		if m := sectorSizeLine.FindStringSubmatch(line); m != nil {
			sectorSize, _ = strconv.ParseUint(m[1], 10, 64)
			continue
		}
		if m := totalSectorsLine.FindStringSubmatch(line); m != nil {
			totalSectors, _ = strconv.ParseUint(m[1], 10, 64)
			continue
		}
		if m := featuresLine.FindStringSubmatch(line); m != nil {
			features, _ = strconv.ParseUint(m[1], 16, 64)
			continue
		}
	}
	if totalSectors == 0 {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", device, "could not parse dump.f2fs output", nil)
	}
	// A missing sector size line falls back to 512 bytes.
	if sectorSize == 0 {
		sectorSize = 512
	}

	return fs.FsInfo{
		Label:       sig.Label,
		UUID:        sig.UUID,
		SectorSize:  sectorSize,
		SectorCount: totalSectors,
		Size:        sectorSize * totalSectors,
		Features:    features,
	}, nil
}

func hasExtraFlag(extra []runner.ExtraArg, opt string) bool {
	for _, e := range extra {
		if e.Opt == opt {
			return true
		}
	}
	return false
}

// Resize implements spec.md §4.2.5: shrinking requires both the "-s" safe
// flag and resize.f2fs >= 1.12.0. A shrink without "-s" is rejected as
// Invalid; an older resize.f2fs is reported as TechUnavail.
func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	args := []string{"resize.f2fs"}
	if newSize != 0 {
		info, err := b.GetInfo(ctx, device)
		if err != nil {
			return err
		}
		if newSize < info.Size {
			if !hasExtraFlag(extra, "-s") {
				return errs.New(errs.Invalid, "resize", device, "shrink requires the safe flag", nil)
			}
			st := b.Deps.IsAvailable(ctx, deps.Tool{
				Name: "resize.f2fs", MinVersion: "1.12.0",
				VersionArgs: []string{"--version"}, VersionRegexp: fsckVersionRe,
			})
			if !st.Available {
				return errs.New(errs.TechUnavail, "resize", device, "resize.f2fs >= 1.12.0 required to shrink", nil)
			}
		}
		args = append(args, "-t", fmt.Sprintf("%d", newSize/512))
	}
	args = append(args, runner.ExtraArgs(extra)...)
	args = append(args, device)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "resize", device, "resize.f2fs", err)
	}
	return nil
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
