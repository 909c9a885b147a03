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

// Package exfat implements fs.Backend for exfat, spec.md §4.2.7. exfat
// has no resize and no set-uuid; its capability row in fs.capabilityTable
// already reflects that.
package exfat

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

func (b *Backend) Family() fs.Family { return fs.Exfat }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs: {"mkfs.exfat"},
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

// Mkfs has no label/uuid/dry_run/no_discard/force options per spec.md
// §4.2.8's table; opts is accepted for interface uniformity but unused.
func (b *Backend) Mkfs(ctx context.Context, device string, opts fs.MkfsOptions, extra []runner.ExtraArg) error {
	args := append([]string{"mkfs.exfat"}, runner.ExtraArgs(extra)...)
	args = append(args, device)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkfs.exfat", err)
	}
	return nil
}

func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	return fs.Clean, errs.New(errs.NotSupported, "check", device, "exfat has no check tool", nil)
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	return errs.New(errs.NotSupported, "repair", device, "exfat has no repair tool", nil)
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	return errs.New(errs.NotSupported, "set-label", device, "exfat set-label not implemented by this adapter", nil)
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	return errs.New(errs.NotSupported, "set-uuid", device, "exfat has no uuid setter", nil)
}

var (
	sectorSizeLine  = regexp.MustCompile(`Block sector size\s*:\s*(\d+)`)
	sectorCountLine = regexp.MustCompile(`Number of the sectors\s*:\s*(\d+)`)
	clusterCountLn  = regexp.MustCompile(`Number of the clusters\s*:\s*(\d+)`)
)

// GetInfo parses tune.exfat's three reported counters, per spec.md §4.2.7.
func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"tune.exfat", device}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "tune.exfat", err)
	}

	sm := sectorSizeLine.FindStringSubmatch(out)
	cm := sectorCountLine.FindStringSubmatch(out)
	clm := clusterCountLn.FindStringSubmatch(out)
	if sm == nil || cm == nil || clm == nil {
		return fs.FsInfo{}, errs.New(errs.Parse, "get-info", device, "could not parse tune.exfat output", nil)
	}
	sectorSize, _ := strconv.ParseUint(sm[1], 10, 64)
	sectorCount, _ := strconv.ParseUint(cm[1], 10, 64)
	clusterCount, _ := strconv.ParseUint(clm[1], 10, 64)

	return fs.FsInfo{
		Label:        sig.Label,
		UUID:         sig.UUID,
		SectorSize:   sectorSize,
		SectorCount:  sectorCount,
		ClusterCount: clusterCount,
		Size:         sectorSize * sectorCount,
	}, nil
}

func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	return errs.New(errs.NotSupported, "resize", device, "exfat has no resize tool", nil)
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
