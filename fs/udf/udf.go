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

// Package udf implements fs.Backend for udf, spec.md §4.2.9. udf has no
// check/repair tool; it carries two label fields (LVID/VID) instead of
// one. Mkfs writes the label whole as the LVID and truncated as the VID.
package udf

import (
	"context"
	"fmt"
	"regexp"
	"unsafe"

	"golang.org/x/sys/unix"

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

func (b *Backend) Family() fs.Family { return fs.UDF }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:     {"mkudffs"},
	fs.ModeSetLabel: {"mkudffs"},
	fs.ModeSetUUID:  {"mkudffs"},
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

// blockSectorSize queries the device's logical sector size via BLKSSZGET,
// used as mkudffs's --blocksize when opts doesn't pin one (spec.md §4.2.9).
func blockSectorSize(device string) (int, error) {
	fd, err := unix.Open(device, unix.O_RDONLY, 0)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)

	var size int32
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.BLKSSZGET, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return 0, errno
	}
	return int(size), nil
}

// truncateUnits truncates s to n UTF-8 code points; Mkfs uses it for
// --vid.
func truncateUnits(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Mkfs always passes --utf8, --media-type=hd and --udfrev=0x201 per
// spec.md §4.2.9; --blocksize defaults to the device's reported sector
// size when unset.
func (b *Backend) Mkfs(ctx context.Context, device string, opts fs.MkfsOptions, extra []runner.ExtraArg) error {
	args := []string{"mkudffs", "--utf8", "--media-type=hd", "--udfrev=0x201"}

	bs, err := blockSectorSize(device)
	if err == nil && bs > 0 {
		args = append(args, fmt.Sprintf("--blocksize=%d", bs))
	}
	// opts.Label is written whole as the Logical Volume Identifier and,
	// truncated, as the Volume Identifier: 30 units, or 15 when any
	// character is above U+00FF.
	if opts.Label != "" {
		vidUnits := 30
		for _, r := range opts.Label {
			if r > 0xFF {
				vidUnits = 15
				break
			}
		}
		args = append(args, "--lvid="+opts.Label, "--vid="+truncateUnits(opts.Label, vidUnits))
	}
	if opts.UUID != "" {
		args = append(args, "-u", opts.UUID)
	}
	args = append(args, runner.ExtraArgs(extra)...)
	args = append(args, device)

	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mkudffs", err)
	}
	return nil
}

func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	return fs.Clean, errs.New(errs.TechUnavail, "check", device, "udf has no check tool", nil)
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	return errs.New(errs.TechUnavail, "repair", device, "udf has no repair tool", nil)
}

// SetLabel is not supported: udf labels (LVID and VID) are written only
// by Mkfs.
func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	return errs.New(errs.NotSupported, "set-label", device, "udf label is set at mkfs time only", nil)
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	return errs.New(errs.NotSupported, "set-uuid", device, "udf uuid is set at mkfs time only", nil)
}

var (
	lvidLine = regexp.MustCompile(`Logical Volume Identifier\s*:\s*(.*)`)
	vidLine  = regexp.MustCompile(`Volume Identifier\s*:\s*(.*)`)
)

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"udfinfo", device}, nil)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "udfinfo", err)
	}

	info := fs.FsInfo{Label: sig.Label, UUID: sig.UUID}
	if m := lvidLine.FindStringSubmatch(out); m != nil {
		info.LVID = m[1]
	}
	if m := vidLine.FindStringSubmatch(out); m != nil {
		info.VID = m[1]
	}
	return info, nil
}

func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	return errs.New(errs.NotSupported, "resize", device, "udf has no resize tool", nil)
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
