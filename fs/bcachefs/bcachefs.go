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

// Package bcachefs implements fs.Backend for bcachefs, spec.md §4.2.12.
// Only mkfs and get_info are meaningfully supported by this adapter;
// every other operation reports NotSupported, matching the capability row
// bcachefsCaps carries in the dispatcher's matrix (Mkfs, GetInfo and
// GetSize only).
package bcachefs

import (
	"context"
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

func (b *Backend) Family() fs.Family { return fs.Bcachefs }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs: {"bcachefs"},
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
		Label: func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "--label", Val: l}} },
		UUID:  func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "--uuid", Val: u}} },
		NoDiscard: runner.ExtraArg{Opt: "-K"},
		Force: runner.ExtraArg{Opt: "-f"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"bcachefs", "format"}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "bcachefs format", err)
	}
	return nil
}

func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	return fs.Clean, errs.New(errs.NotSupported, "check", device, "bcachefs check is not implemented by this adapter", nil)
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	return errs.New(errs.NotSupported, "repair", device, "bcachefs repair is not implemented by this adapter", nil)
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	return errs.New(errs.NotSupported, "set-label", device, "bcachefs label is set at mkfs time only", nil)
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	return errs.New(errs.NotSupported, "set-uuid", device, "bcachefs uuid is set at mkfs time only", nil)
}

// deviceSize64 queries the raw device size via BLKGETSIZE64, the same
// ioctl-by-raw-syscall pattern mount/freeze.go uses for FIFREEZE/FITHAW.
func deviceSize64(device string) (uint64, error) {
	fd, err := unix.Open(device, unix.O_RDONLY, 0)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)

	var size uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return 0, errno
	}
	return size, nil
}

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	sig, _, err := b.Prober.SafeProbe(ctx, device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "probe", err)
	}

	size, err := deviceSize64(device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "BLKGETSIZE64", err)
	}

	return fs.FsInfo{
		Label: sig.Label,
		UUID:  sig.UUID,
		Size:  size,
	}, nil
}

func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	return errs.New(errs.NotSupported, "resize", device, "bcachefs resize is not implemented by this adapter", nil)
}

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return 0, false, nil
}
