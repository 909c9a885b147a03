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

package fs

import (
	"context"
	"fmt"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/mount"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/progress"
	"github.com/blockdevkit/blockdev/runner"
)

// Dispatcher is the generic filesystem dispatcher of spec.md §4.1: it
// consults the capability matrix and each Backend's IsTechAvail before
// forwarding to the per-family specialist, and owns the mount-on-demand
// and freeze/unfreeze logic that doesn't belong to any one family.
type Dispatcher struct {
	Backends map[Family]Backend
	Prober   probe.Prober
	Mounts   mount.Table
	Reporter progress.Reporter
}

// New builds a Dispatcher. reporter may be progress.Noop.
func New(backends map[Family]Backend, prober probe.Prober, mounts mount.Table, reporter progress.Reporter) *Dispatcher {
	if reporter == nil {
		reporter = progress.Noop
	}
	return &Dispatcher{Backends: backends, Prober: prober, Mounts: mounts, Reporter: reporter}
}

func (d *Dispatcher) backendFor(family Family) (Backend, error) {
	b, ok := d.Backends[family]
	if !ok {
		return nil, errs.New(errs.NotSupported, "dispatch", "", fmt.Sprintf("no backend registered for family %q", family), nil)
	}
	return b, nil
}

// resolveFamily implements the "if fstype is absent, probe" half of
// spec.md §4.1's dispatch rule.
func (d *Dispatcher) resolveFamily(ctx context.Context, device string, family Family) (Family, error) {
	if family != "" {
		return family, nil
	}
	typ, err := probe.GetFsType(ctx, d.Prober, device)
	if err != nil {
		return "", err
	}
	if typ == "" {
		return "", errs.New(errs.NoFilesystem, "dispatch", device, "", nil)
	}
	return Family(typ), nil
}

func (d *Dispatcher) checkAvail(ctx context.Context, family Family, mode Mode) (Backend, error) {
	if !supports(family, mode) {
		return nil, errs.New(errs.NotSupported, mode.String(), "", fmt.Sprintf("family %q does not support %s", family, mode), nil)
	}
	b, err := d.backendFor(family)
	if err != nil {
		return nil, err
	}
	ok, missing, err := b.IsTechAvail(ctx, mode)
	if err != nil {
		return nil, errs.New(errs.Fail, mode.String(), "", "tech-avail check", err)
	}
	if !ok {
		return nil, errs.New(errs.TechUnavail, mode.String(), "", fmt.Sprintf("missing tool %q", missing), nil)
	}
	return b, nil
}

func (d *Dispatcher) track(name string) func(err *error) {
	id := d.Reporter.Started(name)
	return func(err *error) {
		msg := "ok"
		if *err != nil {
			msg = (*err).Error()
		}
		d.Reporter.Finished(id, msg)
	}
}

// Mkfs is spec.md §4.1's mkfs(device, fstype, options, extra).
func (d *Dispatcher) Mkfs(ctx context.Context, device string, family Family, opts MkfsOptions, extra []runner.ExtraArg) (err error) {
	defer d.track(fmt.Sprintf("mkfs %s %s", family, device))(&err)
	b, err := d.checkAvail(ctx, family, ModeMkfs)
	if err != nil {
		return err
	}
	return b.Mkfs(ctx, device, opts, extra)
}

// Resize is spec.md §4.1's resize(device, new_size, fstype?).
func (d *Dispatcher) Resize(ctx context.Context, device string, family Family, newSize uint64, extra []runner.ExtraArg) (err error) {
	defer d.track(fmt.Sprintf("resize %s", device))(&err)
	family, err = d.resolveFamily(ctx, device, family)
	if err != nil {
		return err
	}
	b, err := d.checkAvail(ctx, family, ModeResize)
	if err != nil {
		return err
	}
	if needsMount(family, ModeResize) {
		return d.withMount(ctx, device, true, func(mp string) error {
			return b.Resize(ctx, mp, newSize, extra)
		})
	}
	return b.Resize(ctx, device, newSize, extra)
}

// Check is spec.md §4.1's check(device, fstype?).
func (d *Dispatcher) Check(ctx context.Context, device string, family Family, extra []runner.ExtraArg) (res CheckResult, err error) {
	defer d.track(fmt.Sprintf("check %s", device))(&err)
	family, err = d.resolveFamily(ctx, device, family)
	if err != nil {
		return Clean, err
	}
	b, err := d.checkAvail(ctx, family, ModeCheck)
	if err != nil {
		return Clean, err
	}
	return b.Check(ctx, device, extra)
}

// Repair is spec.md §4.1's repair(device, fstype?).
func (d *Dispatcher) Repair(ctx context.Context, device string, family Family, extra []runner.ExtraArg) (err error) {
	defer d.track(fmt.Sprintf("repair %s", device))(&err)
	family, err = d.resolveFamily(ctx, device, family)
	if err != nil {
		return err
	}
	b, err := d.checkAvail(ctx, family, ModeRepair)
	if err != nil {
		return err
	}
	return b.Repair(ctx, device, extra)
}

// SetLabel is spec.md §4.1's set_label(device, label, fstype?).
func (d *Dispatcher) SetLabel(ctx context.Context, device, label string, family Family) (err error) {
	defer d.track(fmt.Sprintf("set-label %s", device))(&err)
	family, err = d.resolveFamily(ctx, device, family)
	if err != nil {
		return err
	}
	if !CheckLabel(family, label) {
		return errs.New(errs.LabelInvalid, "set-label", device, fmt.Sprintf("label %q invalid for %s", label, family), nil)
	}
	b, err := d.checkAvail(ctx, family, ModeSetLabel)
	if err != nil {
		return err
	}
	if needsMount(family, ModeSetLabel) {
		return d.withMount(ctx, device, true, func(mp string) error {
			return b.SetLabel(ctx, mp, label)
		})
	}
	return b.SetLabel(ctx, device, label)
}

// SetUUID is spec.md §4.1's set_uuid(device, uuid?, fstype?); uuid == ""
// means "generate a new random one".
func (d *Dispatcher) SetUUID(ctx context.Context, device, uuid string, family Family) (err error) {
	defer d.track(fmt.Sprintf("set-uuid %s", device))(&err)
	family, err = d.resolveFamily(ctx, device, family)
	if err != nil {
		return err
	}
	if uuid != "" && !CheckUUID(family, uuid) {
		return errs.New(errs.UuidInvalid, "set-uuid", device, fmt.Sprintf("uuid %q invalid for %s", uuid, family), nil)
	}
	b, err := d.checkAvail(ctx, family, ModeSetUUID)
	if err != nil {
		return err
	}
	return b.SetUUID(ctx, device, uuid)
}

func (d *Dispatcher) getInfo(ctx context.Context, device string, family Family, mode Mode) (FsInfo, Family, error) {
	family, err := d.resolveFamily(ctx, device, family)
	if err != nil {
		return FsInfo{}, family, err
	}
	b, err := d.checkAvail(ctx, family, mode)
	if err != nil {
		return FsInfo{}, family, err
	}
	var info FsInfo
	if needsMount(family, ModeGetInfo) {
		err = d.withMount(ctx, device, false, func(mp string) error {
			var innerErr error
			info, innerErr = b.GetInfo(ctx, mp)
			return innerErr
		})
	} else {
		info, err = b.GetInfo(ctx, device)
	}
	if err != nil {
		return FsInfo{}, family, err
	}
	info.Label = normalizeSentinel(info.Label)
	info.UUID = normalizeSentinel(info.UUID)
	return info, family, nil
}

// GetSize is spec.md §4.1's get_size(device, fstype?).
func (d *Dispatcher) GetSize(ctx context.Context, device string, family Family) (uint64, error) {
	info, _, err := d.getInfo(ctx, device, family, ModeGetSize)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// GetFreeSpace is spec.md §4.1's get_free_space(device, fstype?), honoring
// the can_get_free_space special case via the capability matrix.
func (d *Dispatcher) GetFreeSpace(ctx context.Context, device string, family Family) (uint64, error) {
	info, _, err := d.getInfo(ctx, device, family, ModeGetFreeSpace)
	if err != nil {
		return 0, err
	}
	return info.FreeSpace, nil
}

// GetInfo is spec.md §4.1's get_info(device, fstype?) proper.
func (d *Dispatcher) GetInfo(ctx context.Context, device string, family Family) (FsInfo, error) {
	info, _, err := d.getInfo(ctx, device, family, ModeGetInfo)
	return info, err
}

// GetMinSize is spec.md §4.1's get_min_size(device, fstype?).
func (d *Dispatcher) GetMinSize(ctx context.Context, device string, family Family) (size uint64, err error) {
	defer d.track(fmt.Sprintf("get-min-size %s", device))(&err)
	family, err = d.resolveFamily(ctx, device, family)
	if err != nil {
		return 0, err
	}
	b, err := d.checkAvail(ctx, family, ModeGetMinSize)
	if err != nil {
		return 0, err
	}
	size, supported, err := b.GetMinSize(ctx, device)
	if err != nil {
		return 0, err
	}
	if !supported {
		return 0, errs.New(errs.NotSupported, "get-min-size", device, "", nil)
	}
	return size, nil
}

// GetFsType is spec.md §4.1's get_fstype(device); it never consults the
// capability matrix since it has no family to look up yet.
func (d *Dispatcher) GetFsType(ctx context.Context, device string) (string, error) {
	return probe.GetFsType(ctx, d.Prober, device)
}

// Wipe is spec.md §4.1's wipe(device, all, force).
func (d *Dispatcher) Wipe(ctx context.Context, device string, all, force bool) error {
	return probe.Wipe(ctx, d.Prober, device, all, force)
}

// Clean is spec.md §4.1's clean(device, force).
func (d *Dispatcher) Clean(ctx context.Context, device string, force bool) error {
	return probe.Clean(ctx, d.Prober, device, force)
}

// Freeze is spec.md §4.1's freeze(mountpoint).
func (d *Dispatcher) Freeze(ctx context.Context, mountpoint string) error {
	return mount.Freeze(ctx, d.Mounts, mountpoint)
}

// Unfreeze is spec.md §4.1's unfreeze(mountpoint).
func (d *Dispatcher) Unfreeze(ctx context.Context, mountpoint string) error {
	return mount.Unfreeze(ctx, d.Mounts, mountpoint)
}

// can reports the capability-probe pair spec.md §4.1 wants from every
// can_* function: a boolean plus the name of any missing tool.
func (d *Dispatcher) can(ctx context.Context, family Family, mode Mode) (bool, string) {
	if !supports(family, mode) {
		return false, ""
	}
	b, err := d.backendFor(family)
	if err != nil {
		return false, ""
	}
	ok, missing, err := b.IsTechAvail(ctx, mode)
	if err != nil {
		return false, ""
	}
	return ok, missing
}

func (d *Dispatcher) CanMkfs(ctx context.Context, family Family) (bool, string) { return d.can(ctx, family, ModeMkfs) }
func (d *Dispatcher) CanResize(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeResize)
}
func (d *Dispatcher) CanCheck(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeCheck)
}
func (d *Dispatcher) CanRepair(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeRepair)
}
func (d *Dispatcher) CanSetLabel(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeSetLabel)
}
func (d *Dispatcher) CanSetUUID(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeSetUUID)
}
func (d *Dispatcher) CanGetSize(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeGetSize)
}

// CanGetFreeSpace honors the can_get_free_space special case of spec.md
// §4.1: xfs/f2fs/exfat/udf report NotSupported even if tooling exists,
// which the capability matrix already encodes as GetFreeSpace=false.
func (d *Dispatcher) CanGetFreeSpace(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeGetFreeSpace)
}
func (d *Dispatcher) CanGetInfo(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeGetInfo)
}
func (d *Dispatcher) CanGetMinSize(ctx context.Context, family Family) (bool, string) {
	return d.can(ctx, family, ModeGetMinSize)
}
