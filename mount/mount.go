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

// Package mount is the mount-table collaborator of spec.md §6.4. The real
// libmount is a context-object API; we mirror its shape (set_source,
// set_target, set_fstype, set_options, mount, umount, structured error
// extraction) but drive the kernel directly through golang.org/x/sys/unix
// rather than linking libmount, and resolve the live table by parsing
// /proc/self/mountinfo the way table_parse_mtab does.
package mount

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/blockdevkit/blockdev/errs"
)

// Spec mirrors the libmount context object's set_source/set_target/
// set_fstype/set_options calls (spec.md §3.1 MountSpec).
type Spec struct {
	Device     string
	Mountpoint string
	FSType     string
	Options    string
}

// Entry is one parsed /proc/self/mountinfo row.
type Entry struct {
	Source     string
	Target     string
	FSType     string
	Options    string
}

// Table is the mount-table contract of spec.md §6.4.
type Table interface {
	// Mount performs the mount(2) call described by spec, wrapping any
	// failure as errs.Fail with the syscall errno interpolated (spec.md
	// §6.4 "structured error extraction").
	Mount(ctx context.Context, spec Spec) error
	// Unmount unmounts target. lazy/force map to MNT_DETACH/MNT_FORCE.
	Unmount(ctx context.Context, target string, lazy, force bool) error
	// Parse returns every currently mounted filesystem (table_parse_mtab).
	Parse(ctx context.Context) ([]Entry, error)
	// FindSource returns the device mounted at target, if any
	// (table_find_target / fs_get_target in reverse).
	FindSource(ctx context.Context, target string) (string, bool, error)
	// FindTarget returns the mountpoint a device is mounted at, if any
	// (table_find_source).
	FindTarget(ctx context.Context, device string) (string, bool, error)
}

// unixTable is the shipped Table implementation.
type unixTable struct {
	parseMountinfo func() ([]Entry, error)
}

// New returns the default Table, backed by /proc/self/mountinfo and the
// mount(2)/umount(2) syscalls.
func New() Table {
	return &unixTable{parseMountinfo: parseProcMountinfo}
}

func (t *unixTable) Mount(ctx context.Context, spec Spec) error {
	var flags uintptr
	data := spec.Options
	if err := unix.Mount(spec.Device, spec.Mountpoint, spec.FSType, flags, data); err != nil {
		return errs.New(errs.Fail, "mount", spec.Device, fmt.Sprintf("mounting at %s", spec.Mountpoint), err)
	}
	return nil
}

func (t *unixTable) Unmount(ctx context.Context, target string, lazy, force bool) error {
	var flags int
	if lazy {
		flags |= unix.MNT_DETACH
	}
	if force {
		flags |= unix.MNT_FORCE
	}
	if err := unix.Unmount(target, flags); err != nil {
		return errs.New(errs.UnmountFail, "umount", target, "", err)
	}
	return nil
}

func (t *unixTable) Parse(ctx context.Context) ([]Entry, error) {
	entries, err := t.parseMountinfo()
	if err != nil {
		return nil, errs.New(errs.Fail, "parse-mountinfo", "/proc/self/mountinfo", "", err)
	}
	return entries, nil
}

func (t *unixTable) FindSource(ctx context.Context, target string) (string, bool, error) {
	entries, err := t.Parse(ctx)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Target == target {
			return e.Source, true, nil
		}
	}
	return "", false, nil
}

func (t *unixTable) FindTarget(ctx context.Context, device string) (string, bool, error) {
	entries, err := t.Parse(ctx)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Source == device {
			return e.Target, true, nil
		}
	}
	return "", false, nil
}

// IsMounted reports whether target is currently a mountpoint, per spec.md
// §4.1.2's "a mountpoint must be verified via the mount table".
func IsMounted(ctx context.Context, t Table, target string) (bool, error) {
	_, ok, err := t.FindSource(ctx, target)
	return ok, err
}
