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

package mount

import (
	"context"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/blockdevkit/blockdev/errs"
)

// ioctl request numbers for FIFREEZE/FITHAW (linux/fs.h); the kernel
// defines them as _IOWR('X', 119/120, int) over an int argument that is
// ignored on input.
const (
	fifreeze = 0xC0045877
	fithaw   = 0xC0045878
)

// Freeze quiesces the filesystem mounted at mountpoint (spec.md §4.1.2).
// mountpoint must already be a known mountpoint in t, else errs.NotMounted.
func Freeze(ctx context.Context, t Table, mountpoint string) error {
	return freezeThaw(ctx, t, mountpoint, fifreeze, "freeze")
}

// Unfreeze thaws a filesystem previously frozen with Freeze.
func Unfreeze(ctx context.Context, t Table, mountpoint string) error {
	return freezeThaw(ctx, t, mountpoint, fithaw, "unfreeze")
}

func freezeThaw(ctx context.Context, t Table, mountpoint string, req uintptr, op string) error {
	mounted, err := IsMounted(ctx, t, mountpoint)
	if err != nil {
		return err
	}
	if !mounted {
		return errs.New(errs.NotMounted, op, mountpoint, "", nil)
	}

	fd, err := unix.Open(mountpoint, unix.O_RDONLY, 0)
	if err != nil {
		return errs.New(errs.Fail, op, mountpoint, "open", err)
	}
	defer unix.Close(fd)

	var arg int32
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&arg))); errno != 0 {
		return errs.New(errs.Fail, op, mountpoint, "ioctl", errno)
	}
	return nil
}
