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
	"os"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/mount"
)

// withMount implements spec.md §4.1.1's mount-on-demand: if device is
// already mounted somewhere, run fn against that mountpoint and leave it
// alone. Otherwise mount it under a fresh temp directory, run fn, then
// unmount and remove the directory. If fn fails and the unmount also
// fails, fn's error wins; if fn succeeds but unmount fails, UnmountFail
// surfaces instead.
func (d *Dispatcher) withMount(ctx context.Context, device string, rw bool, fn func(mountpoint string) error) error {
	mp, mounted, err := d.Mounts.FindTarget(ctx, device)
	if err != nil {
		return err
	}
	if mounted {
		return fn(mp)
	}

	tmpdir, err := os.MkdirTemp("", "blockdev")
	if err != nil {
		return errs.New(errs.Fail, "mount-on-demand", device, "mkdtemp", err)
	}

	options := "ro"
	if rw {
		options = "rw"
	}
	if mountErr := d.Mounts.Mount(ctx, mount.Spec{Device: device, Mountpoint: tmpdir, Options: options}); mountErr != nil {
		os.Remove(tmpdir)
		return errs.New(errs.Fail, "mount-on-demand", device, "mount", mountErr)
	}

	innerErr := fn(tmpdir)
	unmountErr := d.Mounts.Unmount(ctx, tmpdir, false, false)

	if innerErr != nil {
		os.Remove(tmpdir)
		return innerErr
	}
	if unmountErr != nil {
		return errs.New(errs.UnmountFail, "mount-on-demand", tmpdir, "", unmountErr)
	}
	os.Remove(tmpdir)
	return nil
}
