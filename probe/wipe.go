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

package probe

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/blockdevkit/blockdev/common"
	"github.com/blockdevkit/blockdev/errs"
)

// opener owns the exclusive fd used by Wipe/Clean, guaranteeing the
// fsync-before-close release-on-every-path invariant of spec.md §3.3. It
// is a thin wrapper so tests can substitute a fake without real device
// nodes.
type opener interface {
	open(device string, writable, force bool) (fd int, err error)
	close(fd int) error
}

type unixOpener struct{}

func (unixOpener) open(device string, writable, force bool) (int, error) {
	flags := unix.O_CLOEXEC
	if writable {
		flags |= unix.O_RDWR
		if !force {
			flags |= unix.O_EXCL
		}
	} else {
		flags |= unix.O_RDONLY
	}
	fd, err := unix.Open(device, flags, 0)
	if err != nil {
		return -1, err
	}
	return fd, nil
}

func (unixOpener) close(fd int) error {
	syncErr := unix.Fsync(fd)
	closeErr := unix.Close(fd)
	return common.JoinCleanupErrors(syncErr, closeErr)
}

var defaultOpener opener = unixOpener{}

// Wipe implements spec.md §4.3's wipe(device, all, force): open the device
// exclusively (unless force), fail with NoFilesystem if a safe probe finds
// nothing, otherwise wipe the first signature and, if all, keep probing
// and wiping until none remain. The fd is always fsync'd and closed.
func Wipe(ctx context.Context, p Prober, device string, all, force bool) (err error) {
	fd, openErr := defaultOpener.open(device, true, force)
	if openErr != nil {
		return errs.New(errs.Fail, "wipe", device, "open", openErr)
	}
	defer func() {
		if closeErr := defaultOpener.close(fd); closeErr != nil && err == nil {
			err = errs.New(errs.Fail, "wipe", device, "close", closeErr)
		}
	}()

	sig, found, probeErr := safeProbeWithRetry(ctx, p, device)
	if probeErr != nil {
		return errs.New(errs.Fail, "wipe", device, "probe", probeErr)
	}
	if !found {
		return errs.New(errs.NoFilesystem, "wipe", device, "", nil)
	}

	if wipeErr := p.WipeSignature(ctx, device, sig.Offset, false); wipeErr != nil {
		return errs.New(errs.Fail, "wipe", device, "", wipeErr)
	}
	if !all {
		return nil
	}

	for {
		sig, found, probeErr = safeProbeWithRetry(ctx, p, device)
		if probeErr != nil {
			return errs.New(errs.Fail, "wipe", device, "probe", probeErr)
		}
		if !found {
			return nil
		}
		if wipeErr := p.WipeSignature(ctx, device, sig.Offset, false); wipeErr != nil {
			return errs.New(errs.Fail, "wipe", device, "", wipeErr)
		}
	}
}

// Clean is Wipe(all=true) with NoFilesystem absorbed as success, per
// spec.md §7's "clean absorbs NoFilesystem".
func Clean(ctx context.Context, p Prober, device string, force bool) error {
	err := Wipe(ctx, p, device, true, force)
	if err == nil {
		return nil
	}
	if kind, ok := errs.Of(err); ok && kind == errs.NoFilesystem {
		return nil
	}
	return err
}

// GetFsType implements spec.md §4.3's get_fstype: a read-only safe probe;
// "no result" is not an error, and a non-filesystem usage is errs.Invalid.
func GetFsType(ctx context.Context, p Prober, device string) (string, error) {
	sig, found, err := safeProbeWithRetry(ctx, p, device)
	if err != nil {
		return "", errs.New(errs.Fail, "get-fstype", device, "probe", err)
	}
	if !found {
		return "", nil
	}
	if sig.Usage != "filesystem" {
		return "", errs.New(errs.Invalid, "get-fstype", device, "usage is "+sig.Usage, nil)
	}
	return sig.Type, nil
}

// WipeFs is the family-level wipe of spec.md §4.3: it requires the probed
// signature to be a filesystem and, if fsTypeFilter is non-empty, to match
// it, before delegating to Wipe.
func WipeFs(ctx context.Context, p Prober, device, fsTypeFilter string, wipeAll bool) error {
	sig, found, err := safeProbeWithRetry(ctx, p, device)
	if err != nil {
		return errs.New(errs.Fail, "wipe-fs", device, "probe", err)
	}
	if !found || sig.Usage != "filesystem" {
		return errs.New(errs.Invalid, "wipe-fs", device, "no filesystem signature", nil)
	}
	if fsTypeFilter != "" && sig.Type != fsTypeFilter {
		return errs.New(errs.Invalid, "wipe-fs", device, "type is "+sig.Type+", expected "+fsTypeFilter, nil)
	}
	return Wipe(ctx, p, device, wipeAll, false)
}
