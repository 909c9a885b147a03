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

package main

import (
	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/fs/bcachefs"
	"github.com/blockdevkit/blockdev/fs/btrfs"
	"github.com/blockdevkit/blockdev/fs/exfat"
	"github.com/blockdevkit/blockdev/fs/ext"
	"github.com/blockdevkit/blockdev/fs/f2fs"
	"github.com/blockdevkit/blockdev/fs/nilfs2"
	"github.com/blockdevkit/blockdev/fs/ntfs"
	"github.com/blockdevkit/blockdev/fs/reiserfs"
	"github.com/blockdevkit/blockdev/fs/udf"
	"github.com/blockdevkit/blockdev/fs/vfat"
	"github.com/blockdevkit/blockdev/fs/xfs"
	"github.com/blockdevkit/blockdev/mount"
	"github.com/blockdevkit/blockdev/partedit"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/progress"
	"github.com/blockdevkit/blockdev/runner"
)

// newDispatcher wires every per-family specialist into a fs.Dispatcher
// against real, CLI/syscall-backed collaborators, the way a distro
// installer would embed this library (SPEC_FULL.md §4's "sample driver").
func newDispatcher() *fs.Dispatcher {
	r := runner.New()
	dr := deps.NewRegistry()
	p := probe.NewCLIProber(r)
	mt := mount.New()
	pe := partedit.NewCLIEditor(r)
	rep := progress.NewLoggingReporter()

	backends := map[fs.Family]fs.Backend{
		fs.Ext2:     ext.New(fs.Ext2, r, dr),
		fs.Ext3:     ext.New(fs.Ext3, r, dr),
		fs.Ext4:     ext.New(fs.Ext4, r, dr),
		fs.XFS:      xfs.New(r, dr, p, mt),
		fs.Vfat:     vfat.New(r, dr, p, pe),
		fs.NTFS:     ntfs.New(r, dr, p, mt),
		fs.F2FS:     f2fs.New(r, dr, p),
		fs.Btrfs:    btrfs.New(r, dr),
		fs.Exfat:    exfat.New(r, dr, p),
		fs.UDF:      udf.New(r, dr, p),
		fs.Nilfs2:   nilfs2.New(r, dr, p),
		fs.Reiserfs: reiserfs.New(r, dr, p),
		fs.Bcachefs: bcachefs.New(r, dr, p),
	}

	return fs.New(backends, p, mt, rep)
}
