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

// Package fs is the generic filesystem dispatcher of spec.md §4.1: one
// entry point per operation, fanned out to a per-family Backend (§4.2)
// after a capability-matrix check (§3.2).
package fs

// Family names one supported on-disk filesystem type, per spec.md §3.1's
// FsFamily tag enumeration.
type Family string

const (
	Ext2      Family = "ext2"
	Ext3      Family = "ext3"
	Ext4      Family = "ext4"
	XFS       Family = "xfs"
	Vfat      Family = "vfat"
	NTFS      Family = "ntfs"
	F2FS      Family = "f2fs"
	Exfat     Family = "exfat"
	Nilfs2    Family = "nilfs2"
	Btrfs     Family = "btrfs"
	UDF       Family = "udf"
	Reiserfs  Family = "reiserfs"
	Bcachefs  Family = "bcachefs"
)

// IsExt reports whether f is one of the three ext variants, which share a
// single Backend (mke2fs/e2fsck/tune2fs/resize2fs are version-agnostic
// across ext2/3/4 and take the variant as a -t argument).
func (f Family) IsExt() bool {
	return f == Ext2 || f == Ext3 || f == Ext4
}

// Mode is one capability the dispatcher can probe or perform, per spec.md
// §4.1's can_mkfs/resize/check/.../get_min_size list.
type Mode int

const (
	ModeMkfs Mode = iota
	ModeResize
	ModeCheck
	ModeRepair
	ModeSetLabel
	ModeSetUUID
	ModeGetSize
	ModeGetFreeSpace
	ModeGetInfo
	ModeGetMinSize
)

func (m Mode) String() string {
	switch m {
	case ModeMkfs:
		return "mkfs"
	case ModeResize:
		return "resize"
	case ModeCheck:
		return "check"
	case ModeRepair:
		return "repair"
	case ModeSetLabel:
		return "set_label"
	case ModeSetUUID:
		return "set_uuid"
	case ModeGetSize:
		return "get_size"
	case ModeGetFreeSpace:
		return "get_free_space"
	case ModeGetInfo:
		return "get_info"
	case ModeGetMinSize:
		return "get_min_size"
	default:
		return "unknown"
	}
}
