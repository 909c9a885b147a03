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

// ResizeCapability records which directions a family's resize operation
// supports, and whether each direction needs the device mounted first
// (spec.md §3.2 "resize flags (offline/online x shrink/grow)").
type ResizeCapability struct {
	Shrink, Grow bool
	// OnlineOnly means resize requires the device to be mounted; the
	// dispatcher mounts on demand (§4.1.1) when no existing mountpoint is
	// found.
	OnlineOnly bool
}

func (r ResizeCapability) supported() bool { return r.Shrink || r.Grow }

// MkfsCapability records which MkfsOptions fields a family's mkfs
// transform actually honors, per the table in spec.md §4.2.8.
type MkfsCapability struct {
	Label, UUID, DryRun, NoDiscard, Force, NoPT bool
}

// Capabilities is one family's row of the capability matrix (spec.md
// §3.2): which modes are supported at all, and which of those require a
// live mountpoint.
type Capabilities struct {
	Resize                           ResizeCapability
	Mkfs                             MkfsCapability
	Check, Repair                    bool
	SetLabel, SetUUID                bool
	GetSize, GetFreeSpace, GetInfo   bool
	GetMinSize                       bool
	// MountRequiredLabel/Info mirrors spec.md §4.1.1's "btrfs label/info"
	// carve-out: those two modes need a mountpoint even though resize is
	// the only mode generally tagged OnlineOnly.
	MountRequiredLabel, MountRequiredInfo bool
}

// capabilityTable is the static matrix of spec.md §3.2, populated from the
// per-family rules in §4.2.1-4.2.8.
var capabilityTable = map[Family]Capabilities{
	Ext2: extCaps, Ext3: extCaps, Ext4: extCaps,
	XFS:      xfsCaps,
	Vfat:     vfatCaps,
	NTFS:     ntfsCaps,
	F2FS:     f2fsCaps,
	Btrfs:    btrfsCaps,
	Exfat:    exfatCaps,
	UDF:      udfCaps,
	Nilfs2:   nilfs2Caps,
	Reiserfs: reiserfsCaps,
	Bcachefs: bcachefsCaps,
}

var extCaps = Capabilities{
	Resize:       ResizeCapability{Shrink: true, Grow: true},
	Mkfs:         MkfsCapability{Label: true, UUID: true, DryRun: true, NoDiscard: true, Force: true},
	Check:        true,
	Repair:       true,
	SetLabel:     true,
	SetUUID:      true,
	GetSize:      true,
	GetFreeSpace: true,
	GetInfo:      true,
	GetMinSize:   true,
}

var xfsCaps = Capabilities{
	Resize:             ResizeCapability{Grow: true, OnlineOnly: true},
	Mkfs:               MkfsCapability{Label: true, UUID: true, DryRun: true, NoDiscard: true, Force: true},
	Check:              true,
	Repair:             true,
	SetLabel:           true,
	SetUUID:            true,
	GetSize:            true,
	GetFreeSpace:       false, // can_get_free_space special case, spec.md §4.1
	GetInfo:            true,
}

var vfatCaps = Capabilities{
	Resize:       ResizeCapability{Shrink: true, Grow: true},
	Mkfs:         MkfsCapability{Label: true, UUID: true, NoPT: true},
	Check:        true,
	Repair:       true,
	SetLabel:     true,
	GetSize:      true,
	GetFreeSpace: true,
	GetInfo:      true,
}

var ntfsCaps = Capabilities{
	Resize:       ResizeCapability{Shrink: true, Grow: true},
	Mkfs:         MkfsCapability{Label: true, DryRun: true},
	Check:        true,
	Repair:       true,
	SetLabel:     true,
	SetUUID:      true,
	GetSize:      true,
	GetFreeSpace: true,
	GetInfo:      true,
	GetMinSize:   true,
}

var f2fsCaps = Capabilities{
	Resize:       ResizeCapability{Shrink: true, Grow: true},
	Mkfs:         MkfsCapability{Label: true, NoDiscard: true, Force: true},
	Check:        true,
	Repair:       true,
	GetSize:      true,
	GetFreeSpace: false, // can_get_free_space special case
	GetInfo:      true,
}

var btrfsCaps = Capabilities{
	Resize:             ResizeCapability{Shrink: true, Grow: true, OnlineOnly: true},
	Mkfs:               MkfsCapability{Label: true, UUID: true, NoDiscard: true, Force: true},
	Check:              true,
	Repair:             true,
	SetLabel:           true,
	SetUUID:            true,
	GetSize:            true,
	GetFreeSpace:       true,
	GetInfo:            true,
	MountRequiredLabel: true,
	MountRequiredInfo:  true,
}

var exfatCaps = Capabilities{
	Mkfs:         MkfsCapability{},
	GetInfo:      true,
	GetSize:      true,
	GetFreeSpace: false, // can_get_free_space special case
}

var udfCaps = Capabilities{
	Mkfs:         MkfsCapability{Label: true, UUID: true},
	GetInfo:      true,
	GetSize:      true,
	GetFreeSpace: false, // can_get_free_space special case
}

var nilfs2Caps = Capabilities{
	Resize:       ResizeCapability{Shrink: true, Grow: true, OnlineOnly: true},
	Mkfs:         MkfsCapability{Label: true, DryRun: true, NoDiscard: true, Force: true},
	SetLabel:     true,
	SetUUID:      true,
	GetInfo:      true,
	GetSize:      true,
}

var reiserfsCaps = Capabilities{
	Resize:       ResizeCapability{Shrink: true, Grow: true},
	Mkfs:         MkfsCapability{Label: true, UUID: true, Force: true},
	Check:        true,
	Repair:       true,
	SetLabel:     true,
	SetUUID:      true,
	GetInfo:      true,
	GetSize:      true,
	GetFreeSpace: true,
}

var bcachefsCaps = Capabilities{
	Mkfs:    MkfsCapability{Label: true, UUID: true, NoDiscard: true, Force: true},
	GetInfo: true,
	GetSize: true,
}

// supports reports whether family's matrix allows mode at all.
func supports(family Family, mode Mode) bool {
	caps, ok := capabilityTable[family]
	if !ok {
		return false
	}
	switch mode {
	case ModeMkfs:
		return true
	case ModeResize:
		return caps.Resize.supported()
	case ModeCheck:
		return caps.Check
	case ModeRepair:
		return caps.Repair
	case ModeSetLabel:
		return caps.SetLabel
	case ModeSetUUID:
		return caps.SetUUID
	case ModeGetSize:
		return caps.GetSize
	case ModeGetFreeSpace:
		return caps.GetFreeSpace
	case ModeGetInfo:
		return caps.GetInfo
	case ModeGetMinSize:
		return caps.GetMinSize
	default:
		return false
	}
}

// needsMount reports whether mode, for family, must run against a live
// mountpoint rather than the raw device (spec.md §4.1.1: "xfs/btrfs/nilfs2
// resize; btrfs label/info").
func needsMount(family Family, mode Mode) bool {
	caps, ok := capabilityTable[family]
	if !ok {
		return false
	}
	switch mode {
	case ModeResize:
		return caps.Resize.OnlineOnly
	case ModeSetLabel:
		return caps.MountRequiredLabel
	case ModeGetInfo:
		return caps.MountRequiredInfo
	default:
		return false
	}
}
