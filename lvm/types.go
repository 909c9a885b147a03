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

// Package lvm is a functional adapter over the lvmdbus1 object-managed
// D-Bus service (spec.md §4.4). All state named by the types below lives
// in the remote service; these structs are deep-copied snapshots taken at
// decode time and owned entirely by the caller afterward.
package lvm

import "github.com/godbus/dbus/v5"

// Pv is the decoded property bag of one com.redhat.lvmdbus1.Pv object
// (spec.md §3.1 PVdata), optionally carrying a summary of its parent VG.
type Pv struct {
	Name       string
	UUID       string
	PeStart    uint64
	Tags       []string
	Missing    bool
	ParentVG   *VgSummary
}

// VgSummary is the subset of VG fields embedded in a Pv record.
type VgSummary struct {
	Name        string
	UUID        string
	Size        uint64
	Free        uint64
	ExtentSize  uint64
	ExtentCount uint64
	FreeCount   uint64
	PvCount     uint64
}

// Vg is the decoded property bag of one com.redhat.lvmdbus1.Vg object
// (spec.md §3.1 VGdata).
type Vg struct {
	Name        string
	UUID        string
	Size        uint64
	Free        uint64
	ExtentSize  uint64
	ExtentCount uint64
	FreeCount   uint64
	PvCount     uint64
	Exported    bool
	Tags        []string
}

// SegData is one (pv_first_pe, pv_last_pe) run copied out of an LV
// segment's Devices array (spec.md §4.4.3).
type SegData struct {
	PvDev      string
	PvStartPe  uint64
	SizePe     uint64
}

// LvPercents carries the three percent-complete counters an LV may report
// while its pool or mirror is still converging.
type LvPercents struct {
	Data     float64
	Metadata float64
	Copy     float64
}

// Lv is the decoded property bag of one LV-family object (Lv, ThinPool,
// CachePool, VdoPool, HiddenLv — spec.md §3.1 LVdata). OriginLv, PoolLv,
// MovePv, DataLv and MetaDataLv start life as D-Bus object paths and are
// dereferenced to names during decode (spec.md §4.4.3); brackets are
// stripped from hidden-LV names.
type Lv struct {
	VgName       string
	LvName       string
	UUID         string
	Attr         string
	Segtype      string
	Size         uint64
	Origin       string
	PoolLv       string
	DataLv       string
	MetaDataLv   string
	DataLvs      []string
	MetaDataLvs  []string
	MovePv       string
	Roles        []string
	Tags         []string
	Segments     []SegData
	Percents     LvPercents
}

// CacheMode is the decoded dm-cache write mode (spec.md §4.4.4).
type CacheMode int

const (
	CacheModeInvalid CacheMode = iota
	CacheModeWriteback
	CacheModeWritethrough
)

// CacheStats is the decoded dm_status_cache record (spec.md §3.1).
type CacheStats struct {
	BlockSize    uint64
	CacheSize    uint64
	CacheUsed    uint64
	MdBlockSize  uint64
	MdSize       uint64
	MdUsed       uint64
	ReadHits     uint64
	ReadMisses   uint64
	WriteHits    uint64
	WriteMisses  uint64
	Mode         CacheMode
}

// VDOOperatingMode, VDOCompressionState, VDOIndexState and VDOWritePolicy
// are the stable string enums of spec.md §4.4.6.
type VDOOperatingMode int

const (
	VDOModeUnknown VDOOperatingMode = iota
	VDOModeRecovering
	VDOModeReadOnly
	VDOModeNormal
)

type VDOIndexState int

const (
	VDOIndexUnknown VDOIndexState = iota
	VDOIndexError
	VDOIndexClosed
	VDOIndexOpening
	VDOIndexClosing
	VDOIndexOffline
	VDOIndexOnline
)

type VDOWritePolicy int

const (
	VDOWritePolicyUnknown VDOWritePolicy = iota
	VDOWritePolicyAuto
	VDOWritePolicySync
	VDOWritePolicyAsync
)

// VDOPoolData is the decoded property bag of one VdoPool LV (spec.md
// §3.1 VDOPoolData).
type VDOPoolData struct {
	OperatingMode      VDOOperatingMode
	CompressionActive  bool
	IndexState         VDOIndexState
	WritePolicy        VDOWritePolicy
	UsedSize           uint64
	SavingPercent      float64
	IndexMemorySizeMB  uint64
	CompressionEnabled bool
	DeduplicationOn    bool
}

// jobReply is the result of polling a com.redhat.lvmdbus1.Job object to
// completion (spec.md §4.4.2 step 6).
type jobReply struct {
	ResultPath dbus.ObjectPath
	ErrCode    int32
	ErrMsg     string
}
