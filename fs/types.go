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

import "github.com/blockdevkit/blockdev/runner"

// MkfsOptions is the caller-owned, immutable-at-call option set of spec.md
// §3.1. Label/UUID being the empty string means "unset"; which fields a
// given family actually honors is governed by that family's
// MkfsCapability.
type MkfsOptions struct {
	Label     string
	UUID      string
	DryRun    bool
	NoDiscard bool
	Force     bool
	NoPT      bool
}

// sentinelNone is the libblkid-style "no label/uuid" marker spec.md §3.3
// says must be normalized to the empty string before it reaches a caller.
const sentinelNone = "<none>"

func normalizeSentinel(s string) string {
	if s == sentinelNone {
		return ""
	}
	return s
}

// FsInfo is the get_info result of spec.md §3.1: a flat record carrying
// every family-specific counter. Only the fields meaningful for the
// queried family are populated; the rest stay at their zero value.
type FsInfo struct {
	Label string
	UUID  string

	BlockSize  uint64
	BlockCount uint64
	FreeBlocks uint64

	ClusterSize      uint64
	ClusterCount     uint64
	FreeClusterCount uint64

	SectorSize  uint64
	SectorCount uint64

	Size      uint64
	FreeSpace uint64

	Features uint64
	Revision string

	// LVID/VID are udf's Logical Volume ID and Volume ID.
	LVID, VID string

	// State is ext's "clean"/"not clean"[ with errors] decode.
	State string
}

// MkfsFlagSet is one family's translation of MkfsOptions into ExtraArgs,
// per the table in spec.md §4.2.8. A nil function field means the family
// doesn't honor that MkfsOptions field; BuildMkfsArgs silently skips it.
type MkfsFlagSet struct {
	Label func(label string) []runner.ExtraArg
	UUID  func(uuid string) []runner.ExtraArg
	// DryRun/NoDiscard/Force are static flags appended when the matching
	// MkfsOptions bool is set.
	DryRun, NoDiscard, Force runner.ExtraArg
	// NoPTAlways is appended unconditionally when the family's matrix
	// marks no_pt supported (spec.md §4.2.3: vfat's -I "always").
	NoPTAlways *runner.ExtraArg
}

// BuildMkfsArgs implements spec.md §4.2.8's mkfs_options transform:
// synthesise flags for every requested-and-supported option, silently
// dropping unsupported-but-requested ones, then append extra verbatim.
func BuildMkfsArgs(opts MkfsOptions, flags MkfsFlagSet, extra []runner.ExtraArg) []runner.ExtraArg {
	var out []runner.ExtraArg
	if opts.Label != "" && flags.Label != nil {
		out = append(out, flags.Label(opts.Label)...)
	}
	if opts.UUID != "" && flags.UUID != nil {
		out = append(out, flags.UUID(opts.UUID)...)
	}
	if opts.DryRun && flags.DryRun.Opt != "" {
		out = append(out, flags.DryRun)
	}
	if opts.NoDiscard && flags.NoDiscard.Opt != "" {
		out = append(out, flags.NoDiscard)
	}
	if opts.Force && flags.Force.Opt != "" {
		out = append(out, flags.Force)
	}
	if flags.NoPTAlways != nil {
		out = append(out, *flags.NoPTAlways)
	}
	out = append(out, extra...)
	return out
}

// simpleOptValFlag is the common case of spec.md §4.2.8's table: an option
// that takes the raw value verbatim (e.g. "-L", "-U", "-i").
func simpleOptValFlag(opt string) func(string) []runner.ExtraArg {
	return func(v string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: opt, Val: v}} }
}
