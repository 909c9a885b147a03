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

	"github.com/blockdevkit/blockdev/runner"
)

// CheckResult is the outcome of Backend.Check: a clean/dirty verdict that
// is not itself an error (spec.md §4.2.1's exit-code policy table draws a
// hard line between "dirty" and "failed").
type CheckResult int

const (
	Clean CheckResult = iota
	Dirty
)

// Backend is the uniform internal contract every per-family specialist
// implements, per spec.md §4.2. The dispatcher guards every call with
// IsTechAvail and the capability matrix before forwarding to these
// methods, so a Backend itself never needs to re-check availability.
type Backend interface {
	Family() Family

	// IsTechAvail reports whether the tools required for mode are
	// present. missing is the name of the first absent tool, for the
	// MissingTool(name) case of spec.md §4.2.
	IsTechAvail(ctx context.Context, mode Mode) (ok bool, missing string, err error)

	Mkfs(ctx context.Context, device string, opts MkfsOptions, extra []runner.ExtraArg) error
	Check(ctx context.Context, device string, extra []runner.ExtraArg) (CheckResult, error)
	Repair(ctx context.Context, device string, extra []runner.ExtraArg) error
	SetLabel(ctx context.Context, device, label string) error
	// SetUUID with uuid == "" means "generate a new random one".
	SetUUID(ctx context.Context, device, uuid string) error
	GetInfo(ctx context.Context, device string) (FsInfo, error)
	// Resize's deviceOrMountpoint is the mountpoint when the family's
	// matrix marks resize OnlineOnly, the raw device otherwise. newSize
	// == 0 means "fit the device".
	Resize(ctx context.Context, deviceOrMountpoint string, newSize uint64, extra []runner.ExtraArg) error
	// GetMinSize reports false, 0, nil when the family doesn't support it.
	GetMinSize(ctx context.Context, device string) (size uint64, supported bool, err error)
}
