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

// VDO enum conversions and vdo_pool_create config layering (spec.md
// §4.4.6).
package lvm

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/runner"
)

func (m VDOOperatingMode) String() string {
	switch m {
	case VDOModeRecovering:
		return "recovering"
	case VDOModeReadOnly:
		return "read-only"
	case VDOModeNormal:
		return "normal"
	default:
		return ""
	}
}

// ParseVDOOperatingMode decodes one of the stable strings back to a
// VDOOperatingMode, erroring with VDOPolicyInvalid on anything else.
func ParseVDOOperatingMode(s string) (VDOOperatingMode, error) {
	switch s {
	case "recovering":
		return VDOModeRecovering, nil
	case "read-only":
		return VDOModeReadOnly, nil
	case "normal":
		return VDOModeNormal, nil
	default:
		return VDOModeUnknown, errs.New(errs.VDOPolicyInvalid, "parse-vdo-mode", "", s, nil)
	}
}

func (s VDOIndexState) String() string {
	switch s {
	case VDOIndexError:
		return "error"
	case VDOIndexClosed:
		return "closed"
	case VDOIndexOpening:
		return "opening"
	case VDOIndexClosing:
		return "closing"
	case VDOIndexOffline:
		return "offline"
	case VDOIndexOnline:
		return "online"
	default:
		return ""
	}
}

// ParseVDOIndexState decodes one of the stable strings back to a
// VDOIndexState.
func ParseVDOIndexState(s string) (VDOIndexState, error) {
	switch s {
	case "error":
		return VDOIndexError, nil
	case "closed":
		return VDOIndexClosed, nil
	case "opening":
		return VDOIndexOpening, nil
	case "closing":
		return VDOIndexClosing, nil
	case "offline":
		return VDOIndexOffline, nil
	case "online":
		return VDOIndexOnline, nil
	default:
		return VDOIndexUnknown, errs.New(errs.VDOPolicyInvalid, "parse-vdo-index-state", "", s, nil)
	}
}

func (p VDOWritePolicy) String() string {
	switch p {
	case VDOWritePolicyAuto:
		return "auto"
	case VDOWritePolicySync:
		return "sync"
	case VDOWritePolicyAsync:
		return "async"
	default:
		return ""
	}
}

// ParseVDOWritePolicy decodes one of the stable strings back to a
// VDOWritePolicy.
func ParseVDOWritePolicy(s string) (VDOWritePolicy, error) {
	switch s {
	case "auto":
		return VDOWritePolicyAuto, nil
	case "sync":
		return VDOWritePolicySync, nil
	case "async":
		return VDOWritePolicyAsync, nil
	default:
		return VDOWritePolicyUnknown, errs.New(errs.VDOPolicyInvalid, "parse-vdo-write-policy", "", s, nil)
	}
}

// VdoPoolCreateOptions carries the two VDO-specific knobs spec.md §4.4.6
// layers into global_config_str for the duration of one call.
type VdoPoolCreateOptions struct {
	IndexMemorySizeMB uint64
	WritePolicy       VDOWritePolicy
}

// VdoPoolCreate issues the Vg.VgVdo.VdoPoolCreate call with
// vdo_index_memory_size_mb and vdo_write_policy layered into the config
// string for the call's duration, serialised on the config mutex (spec.md
// §4.4.6, §3.3's "single process-wide mutex").
func (c *Client) VdoPoolCreate(ctx context.Context, vgPath dbus.ObjectPath, poolName string, dataLv dbus.ObjectPath, virtualSize uint64, opts VdoPoolCreateOptions, extra []runner.ExtraArg) (dbus.ObjectPath, error) {
	c.Config.Lock()
	defer c.Config.Unlock()

	saved := c.Config.globalConfigStr
	layer := fmt.Sprintf("allocation/vdo_index_memory_size_mb=%d allocation/vdo_write_policy=\"%s\"", opts.IndexMemorySizeMB, opts.WritePolicy)
	if saved != "" {
		c.Config.globalConfigStr = saved + " " + layer
	} else {
		c.Config.globalConfigStr = layer
	}
	defer func() { c.Config.globalConfigStr = saved }()

	params := []interface{}{poolName, dataLv, virtualSize}
	return c.callLocked(ctx, "vdo-pool-create", vgPath, "com.redhat.lvmdbus1.VgVdo", "VdoPoolCreate", params, extra)
}
