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

// Decoders for spec.md §4.4.3: dispatch is by object-path prefix under
// /com/redhat/lvmdbus1/{Pv,Vg,Lv,ThinPool,CachePool,VdoPool,HiddenLv,Job},
// each reading a GetAll(interface) bag and copying typed fields.
package lvm

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"
)

func str(m map[string]interface{}, k string) string {
	s, _ := m[k].(string)
	return s
}

func u64(m map[string]interface{}, k string) uint64 {
	switch v := m[k].(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case uint32:
		return uint64(v)
	}
	return 0
}

func boolean(m map[string]interface{}, k string) bool {
	b, _ := m[k].(bool)
	return b
}

func strs(m map[string]interface{}, k string) []string {
	if v, ok := m[k].([]string); ok {
		return v
	}
	return nil
}

// nameOf resolves an LVM object path to its Name property by calling
// GetAll on the path's interface and reading "Name" (spec.md §4.4.3:
// "the decoder resolves each to a name by looking up Name on the target
// interface"). The empty path and "/" both resolve to "".
func nameOf(ctx context.Context, bus busConn, iface string, path dbus.ObjectPath) (string, error) {
	if path == "" || path == noResultPath {
		return "", nil
	}
	obj := bus.Object(serviceName, path)
	props, err := getAllProps(ctx, obj, iface)
	if err != nil {
		return "", err
	}
	return strings.Trim(str(props, "Name"), "[]"), nil
}

// DecodePv reads a com.redhat.lvmdbus1.Pv property bag. If the Pv's Vg
// property is a non-empty object path, its summary is also fetched and
// embedded.
func DecodePv(ctx context.Context, bus busConn, path dbus.ObjectPath) (Pv, error) {
	const iface = "com.redhat.lvmdbus1.Pv"
	props, err := getAllProps(ctx, bus.Object(serviceName, path), iface)
	if err != nil {
		return Pv{}, err
	}
	pv := Pv{
		Name:    str(props, "Name"),
		UUID:    str(props, "Uuid"),
		PeStart: u64(props, "PeStart"),
		Tags:    strs(props, "Tags"),
		Missing: boolean(props, "Missing"),
	}
	if vgPath, ok := props["Vg"].(dbus.ObjectPath); ok && vgPath != "" && vgPath != noResultPath {
		vgProps, err := getAllProps(ctx, bus.Object(serviceName, vgPath), "com.redhat.lvmdbus1.Vg")
		if err == nil {
			pv.ParentVG = &VgSummary{
				Name:        str(vgProps, "Name"),
				UUID:        str(vgProps, "Uuid"),
				Size:        u64(vgProps, "SizeBytes"),
				Free:        u64(vgProps, "FreeBytes"),
				ExtentSize:  u64(vgProps, "ExtentSizeBytes"),
				ExtentCount: u64(vgProps, "ExtentCount"),
				FreeCount:   u64(vgProps, "FreeCount"),
				PvCount:     u64(vgProps, "PvCount"),
			}
		}
	}
	return pv, nil
}

// DecodeVg reads a com.redhat.lvmdbus1.Vg property bag.
func DecodeVg(ctx context.Context, bus busConn, path dbus.ObjectPath) (Vg, error) {
	const iface = "com.redhat.lvmdbus1.Vg"
	props, err := getAllProps(ctx, bus.Object(serviceName, path), iface)
	if err != nil {
		return Vg{}, err
	}
	return Vg{
		Name:        str(props, "Name"),
		UUID:        str(props, "Uuid"),
		Size:        u64(props, "SizeBytes"),
		Free:        u64(props, "FreeBytes"),
		ExtentSize:  u64(props, "ExtentSizeBytes"),
		ExtentCount: u64(props, "ExtentCount"),
		FreeCount:   u64(props, "FreeCount"),
		PvCount:     u64(props, "PvCount"),
		Exported:    boolean(props, "Exported"),
		Tags:        strs(props, "Tags"),
	}, nil
}

// decodeSegments decodes the elements of an Lv's Devices array, spec.md
// §4.4.3: "(o, a(tts))" — an object path and a list of (pv_first_pe,
// pv_last_pe, size... ) tuples. godbus decodes this generically as
// []interface{}{dbus.ObjectPath, []interface{}{...}}.
func decodeSegments(ctx context.Context, bus busConn, devices []interface{}) []SegData {
	var segs []SegData
	for _, raw := range devices {
		entry, ok := raw.([]interface{})
		if !ok || len(entry) < 2 {
			continue
		}
		pvPath, ok := entry[0].(dbus.ObjectPath)
		if !ok {
			continue
		}
		pvName, err := nameOf(ctx, bus, "com.redhat.lvmdbus1.Pv", pvPath)
		if err != nil {
			continue
		}
		runs, ok := entry[1].([]interface{})
		if !ok {
			continue
		}
		for _, r := range runs {
			run, ok := r.([]interface{})
			if !ok || len(run) < 2 {
				continue
			}
			first := toU64(run[0])
			last := toU64(run[1])
			segs = append(segs, SegData{
				PvDev:     pvName,
				PvStartPe: first,
				SizePe:    last - first + 1,
			})
		}
	}
	return segs
}

func toU64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case uint32:
		return uint64(n)
	}
	return 0
}

// DecodeLv reads an Lv-family property bag (Lv, ThinPool, CachePool,
// VdoPool or HiddenLv — they share the LvCommon interface fields).
// OriginLv/PoolLv/MovePv/DataLv/MetaDataLv are dereferenced to names;
// hidden-LV name brackets are stripped by nameOf/str-trim.
func DecodeLv(ctx context.Context, bus busConn, path dbus.ObjectPath) (Lv, error) {
	const iface = "com.redhat.lvmdbus1.Lv"
	props, err := getAllProps(ctx, bus.Object(serviceName, path), iface)
	if err != nil {
		return Lv{}, err
	}

	lv := Lv{
		LvName:  strings.Trim(str(props, "Name"), "[]"),
		UUID:    str(props, "Uuid"),
		Attr:    str(props, "Attr"),
		Segtype: str(props, "SegType"),
		Size:    u64(props, "SizeBytes"),
		Roles:   strs(props, "Roles"),
		Tags:    strs(props, "Tags"),
		Percents: LvPercents{
			Data:     toFloat(props["DataPercent"]),
			Metadata: toFloat(props["MetadataPercent"]),
			Copy:     toFloat(props["CopyPercent"]),
		},
	}
	if vgPath, ok := props["Vg"].(dbus.ObjectPath); ok {
		lv.VgName, _ = nameOf(ctx, bus, "com.redhat.lvmdbus1.Vg", vgPath)
	}
	if p, ok := props["OriginLv"].(dbus.ObjectPath); ok {
		lv.Origin, _ = nameOf(ctx, bus, iface, p)
	}
	if p, ok := props["PoolLv"].(dbus.ObjectPath); ok {
		lv.PoolLv, _ = nameOf(ctx, bus, iface, p)
	}
	if p, ok := props["MovePv"].(dbus.ObjectPath); ok {
		lv.MovePv, _ = nameOf(ctx, bus, "com.redhat.lvmdbus1.Pv", p)
	}
	if p, ok := props["DataLv"].(dbus.ObjectPath); ok {
		lv.DataLv, _ = nameOf(ctx, bus, iface, p)
	}
	if p, ok := props["MetaDataLv"].(dbus.ObjectPath); ok {
		lv.MetaDataLv, _ = nameOf(ctx, bus, iface, p)
	}
	if devices, ok := props["Devices"].([]interface{}); ok {
		lv.Segments = decodeSegments(ctx, bus, devices)
	}
	return lv, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int32:
		return float64(n)
	}
	return 0
}

// ResolveByPrefix reports which LVM object kind path names, per spec.md
// §4.4.3's dispatch-by-prefix rule.
func ResolveByPrefix(path dbus.ObjectPath) string {
	s := string(path)
	for _, kind := range []string{"Pv", "Vg", "ThinPool", "CachePool", "VdoPool", "HiddenLv", "Lv", "Job"} {
		if strings.HasPrefix(s, objectPrefix+"/"+kind) {
			return kind
		}
	}
	return ""
}
