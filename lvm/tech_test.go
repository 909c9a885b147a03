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

package lvm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/runner"
)

func newTestGate() *Gate {
	return &Gate{
		Runner:           runner.NewFake(),
		Deps:             deps.NewRegistry(),
		Config:           NewConfig(),
		ServicePresent:   func(context.Context) bool { return true },
		ServiceVersion:   func(context.Context) string { return "1.2.0" },
		SegtypeAvailable: func(context.Context, string) bool { return true },
		ReadModules:      func() (string, error) { return "kvdo 12345 0 - Live 0x0\n", nil },
	}
}

func TestIsTechAvail_LocalCalcsAlwaysAvailable(t *testing.T) {
	g := newTestGate()
	g.ServicePresent = func(context.Context) bool { return false }

	ok, _, err := g.IsTechAvail(context.Background(), TechThinCalcs)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = g.IsTechAvail(context.Background(), TechCalcs)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsTechAvail_VDORequiresServiceSegtypeAndModule(t *testing.T) {
	g := newTestGate()
	ok, _, err := g.IsTechAvail(context.Background(), TechVDO)
	require.NoError(t, err)
	assert.True(t, ok)

	g2 := newTestGate()
	g2.ServicePresent = func(context.Context) bool { return false }
	ok, reason, err := g2.IsTechAvail(context.Background(), TechVDO)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	g3 := newTestGate()
	g3.SegtypeAvailable = func(context.Context, string) bool { return false }
	ok, _, err = g3.IsTechAvail(context.Background(), TechVDO)
	require.NoError(t, err)
	assert.False(t, ok)

	g4 := newTestGate()
	g4.ReadModules = func() (string, error) { return "other_module 123 0 - Live 0x0\n", nil }
	ok, _, err = g4.IsTechAvail(context.Background(), TechVDO)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsTechAvail_WriteCacheRequiresMinServiceVersion(t *testing.T) {
	g := newTestGate()
	g.ServiceVersion = func(context.Context) string { return "1.0.0" }

	ok, _, err := g.IsTechAvail(context.Background(), TechWriteCache)
	require.NoError(t, err)
	assert.False(t, ok)

	g.ServiceVersion = func(context.Context) string { return "1.1.0" }
	ok, _, err = g.IsTechAvail(context.Background(), TechWriteCache)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsTechAvail_DevicesRequiresLvmdevicesTool(t *testing.T) {
	g := newTestGate()

	ok, reason, err := g.IsTechAvail(context.Background(), TechDevices)
	require.NoError(t, err)
	assert.False(t, ok, "lvmdevices is not on PATH in the test environment")
	assert.NotEmpty(t, reason)
}

func TestDevicesFilePath_PrefersExplicitOverride(t *testing.T) {
	assert.Equal(t, "/custom/system.devices", DevicesFilePath("/custom/system.devices"))
}

func TestDevicesFilePath_FallsBackToDefaultLocation(t *testing.T) {
	got := DevicesFilePath("")
	assert.Contains(t, got, "devices/system.devices")
}

func TestHasModule_FindsExactFirstFieldMatch(t *testing.T) {
	modules := "kvdo 12345 0 - Live 0x0\nother 999 0 - Live 0x0\n"
	assert.True(t, hasModule(modules, "kvdo"))
	assert.False(t, hasModule(modules, "kvd"))
}
