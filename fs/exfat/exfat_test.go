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

package exfat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

func TestGetInfo_ParsesTuneExfatCounters(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"tune.exfat", "/dev/sdz1"}, runner.Result{Stdout: "" +
		"Block sector size : 512\n" +
		"Number of the sectors : 2048000\n" +
		"Number of the clusters : 32000\n",
	})
	p := probe.NewFake(probe.Signature{Label: "data", UUID: "u1"})
	b := New(r, deps.NewRegistry(), p)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, "data", info.Label)
	assert.Equal(t, uint64(512), info.SectorSize)
	assert.Equal(t, uint64(2048000), info.SectorCount)
	assert.Equal(t, uint64(32000), info.ClusterCount)
	assert.Equal(t, uint64(512*2048000), info.Size)
}

func TestGetInfo_MissingCounterIsParseError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"tune.exfat", "/dev/sdz1"}, runner.Result{Stdout: "Block sector size : 512\n"})
	p := probe.NewFake(probe.Signature{})
	b := New(r, deps.NewRegistry(), p)

	_, err := b.GetInfo(context.Background(), "/dev/sdz1")

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.Parse, kind)
}

func TestResize_NotSupported(t *testing.T) {
	r := runner.NewFake()
	b := New(r, deps.NewRegistry(), nil)

	err := b.Resize(context.Background(), "/dev/sdz1", 1000, nil)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.NotSupported, kind)
}

func TestSetUUID_NotSupported(t *testing.T) {
	r := runner.NewFake()
	b := New(r, deps.NewRegistry(), nil)

	err := b.SetUUID(context.Background(), "/dev/sdz1", "")

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.NotSupported, kind)
}
