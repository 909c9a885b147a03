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

package ntfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/mount"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

func TestCheck_ExitOneIsRecoverableStillClean(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfsfix", "-n", "/dev/sdz1"}, runner.Result{Status: 1})
	b := New(r, nil, nil, nil)

	res, err := b.Check(context.Background(), "/dev/sdz1", nil)

	require.NoError(t, err)
	assert.Equal(t, fs.Clean, res)
}

func TestCheck_OtherExitIsDirty(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfsfix", "-n", "/dev/sdz1"}, runner.Result{Status: 2})
	b := New(r, nil, nil, nil)

	res, err := b.Check(context.Background(), "/dev/sdz1", nil)

	require.NoError(t, err)
	assert.Equal(t, fs.Dirty, res)
}

func TestSetUUID_FullAndHalfSerialLengths(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfslabel", "/dev/sdz1", "--new-serial=0123456789abcdef"}, runner.Result{})
	b := New(r, nil, nil, nil)

	require.NoError(t, b.SetUUID(context.Background(), "/dev/sdz1", "0123456789abcdef"))

	r2 := runner.NewFake()
	r2.Stub([]string{"ntfslabel", "/dev/sdz1", "--new-half-serial=01234567"}, runner.Result{})
	b2 := New(r2, nil, nil, nil)

	require.NoError(t, b2.SetUUID(context.Background(), "/dev/sdz1", "01234567"))
}

func TestSetUUID_WrongLengthIsUuidInvalid(t *testing.T) {
	b := New(runner.NewFake(), nil, nil, nil)

	err := b.SetUUID(context.Background(), "/dev/sdz1", "abc")

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.UuidInvalid, e.Kind)
}

func TestGetInfo_RejectsMountedDevice(t *testing.T) {
	mt := mount.NewFake(mount.Entry{Source: "/dev/sdz1", Target: "/mnt/data"})
	b := New(runner.NewFake(), nil, probe.NewFake(probe.Signature{}), mt)

	_, err := b.GetInfo(context.Background(), "/dev/sdz1")

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.NotMounted, e.Kind)
}

func TestGetInfo_ParsesClusterFields(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfsinfo", "-m", "/dev/sdz1"}, runner.Result{
		Stdout: "Cluster Size: 4096\nVolume Size in Clusters: 1000\nFree Clusters: 250\n",
	})
	p := probe.NewFake(probe.Signature{Label: "vol", UUID: "u1"})
	mt := mount.NewFake()
	b := New(r, nil, p, mt)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, uint64(4096), info.ClusterSize)
	assert.Equal(t, uint64(1000), info.ClusterCount)
	assert.Equal(t, uint64(250), info.FreeClusterCount)
	assert.Equal(t, uint64(4096*1000), info.Size)
	assert.Equal(t, uint64(4096*250), info.FreeSpace)
	assert.Equal(t, "vol", info.Label)
}

func TestResize_ZeroMeansFitDevice(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfsresize", "--no-progress-bar", "/dev/sdz1"}, runner.Result{})
	b := New(r, nil, nil, nil)

	require.NoError(t, b.Resize(context.Background(), "/dev/sdz1", 0, nil))
}

func TestGetMinSize_ParsesEstimate(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfsresize", "--info", "/dev/sdz1"}, runner.Result{
		Stdout: "You might resize at 123456 bytes\n",
	})
	b := New(r, nil, nil, nil)

	size, ok, err := b.GetMinSize(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(123456), size)
}

func TestGetMinSize_UnparsableOutputIsParseError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"ntfsresize", "--info", "/dev/sdz1"}, runner.Result{Stdout: "nothing useful here\n"})
	b := New(r, nil, nil, nil)

	_, _, err := b.GetMinSize(context.Background(), "/dev/sdz1")

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.Parse, e.Kind)
}
