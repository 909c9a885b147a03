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

package btrfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/runner"
)

func TestGetInfo_MultiDeviceVolumeRefused(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"btrfs", "filesystem", "show", "--raw", "/mnt/x"}, runner.Result{Stdout: "" +
		"Label: 'mylabel'  uuid: 4e2f\n" +
		"\tTotal devices 2 FS bytes used 1000\n" +
		"\tdevid    1 size 2000 used 1000 path /dev/sdb1\n",
	})
	b := New(r, nil)

	_, err := b.GetInfo(context.Background(), "/mnt/x")

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.Fail, kind)
	assert.ErrorContains(t, err, "spans multiple devices")
}

func TestGetInfo_SingleDeviceComputesFreeSpace(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"btrfs", "filesystem", "show", "--raw", "/mnt/x"}, runner.Result{Stdout: "" +
		"Label: 'mylabel'  uuid: 4e2f\n" +
		"\tTotal devices 1 FS bytes used 1000\n" +
		"\tdevid    1 size 2000 used 1000 path /dev/sdb1\n",
	})
	r.Stub([]string{"btrfs", "filesystem", "inspect-internal", "min-dev-size", "/mnt/x"}, runner.Result{Stdout: "1200 bytes (1.17KiB)\n"})
	b := New(r, nil)

	info, err := b.GetInfo(context.Background(), "/mnt/x")

	require.NoError(t, err)
	assert.Equal(t, "mylabel", info.Label)
	assert.Equal(t, uint64(2000), info.Size)
	assert.Equal(t, uint64(800), info.FreeSpace)
}

func TestSetUUID_RandomFeedsConfirmationToStdin(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"btrfstune", "-u", "/dev/sdz1"}, runner.Result{})
	b := New(r, nil)

	err := b.SetUUID(context.Background(), "/dev/sdz1", "")

	require.NoError(t, err)
	require.Len(t, r.Calls, 1)
	assert.Equal(t, "y\n", r.Calls[0].Input)
}

func TestResize_ZeroMapsToMax(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"btrfs", "filesystem", "resize", "max", "/mnt/x"}, runner.Result{})
	b := New(r, nil)

	err := b.Resize(context.Background(), "/mnt/x", 0, nil)

	require.NoError(t, err)
}
