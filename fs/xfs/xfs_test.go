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

package xfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/mount"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

func TestCheck_NonzeroExitIsDirtyNotError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"xfs_repair", "-n", "/dev/sdz1"}, runner.Result{Status: 1})
	b := New(r, nil, nil, nil)

	res, err := b.Check(context.Background(), "/dev/sdz1", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, int(res))
}

func TestSetLabel_EmptyLabelUsesDoubleDash(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"xfs_admin", "-L", "--", "", "/dev/sdz1"}, runner.Result{})
	b := New(r, nil, nil, nil)

	err := b.SetLabel(context.Background(), "/dev/sdz1", "")

	require.NoError(t, err)
}

func TestGetInfo_UnmountedUsesXfsDb(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"xfs_db", "-r", "-c", "info", "/dev/sdz1"}, runner.Result{
		Stdout: "meta-data=/dev/sdz1              isize=512    agcount=4, agsize=65536 blks\ndata     =                       bsize=4096   blocks=262144, imaxpct=25\n",
	})
	p := probe.NewFake(probe.Signature{Label: "vol", UUID: "u1"})
	mt := mount.NewFake()
	b := New(r, nil, p, mt)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, uint64(4096), info.BlockSize)
	assert.Equal(t, uint64(262144), info.BlockCount)
	assert.Equal(t, "vol", info.Label)
}

func TestGetInfo_MountedUsesXfsSpaceman(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"xfs_spaceman", "-c", "info", "/mnt/data"}, runner.Result{
		Stdout: "data     =                       bsize=4096   blocks=1000, imaxpct=25\n",
	})
	p := probe.NewFake(probe.Signature{})
	mt := mount.NewFake(mount.Entry{Source: "/dev/sdz1", Target: "/mnt/data"})
	b := New(r, nil, p, mt)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, uint64(1000), info.BlockCount)
}

func TestResize_ZeroMeansNoSizeFlag(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"xfs_growfs", "/mnt/data"}, runner.Result{})
	b := New(r, nil, nil, nil)

	err := b.Resize(context.Background(), "/mnt/data", 0, nil)

	require.NoError(t, err)
}
