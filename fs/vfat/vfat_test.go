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

package vfat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/partedit"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

func TestMkfs_AlwaysAppendsNoPartitionTableFlag(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"mkfs.vfat", "-n", "DATA", "-I", "/dev/sdz1"}, runner.Result{})
	b := New(r, nil, nil, nil)

	err := b.Mkfs(context.Background(), "/dev/sdz1", fs.MkfsOptions{Label: "DATA"}, nil)

	require.NoError(t, err)
}

func TestCheck_ExitOneIsTreatedAsClean(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"fsck.vfat", "-n", "/dev/sdz1"}, runner.Result{Status: 1})
	b := New(r, nil, nil, nil)

	res, err := b.Check(context.Background(), "/dev/sdz1", nil)

	require.NoError(t, err)
	assert.Equal(t, fs.Clean, res)
}

func TestGetInfo_ComputesFreeClusterCount(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"fsck.vfat", "-nv", "/dev/sdz1"}, runner.Result{
		Stdout: "512 bytes per cluster\n/dev/sdz1, 100/400 clusters\n",
	})
	p := probe.NewFake(probe.Signature{Label: "DATA", UUID: "abcd"})
	b := New(r, nil, p, nil)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, uint64(300), info.FreeClusterCount)
	assert.Equal(t, uint64(512), info.ClusterSize)
}

func TestResize_ZeroSizeUsesDeviceLength(t *testing.T) {
	editor := partedit.NewFake(2048000, 512)
	b := New(runner.NewFake(), nil, nil, editor)

	err := b.Resize(context.Background(), "/dev/sdz1", 0, nil)

	require.NoError(t, err)
	assert.Equal(t, uint64(2048000*512), editor.LastResizeBytes)
}

func TestSetUUID_NotSupported(t *testing.T) {
	b := New(runner.NewFake(), nil, nil, nil)

	err := b.SetUUID(context.Background(), "/dev/sdz1", "")

	assert.Error(t, err)
}
