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

package ext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/runner"
)

func TestMkfs_BuildsMke2fsInvocation(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"mke2fs", "-t", "ext4", "-L", "root", "-F"}, runner.Result{})
	b := New(fs.Ext4, r, nil)

	err := b.Mkfs(context.Background(), "/dev/sdz1", fs.MkfsOptions{Label: "root", Force: true}, nil)

	require.NoError(t, err)
}

func TestCheck_ExitZeroIsClean(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"e2fsck", "-f", "-n", "/dev/sdz1"}, runner.Result{Status: 0})
	b := New(fs.Ext4, r, nil)

	res, err := b.Check(context.Background(), "/dev/sdz1", nil)

	require.NoError(t, err)
	assert.Equal(t, fs.Clean, res)
}

func TestCheck_ExitFourIsDirtyNotError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"e2fsck", "-f", "-n", "/dev/sdz1"}, runner.Result{Status: 4})
	b := New(fs.Ext4, r, nil)

	res, err := b.Check(context.Background(), "/dev/sdz1", nil)

	require.NoError(t, err)
	assert.Equal(t, fs.Dirty, res)
}

func TestCheck_OtherExitIsError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"e2fsck", "-f", "-n", "/dev/sdz1"}, runner.Result{Status: 8})
	b := New(fs.Ext4, r, nil)

	_, err := b.Check(context.Background(), "/dev/sdz1", nil)

	assert.Error(t, err)
}

func TestRepair_ExitTwoIsSuccessWithoutError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"e2fsck", "-f", "-p", "/dev/sdz1"}, runner.Result{Status: 2})
	b := New(fs.Ext4, r, nil)

	err := b.Repair(context.Background(), "/dev/sdz1", nil)

	assert.NoError(t, err)
}

func TestRepair_ExitFourIsError(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"e2fsck", "-f", "-p", "/dev/sdz1"}, runner.Result{Status: 4})
	b := New(fs.Ext4, r, nil)

	err := b.Repair(context.Background(), "/dev/sdz1", nil)

	assert.Error(t, err)
}

func TestParseE2fsckLine_ComputesFivePassFormula(t *testing.T) {
	msg, pct, ok := parseE2fsckLine("2 50 100 /dev/sdz1")

	require.True(t, ok)
	assert.Equal(t, "/dev/sdz1", msg)
	assert.InDelta(t, 30.0, pct, 0.001)
}

func TestParseE2fsckLine_RejectsUnmatchedLine(t *testing.T) {
	_, _, ok := parseE2fsckLine("Pass 1: Checking inodes")

	assert.False(t, ok)
}

func TestResize_ZeroSizeOmitsSizeArgument(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"resize2fs", "/dev/sdz1"}, runner.Result{})
	b := New(fs.Ext4, r, nil)

	err := b.Resize(context.Background(), "/dev/sdz1", 0, nil)

	require.NoError(t, err)
}

func TestResize_NonZeroSizeConvertsToSectors(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"resize2fs", "/dev/sdz1", "2048s"}, runner.Result{})
	b := New(fs.Ext4, r, nil)

	err := b.Resize(context.Background(), "/dev/sdz1", 1024*1024, nil)

	require.NoError(t, err)
}

func TestGetMinSize_ParsesEstimateAndMultipliesByBlockSize(t *testing.T) {
	dev := writeFakeSuperblock(t, 4096, 100, 10, "data", uuid.Nil)
	r := runner.NewFake()
	r.Stub([]string{"resize2fs", "-P", dev}, runner.Result{Stdout: "Estimated minimum size: 50\n"})
	b := New(fs.Ext4, r, nil)

	size, supported, err := b.GetMinSize(context.Background(), dev)

	require.NoError(t, err)
	assert.True(t, supported)
	assert.Equal(t, uint64(50*4096), size)
}

func TestGetInfo_ReadsSuperblockFields(t *testing.T) {
	id := uuid.MustParse("12345678-1234-1234-1234-123456789abc")
	dev := writeFakeSuperblock(t, 4096, 1000, 250, "myvol", id)
	b := New(fs.Ext4, runner.NewFake(), nil)

	info, err := b.GetInfo(context.Background(), dev)

	require.NoError(t, err)
	assert.Equal(t, "myvol", info.Label)
	assert.Equal(t, id.String(), info.UUID)
	assert.Equal(t, uint64(4096), info.BlockSize)
	assert.Equal(t, uint64(1000), info.BlockCount)
	assert.Equal(t, uint64(250), info.FreeBlocks)
	assert.Equal(t, "clean", info.State)
}

// writeFakeSuperblock builds a minimal on-disk image with an ext
// superblock at offset 1024 so GetInfo/GetMinSize can be exercised
// without a real block device.
func writeFakeSuperblock(t *testing.T, blockSize uint32, blockCount, freeBlocks uint32, label string, id uuid.UUID) string {
	t.Helper()
	logBlockSize := uint32(0)
	for (1024 << logBlockSize) < blockSize {
		logBlockSize++
	}

	buf := make([]byte, 2048)
	sb := buf[1024:2048]
	putLE32(sb[4:8], blockCount)
	putLE32(sb[12:16], freeBlocks)
	putLE32(sb[24:28], logBlockSize)
	putLE16(sb[56:58], ext2Magic)
	putLE16(sb[58:60], 0x1)
	copy(sb[104:120], id[:])
	copy(sb[120:136], []byte(label))

	path := filepath.Join(t.TempDir(), "device.img")
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func putLE16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
