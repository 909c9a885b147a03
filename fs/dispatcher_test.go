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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/mount"
	"github.com/blockdevkit/blockdev/probe"
)

func newTestDispatcher(backends map[Family]Backend, p probe.Prober, mt mount.Table) *Dispatcher {
	if p == nil {
		p = probe.NewFake()
	}
	if mt == nil {
		mt = mount.NewFake()
	}
	return New(backends, p, mt, nil)
}

func TestMkfs_UnregisteredFamilyIsNotSupported(t *testing.T) {
	d := newTestDispatcher(map[Family]Backend{}, nil, nil)

	err := d.Mkfs(context.Background(), "/dev/sdz1", Ext4, MkfsOptions{}, nil)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.NotSupported, kind)
}

func TestMkfs_MissingToolIsTechUnavail(t *testing.T) {
	fake := NewFake(Ext4)
	fake.Avail = false
	fake.MissingTool = "mke2fs"
	d := newTestDispatcher(map[Family]Backend{Ext4: fake}, nil, nil)

	err := d.Mkfs(context.Background(), "/dev/sdz1", Ext4, MkfsOptions{}, nil)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.TechUnavail, kind)
}

func TestMkfs_DelegatesToBackend(t *testing.T) {
	fake := NewFake(Ext4)
	d := newTestDispatcher(map[Family]Backend{Ext4: fake}, nil, nil)

	err := d.Mkfs(context.Background(), "/dev/sdz1", Ext4, MkfsOptions{Label: "root"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "/dev/sdz1", fake.LastMkfsDevice)
}

func TestResize_OnlineOnlyFamilyMountsOnDemand(t *testing.T) {
	fake := NewFake(XFS)
	mt := mount.NewFake()
	d := newTestDispatcher(map[Family]Backend{XFS: fake}, nil, mt)

	err := d.Resize(context.Background(), "/dev/sdz1", XFS, 0, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, fake.LastResizeTarget)
	assert.NotEqual(t, "/dev/sdz1", fake.LastResizeTarget)
	require.Len(t, mt.MountCalls, 1)
	require.Len(t, mt.UnmountCalls, 1)
}

func TestResize_OnlineOnlyFamilyReusesExistingMount(t *testing.T) {
	fake := NewFake(XFS)
	mt := mount.NewFake(mount.Entry{Source: "/dev/sdz1", Target: "/mnt/data"})
	d := newTestDispatcher(map[Family]Backend{XFS: fake}, nil, mt)

	err := d.Resize(context.Background(), "/dev/sdz1", XFS, 0, nil)

	require.NoError(t, err)
	assert.Equal(t, "/mnt/data", fake.LastResizeTarget)
	assert.Empty(t, mt.MountCalls)
}

func TestResize_OfflineFamilyUsesRawDevice(t *testing.T) {
	fake := NewFake(Ext4)
	d := newTestDispatcher(map[Family]Backend{Ext4: fake}, nil, nil)

	err := d.Resize(context.Background(), "/dev/sdz1", Ext4, 0, nil)

	require.NoError(t, err)
	assert.Equal(t, "/dev/sdz1", fake.LastResizeTarget)
}

func TestSetLabel_InvalidLabelRejected(t *testing.T) {
	fake := NewFake(XFS)
	d := newTestDispatcher(map[Family]Backend{XFS: fake}, nil, nil)

	err := d.SetLabel(context.Background(), "/dev/sdz1", "this label has spaces", XFS)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.LabelInvalid, kind)
}

func TestSetLabel_BtrfsMountsOnDemand(t *testing.T) {
	fake := NewFake(Btrfs)
	mt := mount.NewFake()
	d := newTestDispatcher(map[Family]Backend{Btrfs: fake}, nil, mt)

	err := d.SetLabel(context.Background(), "/dev/sdz1", "ok", Btrfs)

	require.NoError(t, err)
	assert.NotEqual(t, "/dev/sdz1", fake.LastLabelTarget)
}

func TestGetInfo_NormalizesNoneSentinel(t *testing.T) {
	fake := NewFake(Ext4)
	fake.Info = FsInfo{Label: "<none>", UUID: "1234"}
	d := newTestDispatcher(map[Family]Backend{Ext4: fake}, nil, nil)

	info, err := d.GetInfo(context.Background(), "/dev/sdz1", Ext4)

	require.NoError(t, err)
	assert.Equal(t, "", info.Label)
	assert.Equal(t, "1234", info.UUID)
}

func TestGetFreeSpace_SpecialCaseFamilyIsNotSupported(t *testing.T) {
	fake := NewFake(XFS)
	d := newTestDispatcher(map[Family]Backend{XFS: fake}, nil, nil)

	_, err := d.GetFreeSpace(context.Background(), "/dev/sdz1", XFS)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.NotSupported, kind)
}

func TestGetFsType_DelegatesToProber(t *testing.T) {
	p := probe.NewFake(probe.Signature{Type: "ext4", Usage: "filesystem"})
	d := newTestDispatcher(nil, p, nil)

	typ, err := d.GetFsType(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, "ext4", typ)
}

func TestResize_NoFamilyProbesFsType(t *testing.T) {
	fake := NewFake(Ext4)
	p := probe.NewFake(probe.Signature{Type: "ext4", Usage: "filesystem"})
	d := newTestDispatcher(map[Family]Backend{Ext4: fake}, p, nil)

	err := d.Resize(context.Background(), "/dev/sdz1", "", 0, nil)

	require.NoError(t, err)
}

func TestResize_NoFamilyNoSignatureIsNoFilesystem(t *testing.T) {
	p := probe.NewFake()
	d := newTestDispatcher(map[Family]Backend{}, p, nil)

	err := d.Resize(context.Background(), "/dev/sdz1", "", 0, nil)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.NoFilesystem, kind)
}
