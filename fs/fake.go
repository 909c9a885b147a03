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

	"github.com/blockdevkit/blockdev/runner"
)

// FakeBackend is an in-memory Backend used to test the dispatcher's
// capability-matrix/mount-on-demand logic without a real specialist.
type FakeBackend struct {
	family Family

	Avail        bool
	MissingTool  string
	Info         FsInfo
	MinSize      uint64
	MinSupported bool

	MkfsErr, CheckErr, RepairErr, SetLabelErr, SetUUIDErr, ResizeErr, InfoErr error
	CheckResult                                                              CheckResult

	LastMkfsDevice, LastResizeTarget, LastLabelTarget, LastInfoTarget string
}

func NewFake(family Family) *FakeBackend {
	return &FakeBackend{family: family, Avail: true}
}

func (f *FakeBackend) Family() Family { return f.family }

func (f *FakeBackend) IsTechAvail(ctx context.Context, mode Mode) (bool, string, error) {
	return f.Avail, f.MissingTool, nil
}

func (f *FakeBackend) Mkfs(ctx context.Context, device string, opts MkfsOptions, extra []runner.ExtraArg) error {
	f.LastMkfsDevice = device
	return f.MkfsErr
}

func (f *FakeBackend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (CheckResult, error) {
	return f.CheckResult, f.CheckErr
}

func (f *FakeBackend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	return f.RepairErr
}

func (f *FakeBackend) SetLabel(ctx context.Context, device, label string) error {
	f.LastLabelTarget = device
	return f.SetLabelErr
}

func (f *FakeBackend) SetUUID(ctx context.Context, device, uuid string) error {
	return f.SetUUIDErr
}

func (f *FakeBackend) GetInfo(ctx context.Context, device string) (FsInfo, error) {
	f.LastInfoTarget = device
	return f.Info, f.InfoErr
}

func (f *FakeBackend) Resize(ctx context.Context, deviceOrMountpoint string, newSize uint64, extra []runner.ExtraArg) error {
	f.LastResizeTarget = deviceOrMountpoint
	return f.ResizeErr
}

func (f *FakeBackend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	return f.MinSize, f.MinSupported, nil
}
