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

package partedit

import "context"

// FakeEditor is an in-memory Editor used by fs/vfat tests.
type FakeEditor struct {
	Sectors, SectorSize uint64
	ResizeErr           error
	LastResizeBytes     uint64
}

func NewFake(sectors, sectorSize uint64) *FakeEditor {
	return &FakeEditor{Sectors: sectors, SectorSize: sectorSize}
}

func (f *FakeEditor) DeviceLength(ctx context.Context, device string) (uint64, uint64, error) {
	return f.Sectors, f.SectorSize, nil
}

func (f *FakeEditor) Resize(ctx context.Context, device string, newSizeBytes uint64) error {
	f.LastResizeBytes = newSizeBytes
	return f.ResizeErr
}
