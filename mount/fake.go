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

package mount

import (
	"context"
	"fmt"
)

// FakeTable is an in-memory Table used by fs tests so mount-on-
// demand logic can be exercised without real mount(2) privileges.
type FakeTable struct {
	Entries    []Entry
	MountErr   error
	UnmountErr error
	MountCalls []Spec
	UnmountCalls []string
}

func NewFake(entries ...Entry) *FakeTable {
	return &FakeTable{Entries: entries}
}

func (f *FakeTable) Mount(ctx context.Context, spec Spec) error {
	f.MountCalls = append(f.MountCalls, spec)
	if f.MountErr != nil {
		return f.MountErr
	}
	f.Entries = append(f.Entries, Entry{Source: spec.Device, Target: spec.Mountpoint, FSType: spec.FSType, Options: spec.Options})
	return nil
}

func (f *FakeTable) Unmount(ctx context.Context, target string, lazy, force bool) error {
	f.UnmountCalls = append(f.UnmountCalls, target)
	if f.UnmountErr != nil {
		return f.UnmountErr
	}
	for i, e := range f.Entries {
		if e.Target == target {
			f.Entries = append(f.Entries[:i], f.Entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("not mounted: %s", target)
}

func (f *FakeTable) Parse(ctx context.Context) ([]Entry, error) {
	return append([]Entry{}, f.Entries...), nil
}

func (f *FakeTable) FindSource(ctx context.Context, target string) (string, bool, error) {
	for _, e := range f.Entries {
		if e.Target == target {
			return e.Source, true, nil
		}
	}
	return "", false, nil
}

func (f *FakeTable) FindTarget(ctx context.Context, device string) (string, bool, error) {
	for _, e := range f.Entries {
		if e.Source == device {
			return e.Target, true, nil
		}
	}
	return "", false, nil
}
