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

package lvm

import (
	"context"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// FakeCall is the canned reply (body and error) for one stubbed
// (path, method) pair; FakeInvocation records the calls themselves.
type FakeCall struct {
	Body []interface{}
	Err  error
}

// FakeBus is an in-memory busConn for lvm tests: results are registered
// per (path, method) pair, mirroring FakeRunner's prefix-stub style in
// runner.FakeRunner but keyed exactly since D-Bus methods are fixed
// strings, not argv prefixes.
type FakeBus struct {
	mu      sync.Mutex
	results map[string]FakeCall
	calls   []FakeInvocation
}

// FakeInvocation is one recorded CallWithContext, for assertions.
type FakeInvocation struct {
	Dest   string
	Path   dbus.ObjectPath
	Method string
	Args   []interface{}
}

func NewFakeBus() *FakeBus {
	return &FakeBus{results: make(map[string]FakeCall)}
}

func key(path dbus.ObjectPath, method string) string {
	return string(path) + "|" + method
}

// Stub registers the reply for calls made against path with the given
// method name.
func (f *FakeBus) Stub(path dbus.ObjectPath, method string, call FakeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[key(path, method)] = call
}

func (f *FakeBus) Invocations() []FakeInvocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeInvocation{}, f.calls...)
}

func (f *FakeBus) Object(dest string, path dbus.ObjectPath) object {
	return &fakeObject{bus: f, dest: dest, path: path}
}

type fakeObject struct {
	bus  *FakeBus
	dest string
	path dbus.ObjectPath
}

func (o *fakeObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	o.bus.mu.Lock()
	o.bus.calls = append(o.bus.calls, FakeInvocation{Dest: o.dest, Path: o.path, Method: method, Args: args})
	// The real GetAll call is addressed via org.freedesktop.DBus.Properties
	// but stubbed per-interface for decode tests; normalize both forms to
	// the same lookup key so tests can stub either spelling.
	lookup := method
	if strings.HasSuffix(method, ".GetAll") {
		lookup = "GetAll"
	}
	result, ok := o.bus.results[key(o.path, lookup)]
	o.bus.mu.Unlock()
	if !ok {
		return &dbus.Call{Err: &dbus.Error{Name: "org.blockdevkit.NotStubbed", Body: []interface{}{method}}}
	}
	return &dbus.Call{Body: result.Body, Err: result.Err}
}
