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

	"github.com/godbus/dbus/v5"
)

// serviceName and objectPrefix are the D-Bus identifiers of spec.md §6.5.
const (
	serviceName  = "com.redhat.lvmdbus1"
	objectPrefix = "/com/redhat/lvmdbus1"
)

// object is the subset of dbus.BusObject the adapter needs: a single
// round-trip method call. dbus.BusObject already implements it, so
// *dbus.Conn's real Object() return value satisfies it unchanged.
type object interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// busConn is the connection-level seam, implemented by realBus for
// production and by fakeBus in tests.
type busConn interface {
	Object(dest string, path dbus.ObjectPath) object
}

// realBus wraps a live *dbus.Conn. Wrapping (rather than using *dbus.Conn
// directly as a busConn) lets Object's return value narrow from
// dbus.BusObject down to our smaller object interface.
type realBus struct {
	conn *dbus.Conn
}

// DialSystemBus connects to the system bus the lvmdbus1 daemon listens
// on (spec.md §6.5).
func DialSystemBus() (busConn, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	return &realBus{conn: conn}, nil
}

func (b *realBus) Object(dest string, path dbus.ObjectPath) object {
	return b.conn.Object(dest, path)
}
