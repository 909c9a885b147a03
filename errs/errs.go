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

// Package errs defines the stable error taxonomy of spec.md §6.7, shared by
// fs, probe, mount and lvm so callers can branch on errors.Is/errors.As
// instead of string-matching messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the stable error kinds named in spec.md §6.7.
type Kind string

const (
	Invalid          Kind = "Invalid"
	Parse            Kind = "Parse"
	Fail             Kind = "Fail"
	NoFilesystem     Kind = "NoFilesystem"
	Pipe             Kind = "Pipe"
	UnmountFail      Kind = "UnmountFail"
	NotSupported     Kind = "NotSupported"
	NotMounted       Kind = "NotMounted"
	Auth             Kind = "Auth"
	TechUnavail      Kind = "TechUnavail"
	LabelInvalid     Kind = "LabelInvalid"
	UuidInvalid      Kind = "UuidInvalid"
	NoExist          Kind = "NoExist"
	CacheInvalid     Kind = "CacheInvalid"
	CacheNoCache     Kind = "CacheNoCache"
	VDOPolicyInvalid Kind = "VDOPolicyInvalid"
	NotRoot          Kind = "NotRoot"
	DMError          Kind = "DMError"
	DevicesDisabled  Kind = "DevicesDisabled"
)

// Error implements the error interface for Kind itself, so a bare Kind can
// be used as an errors.Is sentinel: errors.Is(err, errs.NotMounted).
func (k Kind) Error() string { return string(k) }

// Error carries a stable Kind plus the device and operation the failure
// happened under, per spec.md §7: "every error carries a human-readable
// message with the device and the operation names interpolated."
type Error struct {
	Kind   Kind
	Device string
	Op     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	base := fmt.Sprintf("%s: %s", e.Op, e.Device)
	if e.Msg != "" {
		base = fmt.Sprintf("%s: %s", base, e.Msg)
	}
	if e.Err != nil {
		base = fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, errs.Invalid) work by comparing Kind, so callers
// can match on the taxonomy without a type assertion.
func (e *Error) Is(target error) bool {
	var k Kind
	switch t := target.(type) {
	case Kind:
		k = t
	case *Error:
		k = t.Kind
	default:
		return false
	}
	return e.Kind == k
}

// New builds an Error. msg may be empty when the Kind itself is
// self-explanatory (e.g. NoFilesystem).
func New(kind Kind, op, device, msg string, wrapped error) *Error {
	return &Error{Kind: kind, Op: op, Device: device, Msg: msg, Err: wrapped}
}

// Of reports the Kind of err if it (or something it wraps) is an *Error,
// and ok=false otherwise.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
