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

// Package common holds small helpers shared by fs, probe, mount and lvm
// that don't warrant their own package.
package common

import (
	"errors"
	"fmt"
)

// Step is one named sub-operation of a multi-step call (e.g. cached-LV
// creation: create data LV, create metadata LV, convert to cache pool,
// attach to origin).
type Step struct {
	Name string
	Run  func() error
}

// RunSteps executes steps in order and stops at the first failure, per
// spec.md §7's "partial progress" policy: no rollback is attempted, and the
// failing step's error is prefixed with its name so the caller can tell how
// far the operation got.
func RunSteps(steps ...Step) error {
	for _, s := range steps {
		if err := s.Run(); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}

// JoinCleanupErrors combines errors encountered while releasing resources
// on an exit path (e.g. probe fd close + fsync, mount context teardown)
// where every release must still be attempted even if an earlier one
// failed.
func JoinCleanupErrors(errs ...error) error {
	return errors.Join(errs...)
}
