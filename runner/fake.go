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

package runner

import (
	"context"
	"fmt"
	"strings"
)

// Call records one invocation made against a FakeRunner.
type Call struct {
	Args  []string
	Extra []ExtraArg
	Input string
}

// FullArgs returns Args with Extra flattened onto the end, the same argv
// the real execRunner would build.
func (c Call) FullArgs() []string {
	return append(append([]string{}, c.Args...), ExtraArgs(c.Extra)...)
}

// Result is the canned response for one FakeRunner.Stub match.
type Result struct {
	Stdout       string
	Status       int
	Err          error
	ProgressLines []string
}

// FakeRunner is an in-memory Runner used by family-specialist and LVM
// tests. Results are matched by the joined argv prefix (the binary name
// plus leading fixed args), so a test can stub "mke2fs -t ext4" without
// caring about the exact trailing extra args.
type FakeRunner struct {
	Results []Calls
	Calls   []Call
}

// Calls pairs a matcher prefix with the Result to return.
type Calls struct {
	Prefix []string
	Result Result
}

func NewFake() *FakeRunner {
	return &FakeRunner{}
}

// Stub registers a canned result for invocations whose argv starts with
// prefix.
func (f *FakeRunner) Stub(prefix []string, result Result) {
	f.Results = append(f.Results, Calls{Prefix: prefix, Result: result})
}

func (f *FakeRunner) match(full []string) (Result, bool) {
	for i := len(f.Results) - 1; i >= 0; i-- {
		c := f.Results[i]
		if len(c.Prefix) > len(full) {
			continue
		}
		match := true
		for i, p := range c.Prefix {
			if full[i] != p {
				match = false
				break
			}
		}
		if match {
			return c.Result, true
		}
	}
	return Result{}, false
}

func (f *FakeRunner) record(args []string, extra []ExtraArg, input string) []string {
	call := Call{Args: args, Extra: extra, Input: input}
	f.Calls = append(f.Calls, call)
	return call.FullArgs()
}

func (f *FakeRunner) ExecAndReportError(_ context.Context, args []string, extra []ExtraArg) error {
	full := f.record(args, extra, "")
	res, ok := f.match(full)
	if !ok {
		return fmt.Errorf("fake runner: no stub for %q", strings.Join(full, " "))
	}
	return res.Err
}

func (f *FakeRunner) ExecAndReportStatusError(_ context.Context, args []string, extra []ExtraArg) (int, error) {
	full := f.record(args, extra, "")
	res, ok := f.match(full)
	if !ok {
		return -1, fmt.Errorf("fake runner: no stub for %q", strings.Join(full, " "))
	}
	return res.Status, res.Err
}

func (f *FakeRunner) ExecAndCaptureOutput(_ context.Context, args []string, extra []ExtraArg) (string, error) {
	full := f.record(args, extra, "")
	res, ok := f.match(full)
	if !ok {
		return "", fmt.Errorf("fake runner: no stub for %q", strings.Join(full, " "))
	}
	return res.Stdout, res.Err
}

func (f *FakeRunner) ExecAndReportProgress(_ context.Context, args []string, extra []ExtraArg, filter LineFilter, onProgress func(float64, string)) (int, error) {
	full := f.record(args, extra, "")
	res, ok := f.match(full)
	if !ok {
		return -1, fmt.Errorf("fake runner: no stub for %q", strings.Join(full, " "))
	}
	if filter != nil {
		for _, line := range res.ProgressLines {
			if msg, pct, ok := filter(line); ok && onProgress != nil {
				onProgress(pct, msg)
			}
		}
	}
	return res.Status, res.Err
}

func (f *FakeRunner) ExecWithInput(_ context.Context, args []string, input string, extra []ExtraArg) error {
	full := f.record(args, extra, input)
	res, ok := f.match(full)
	if !ok {
		return fmt.Errorf("fake runner: no stub for %q", strings.Join(full, " "))
	}
	return res.Err
}
