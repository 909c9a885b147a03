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

// Package runner is the process-invocation collaborator named in spec.md
// §6.1. Every family specialist and the LVM CLI fallbacks go through a
// Runner rather than calling os/exec directly, so tests can substitute a
// FakeRunner.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/blockdevkit/blockdev/internal/logger"
)

// ExtraArg is a (option, value) pair appended verbatim to a tool
// invocation. An empty Val means "flag-only" (spec.md §6.1).
type ExtraArg struct {
	Opt string
	Val string
}

func (a ExtraArg) args() []string {
	if a.Val == "" {
		return []string{a.Opt}
	}
	return []string{a.Opt, a.Val}
}

// ExtraArgs flattens a slice of ExtraArg into a flat argv suffix.
func ExtraArgs(extra []ExtraArg) []string {
	var out []string
	for _, a := range extra {
		out = append(out, a.args()...)
	}
	return out
}

// LineFilter is invoked once per line of stdout while a progress-reporting
// command runs; it returns the message to forward to the progress reporter
// and whether the line produced a progress update at all.
type LineFilter func(line string) (msg string, percent float64, ok bool)

// Runner is the process-runner contract of spec.md §6.1.
type Runner interface {
	ExecAndReportError(ctx context.Context, args []string, extra []ExtraArg) error
	ExecAndReportStatusError(ctx context.Context, args []string, extra []ExtraArg) (status int, err error)
	ExecAndCaptureOutput(ctx context.Context, args []string, extra []ExtraArg) (stdout string, err error)
	ExecAndReportProgress(ctx context.Context, args []string, extra []ExtraArg, filter LineFilter, onProgress func(percent float64, msg string)) (status int, err error)
	ExecWithInput(ctx context.Context, args []string, input string, extra []ExtraArg) error
}

// execRunner shells out via os/exec. It is the only Runner implementation
// shipped; every family specialist and the LVM CLI fallback takes a Runner
// so tests use a fake instead of forking real binaries.
type execRunner struct {
	callID atomic.Uint64
}

// New returns the default os/exec-backed Runner.
func New() Runner {
	return &execRunner{}
}

func (r *execRunner) stamp(args []string) uint64 {
	id := r.callID.Add(1)
	logger.Debugf("exec[%d]: %s", id, strings.Join(args, " "))
	return id
}

func (r *execRunner) command(ctx context.Context, args []string, extra []ExtraArg) *exec.Cmd {
	full := append(append([]string{}, args...), ExtraArgs(extra)...)
	return exec.CommandContext(ctx, full[0], full[1:]...)
}

func (r *execRunner) ExecAndReportError(ctx context.Context, args []string, extra []ExtraArg) error {
	full := append(append([]string{}, args...), ExtraArgs(extra)...)
	id := r.stamp(full)
	cmd := r.command(ctx, args, extra)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logger.Debugf("exec[%d]: failed: %v", id, err)
		return fmt.Errorf("%s: %w: %s", full[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (r *execRunner) ExecAndReportStatusError(ctx context.Context, args []string, extra []ExtraArg) (int, error) {
	full := append(append([]string{}, args...), ExtraArgs(extra)...)
	id := r.stamp(full)
	cmd := r.command(ctx, args, extra)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	status := exitStatus(cmd, err)
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			logger.Debugf("exec[%d]: failed to start: %v", id, err)
			return status, fmt.Errorf("%s: %w", full[0], err)
		}
	}
	return status, nil
}

func (r *execRunner) ExecAndCaptureOutput(ctx context.Context, args []string, extra []ExtraArg) (string, error) {
	full := append(append([]string{}, args...), ExtraArgs(extra)...)
	id := r.stamp(full)
	cmd := r.command(ctx, args, extra)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logger.Debugf("exec[%d]: failed: %v", id, err)
		return stdout.String(), fmt.Errorf("%s: %w: %s", full[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (r *execRunner) ExecAndReportProgress(ctx context.Context, args []string, extra []ExtraArg, filter LineFilter, onProgress func(percent float64, msg string)) (int, error) {
	full := append(append([]string{}, args...), ExtraArgs(extra)...)
	id := r.stamp(full)
	cmd := r.command(ctx, args, extra)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("%s: stdout pipe: %w", full[0], err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%s: %w", full[0], err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if filter == nil {
			continue
		}
		if msg, pct, ok := filter(line); ok && onProgress != nil {
			onProgress(pct, msg)
		}
	}

	runErr := cmd.Wait()
	status := exitStatus(cmd, runErr)
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			logger.Debugf("exec[%d]: failed to run: %v", id, runErr)
			return status, fmt.Errorf("%s: %w", full[0], runErr)
		}
	}
	return status, nil
}

func (r *execRunner) ExecWithInput(ctx context.Context, args []string, input string, extra []ExtraArg) error {
	full := append(append([]string{}, args...), ExtraArgs(extra)...)
	id := r.stamp(full)
	cmd := r.command(ctx, args, extra)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logger.Debugf("exec[%d]: failed: %v", id, err)
		return fmt.Errorf("%s: %w: %s", full[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func exitStatus(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
