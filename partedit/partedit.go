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

// Package partedit is the partition-editor collaborator named in spec.md
// §4.2.3's vfat resize: "open device, init geometry [0, length], open
// file-system, init new geometry [0, new_size/sector_size] (or device
// length if zero), call filesystem resize, close." There is no pure-Go
// libparted binding, so Editor drives parted(8) for geometry and
// fatresize(8) for the actual filesystem resize.
package partedit

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/runner"
)

// Editor is the partition-editor contract used by fs/vfat.
type Editor interface {
	// DeviceLength returns the device's total length in sectors and its
	// logical sector size in bytes ("init geometry [0, length]").
	DeviceLength(ctx context.Context, device string) (sectors uint64, sectorSize uint64, err error)
	// Resize grows or shrinks the filesystem to newSizeBytes ("init new
	// geometry ... call filesystem resize").
	Resize(ctx context.Context, device string, newSizeBytes uint64) error
}

// CLIEditor is the shipped Editor, backed by parted(8) for geometry
// queries and fatresize(8) for the resize itself.
type CLIEditor struct {
	Runner runner.Runner
}

func NewCLIEditor(r runner.Runner) *CLIEditor {
	return &CLIEditor{Runner: r}
}

var (
	diskLine       = regexp.MustCompile(`Disk\s+\S+:\s*(\d+)s`)
	sectorSizeLine = regexp.MustCompile(`Sector size \(logical/physical\):\s*(\d+)B`)
)

func (e *CLIEditor) DeviceLength(ctx context.Context, device string) (uint64, uint64, error) {
	out, err := e.Runner.ExecAndCaptureOutput(ctx, []string{"parted", "-s", device, "unit", "s", "print"}, nil)
	if err != nil {
		return 0, 0, errs.New(errs.Fail, "device-length", device, "parted print", err)
	}
	m := diskLine.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, errs.New(errs.Parse, "device-length", device, "could not parse parted disk size", nil)
	}
	sectors, _ := strconv.ParseUint(m[1], 10, 64)

	sectorSize := uint64(512)
	if sm := sectorSizeLine.FindStringSubmatch(out); sm != nil {
		if v, err := strconv.ParseUint(sm[1], 10, 64); err == nil {
			sectorSize = v
		}
	}
	return sectors, sectorSize, nil
}

func (e *CLIEditor) Resize(ctx context.Context, device string, newSizeBytes uint64) error {
	args := []string{"fatresize", "-s", fmt.Sprintf("%d", newSizeBytes), device}
	if err := e.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "resize", device, "fatresize", err)
	}
	return nil
}
