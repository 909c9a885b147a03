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

// Package ext implements fs.Backend for ext2/ext3/ext4, the family of
// spec.md §4.2.1. A single Backend serves all three variants; the
// variant only changes the -t argument passed to mke2fs.
package ext

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/progress"
	"github.com/blockdevkit/blockdev/runner"
)

// Backend implements fs.Backend for one of Ext2/Ext3/Ext4.
type Backend struct {
	Variant  fs.Family
	Runner   runner.Runner
	Deps     *deps.Registry
	Reporter progress.Reporter
}

func New(variant fs.Family, r runner.Runner, dr *deps.Registry) *Backend {
	return &Backend{Variant: variant, Runner: r, Deps: dr, Reporter: progress.Noop}
}

func (b *Backend) Family() fs.Family { return b.Variant }

var toolsForMode = map[fs.Mode][]string{
	fs.ModeMkfs:       {"mke2fs"},
	fs.ModeCheck:      {"e2fsck"},
	fs.ModeRepair:     {"e2fsck"},
	fs.ModeSetLabel:   {"tune2fs"},
	fs.ModeSetUUID:    {"tune2fs"},
	fs.ModeResize:     {"resize2fs"},
	fs.ModeGetMinSize: {"resize2fs"},
}

func (b *Backend) IsTechAvail(ctx context.Context, mode fs.Mode) (bool, string, error) {
	tools, ok := toolsForMode[mode]
	if !ok {
		return true, "", nil
	}
	for _, name := range tools {
		st := b.Deps.IsAvailable(ctx, deps.Tool{Name: name})
		if !st.Available {
			return false, name, nil
		}
	}
	return true, "", nil
}

func (b *Backend) Mkfs(ctx context.Context, device string, opts fs.MkfsOptions, extra []runner.ExtraArg) error {
	flags := fs.MkfsFlagSet{
		Label:     func(l string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-L", Val: l}} },
		UUID:      func(u string) []runner.ExtraArg { return []runner.ExtraArg{{Opt: "-U", Val: u}} },
		DryRun:    runner.ExtraArg{Opt: "-n"},
		NoDiscard: runner.ExtraArg{Opt: "-E", Val: "nodiscard"},
		Force:     runner.ExtraArg{Opt: "-F"},
	}
	args := fs.BuildMkfsArgs(opts, flags, extra)
	full := append([]string{"mke2fs", "-t", string(b.Variant)}, runner.ExtraArgs(args)...)
	full = append(full, device)
	if err := b.Runner.ExecAndReportError(ctx, full, nil); err != nil {
		return errs.New(errs.Fail, "mkfs", device, "mke2fs", err)
	}
	return nil
}

// e2fsckProgressLine and parseE2fsckLine implement spec.md §4.2.1's "pass
// cur total fs" progress line, producing the documented ((pass-1)*(100/5)) + ((cur*100/total)/5)
// percentage across five hard-coded passes.
var e2fsckProgressLine = regexp.MustCompile(`^(\d+) (\d+) (\d+) (/.*)$`)

func parseE2fsckLine(line string) (string, float64, bool) {
	m := e2fsckProgressLine.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	pass, _ := strconv.Atoi(m[1])
	cur, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	if total == 0 {
		return "", 0, false
	}
	pct := (float64(pass-1) * (100.0 / 5.0)) + ((float64(cur) * 100.0 / float64(total)) / 5.0)
	return m[4], pct, true
}

func (b *Backend) execFsck(ctx context.Context, device string, args []string) (int, error) {
	if !b.Reporter.Initialized() {
		return b.Runner.ExecAndReportStatusError(ctx, args, nil)
	}
	args = append(append([]string{}, args...), "-C", "1")
	id := b.Reporter.Started(fmt.Sprintf("e2fsck %s", device))
	status, err := b.Runner.ExecAndReportProgress(ctx, args, nil, parseE2fsckLine, func(pct float64, msg string) {
		b.Reporter.Progress(id, pct, msg)
	})
	b.Reporter.Finished(id, fmt.Sprintf("exit %d", status))
	return status, err
}

func (b *Backend) Check(ctx context.Context, device string, extra []runner.ExtraArg) (fs.CheckResult, error) {
	args := append([]string{"e2fsck", "-f", "-n", device}, runner.ExtraArgs(extra)...)
	status, err := b.execFsck(ctx, device, args)
	if err != nil {
		return fs.Clean, errs.New(errs.Fail, "check", device, "e2fsck", err)
	}
	switch status {
	case 0:
		return fs.Clean, nil
	case 4:
		return fs.Dirty, nil
	default:
		return fs.Clean, errs.New(errs.Fail, "check", device, fmt.Sprintf("e2fsck exited %d", status), nil)
	}
}

func (b *Backend) Repair(ctx context.Context, device string, extra []runner.ExtraArg) error {
	args := append([]string{"e2fsck", "-f", "-p", device}, runner.ExtraArgs(extra)...)
	status, err := b.execFsck(ctx, device, args)
	if err != nil {
		return errs.New(errs.Fail, "repair", device, "e2fsck", err)
	}
	switch status {
	case 0, 1:
		return nil
	case 2:
		return nil
	case 4:
		return errs.New(errs.Fail, "repair", device, "errors left uncorrected", nil)
	default:
		return errs.New(errs.Fail, "repair", device, fmt.Sprintf("e2fsck exited %d", status), nil)
	}
}

func (b *Backend) SetLabel(ctx context.Context, device, label string) error {
	if err := b.Runner.ExecAndReportError(ctx, []string{"tune2fs", "-L", label, device}, nil); err != nil {
		return errs.New(errs.Fail, "set-label", device, "tune2fs", err)
	}
	return nil
}

func (b *Backend) SetUUID(ctx context.Context, device, id string) error {
	val := id
	if val == "" {
		val = "random"
	}
	if err := b.Runner.ExecAndReportError(ctx, []string{"tune2fs", "-U", val, device}, nil); err != nil {
		return errs.New(errs.Fail, "set-uuid", device, "tune2fs", err)
	}
	return nil
}

const ext2SuperblockOffset = 1024
const ext2SuperblockSize = 1024
const ext2Magic = 0xEF53

func (b *Backend) GetInfo(ctx context.Context, device string) (fs.FsInfo, error) {
	f, err := os.Open(device)
	if err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "open", err)
	}
	defer f.Close()

	buf := make([]byte, ext2SuperblockSize)
	if _, err := f.ReadAt(buf, ext2SuperblockOffset); err != nil {
		return fs.FsInfo{}, errs.New(errs.Fail, "get-info", device, "read superblock", err)
	}

	magic := le16(buf[56:58])
	if magic != ext2Magic {
		return fs.FsInfo{}, errs.New(errs.Invalid, "get-info", device, "not an ext2/3/4 superblock", nil)
	}

	blockCount := uint64(le32(buf[4:8]))
	freeBlocks := uint64(le32(buf[12:16]))
	blockSize := uint64(1024) << le32(buf[24:28])
	state := le16(buf[58:60])

	var uuidArr [16]byte
	copy(uuidArr[:], buf[104:120])
	uuidStr := uuid.UUID(uuidArr).String()

	label := nullTerminated(buf[120:136])

	stateStr := "not clean"
	if state&0x1 != 0 {
		stateStr = "clean"
	}
	if state&0x2 != 0 {
		stateStr += " with errors"
	}

	return fs.FsInfo{
		Label:      label,
		UUID:       uuidStr,
		BlockSize:  blockSize,
		BlockCount: blockCount,
		FreeBlocks: freeBlocks,
		Size:       blockSize * blockCount,
		FreeSpace:  blockSize * freeBlocks,
		State:      stateStr,
	}, nil
}

func (b *Backend) Resize(ctx context.Context, device string, newSize uint64, extra []runner.ExtraArg) error {
	args := []string{"resize2fs", device}
	if newSize != 0 {
		args = append(args, fmt.Sprintf("%ds", newSize/512))
	}
	args = append(args, runner.ExtraArgs(extra)...)
	if err := b.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return errs.New(errs.Fail, "resize", device, "resize2fs", err)
	}
	return nil
}

var minSizeLine = regexp.MustCompile(`Estimated minimum size: (\d+)`)

func (b *Backend) GetMinSize(ctx context.Context, device string) (uint64, bool, error) {
	out, err := b.Runner.ExecAndCaptureOutput(ctx, []string{"resize2fs", "-P", device}, nil)
	if err != nil {
		return 0, false, errs.New(errs.Fail, "get-min-size", device, "resize2fs -P", err)
	}
	m := minSizeLine.FindStringSubmatch(out)
	if m == nil {
		return 0, false, errs.New(errs.Parse, "get-min-size", device, "could not parse resize2fs -P output", nil)
	}
	blocks, _ := strconv.ParseUint(m[1], 10, 64)

	info, err := b.GetInfo(ctx, device)
	if err != nil {
		return 0, false, err
	}
	return blocks * info.BlockSize, true, nil
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func nullTerminated(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
