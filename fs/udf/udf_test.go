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

package udf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/fs"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

func TestTruncateUnits(t *testing.T) {
	assert.Equal(t, "hello", truncateUnits("hello", 30))
	assert.Equal(t, "hel", truncateUnits("hello", 3))
	assert.Equal(t, "", truncateUnits("", 15))
}

func TestCheck_AlwaysTechUnavail(t *testing.T) {
	b := New(runner.NewFake(), deps.NewRegistry(), nil)

	_, err := b.Check(context.Background(), "/dev/sdz1", nil)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.TechUnavail, kind)
}

func TestGetInfo_ParsesLVIDAndVID(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"udfinfo", "/dev/sdz1"}, runner.Result{Stdout: "" +
		"Volume Identifier         : myvol\n" +
		"Logical Volume Identifier : mylvid\n",
	})
	p := probe.NewFake(probe.Signature{Label: "data", UUID: "u1"})
	b := New(r, deps.NewRegistry(), p)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, "mylvid", info.LVID)
	assert.Equal(t, "myvol", info.VID)
}

func TestMkfs_AlwaysPassesFixedFlags(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"mkudffs"}, runner.Result{})
	b := New(r, deps.NewRegistry(), nil)

	_ = b.Mkfs(context.Background(), "/dev/sdz1", fs.MkfsOptions{}, nil)

	require.Len(t, r.Calls, 1)
	joined := strings.Join(r.Calls[0].Args, " ")
	assert.Contains(t, joined, "--utf8")
	assert.Contains(t, joined, "--media-type=hd")
	assert.Contains(t, joined, "--udfrev=0x201")
}
