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

package nilfs2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/deps"
	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/probe"
	"github.com/blockdevkit/blockdev/runner"
)

func TestGetInfo_ParsesBlockSizeAndCount(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"nilfs-tune", "-l", "/dev/sdz1"}, runner.Result{Stdout: "" +
		"Block size               : 4096\n" +
		"Number of blocks         : 25000\n",
	})
	p := probe.NewFake(probe.Signature{Label: "data", UUID: "u1"})
	b := New(r, deps.NewRegistry(), p)

	info, err := b.GetInfo(context.Background(), "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, uint64(4096), info.BlockSize)
	assert.Equal(t, uint64(25000), info.BlockCount)
	assert.Equal(t, uint64(4096*25000), info.Size)
}

func TestResize_FeedsConfirmationAndAppendsTarget(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"nilfs-resize", "/mnt/x", "2000"}, runner.Result{})
	b := New(r, deps.NewRegistry(), nil)

	err := b.Resize(context.Background(), "/mnt/x", 2000, nil)

	require.NoError(t, err)
	require.Len(t, r.Calls, 1)
	assert.Equal(t, "y\n", r.Calls[0].Input)
}

func TestCheck_AlwaysTechUnavail(t *testing.T) {
	b := New(runner.NewFake(), deps.NewRegistry(), nil)

	_, err := b.Check(context.Background(), "/dev/sdz1", nil)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.TechUnavail, kind)
}
