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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedPESize_BoundsAndPowerOfTwo(t *testing.T) {
	assert.True(t, IsSupportedPESize(minPeSize))
	assert.True(t, IsSupportedPESize(maxPeSize))
	assert.True(t, IsSupportedPESize(4*mib))
	assert.False(t, IsSupportedPESize(minPeSize-1))
	assert.False(t, IsSupportedPESize(maxPeSize+1))
	assert.False(t, IsSupportedPESize(3*mib))
}

func TestRoundSizeToPE_RoundsUpOrDown(t *testing.T) {
	assert.Equal(t, uint64(4*mib), RoundSizeToPE(4*mib, 4*mib, true))
	assert.Equal(t, uint64(8*mib), RoundSizeToPE(4*mib+1, 4*mib, true))
	assert.Equal(t, uint64(4*mib), RoundSizeToPE(4*mib+1, 4*mib, false))
	assert.Equal(t, uint64(0), RoundSizeToPE(0, 4*mib, true))
}

func TestRoundSizeToPE_ZeroPEIsNoop(t *testing.T) {
	assert.Equal(t, uint64(12345), RoundSizeToPE(12345, 0, true))
}

func TestGetThinPoolPadding_IncludedUsesOneSixth(t *testing.T) {
	got := GetThinPoolPadding(60*mib, 4*mib, true)
	assert.Equal(t, uint64(12*mib), got)
}

func TestGetThinPoolPadding_NotIncludedUsesOneFifth(t *testing.T) {
	got := GetThinPoolPadding(60*mib, 4*mib, false)
	assert.Equal(t, uint64(12*mib), got)
}

func TestGetThinPoolPadding_ClampsToSixteenGiB(t *testing.T) {
	got := GetThinPoolPadding(1000*gib, 4*mib, true)
	assert.Equal(t, uint64(16*gib), got)
}

func TestGetThinPoolMetaSize_ClampsToMinAndMax(t *testing.T) {
	small := GetThinPoolMetaSize(1*mib, 4*mib)
	assert.Equal(t, uint64(minThpoolMetaSize), small)

	huge := GetThinPoolMetaSize(1<<44, 64*kib)
	assert.Equal(t, uint64(dmThinMaxMetadataSizeSectors*sectorSize), huge)
}

func TestGetThinPoolMetaSize_ZeroChunkSizeIsMinimum(t *testing.T) {
	assert.Equal(t, uint64(minThpoolMetaSize), GetThinPoolMetaSize(1*gib, 0))
}

func TestIsValidThpoolChunkSize_PowerOfTwoAlwaysValid(t *testing.T) {
	assert.True(t, IsValidThpoolChunkSize(minThpoolChunkSize, true))
	assert.True(t, IsValidThpoolChunkSize(maxThpoolChunkSize, true))
	assert.True(t, IsValidThpoolChunkSize(128*kib, false))
}

func TestIsValidThpoolChunkSize_NonPowerOfTwoRejectedWhenDiscardRequested(t *testing.T) {
	assert.False(t, IsValidThpoolChunkSize(192*kib, true))
	assert.True(t, IsValidThpoolChunkSize(192*kib, false))
}

func TestIsValidThpoolChunkSize_OutOfBounds(t *testing.T) {
	assert.False(t, IsValidThpoolChunkSize(minThpoolChunkSize-1, false))
	assert.False(t, IsValidThpoolChunkSize(maxThpoolChunkSize+1, false))
}
