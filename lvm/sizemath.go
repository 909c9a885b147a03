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

// Local LVM size math (spec.md §4.4.5) — no D-Bus round-trip involved,
// mirroring why THIN_CALCS/CALCS are gated as "local, query-only" in
// §4.4.1.
package lvm

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30

	minPeSize = 1 * kib
	maxPeSize = 16 * gib

	minThpoolMetaSize = 4 * mib
	// dmThinMaxMetadataSizeSectors is DM_THIN_MAX_METADATA_SIZE from the
	// kernel's dm-thin headers, in 512-byte sectors.
	dmThinMaxMetadataSizeSectors = 255 * (1 << 20) / 16

	minThpoolChunkSize = 64 * kib
	maxThpoolChunkSize = 1 * gib
)

// IsSupportedPESize reports whether s is a valid LVM physical-extent
// size: a power of two in [1 KiB, 16 GiB] (spec.md §3.3, §4.4.5).
func IsSupportedPESize(s uint64) bool {
	if s < minPeSize || s > maxPeSize {
		return false
	}
	return s&(s-1) == 0
}

// RoundSizeToPE rounds s to the nearest multiple of pe, rounding up when
// up is true and down otherwise. On overflow while rounding up, floors
// instead (spec.md §4.4.5).
func RoundSizeToPE(s, pe uint64, up bool) uint64 {
	if pe == 0 {
		return s
	}
	rem := s % pe
	if rem == 0 {
		return s
	}
	floor := s - rem
	if !up {
		return floor
	}
	ceil := floor + pe
	if ceil < floor {
		// Overflow: fall back to flooring.
		return floor
	}
	return ceil
}

// GetThinPoolPadding computes the metadata-independent padding a thin
// pool's data volume needs on top of its requested size s, per spec.md
// §4.4.5: ceil(s * factor) rounded up to pe, clamped to round(16 GiB).
// factor is 1/6 when the caller says s already includes padding
// (included=true), else 0.2.
func GetThinPoolPadding(s, pe uint64, included bool) uint64 {
	var padding uint64
	if included {
		padding = (s + 5) / 6
	} else {
		padding = uint64(float64(s)*0.2 + 0.999999999)
	}
	padding = RoundSizeToPE(padding, pe, true)
	ceiling := RoundSizeToPE(16*gib, pe, true)
	if padding > ceiling {
		return ceiling
	}
	return padding
}

// GetThinPoolMetaSize computes the recommended thin-pool metadata size
// for a pool of poolSize bytes using chunkSize-byte chunks: 64 *
// poolSize / chunkSize, clamped to [4 MiB, DM_THIN_MAX_METADATA_SIZE *
// 512] (spec.md §3.3, §4.4.5).
func GetThinPoolMetaSize(poolSize, chunkSize uint64) uint64 {
	if chunkSize == 0 {
		return minThpoolMetaSize
	}
	size := 64 * poolSize / chunkSize
	upperBound := dmThinMaxMetadataSizeSectors * sectorSize
	if size < minThpoolMetaSize {
		return minThpoolMetaSize
	}
	if size > upperBound {
		return upperBound
	}
	return size
}

// IsValidThpoolChunkSize reports whether s is a legal thin-pool chunk
// size: in [64 KiB, 1 GiB], and either a power of two (required when
// discard is requested) or a plain multiple of 64 KiB (spec.md §4.4.5).
func IsValidThpoolChunkSize(s uint64, discard bool) bool {
	if s < minThpoolChunkSize || s > maxThpoolChunkSize {
		return false
	}
	isPow2 := s&(s-1) == 0
	if discard {
		return isPow2
	}
	return isPow2 || s%minThpoolChunkSize == 0
}
