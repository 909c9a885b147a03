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

// CacheStats implements spec.md §4.4.4. The real adapter issues a
// DM_DEVICE_STATUS ioctl against the device-mapper control device; this
// library prefers process invocation over cgo elsewhere (partedit,
// probe), so here it shells out to dmsetup status, which reports the
// identical dm-cache status-line format the ioctl would return.
package lvm

import (
	"context"
	"strconv"
	"strings"

	"github.com/blockdevkit/blockdev/errs"
	"github.com/blockdevkit/blockdev/runner"
)

const sectorSize = 512

// dmName builds the device-mapper name cache_stats targets: "{vg}-{lv}",
// or "{vg}-{data_lv}" when lv is a cache/thin pool's frontend and the
// underlying data LV is what dm-cache actually reports on (spec.md
// §4.4.4).
func dmName(vg, lv, dataLv string) string {
	target := lv
	if dataLv != "" {
		target = dataLv
	}
	return vg + "-" + target
}

// CacheStats runs `dmsetup status` against the vg/lv pair's
// device-mapper name and parses the dm-cache status line. Requires root,
// per spec.md §4.4.4.
func CacheStats(ctx context.Context, r runner.Runner, vg, lv, dataLv string) (CacheStats, error) {
	name := dmName(vg, lv, dataLv)
	out, err := r.ExecAndCaptureOutput(ctx, []string{"dmsetup", "status", name}, nil)
	if err != nil {
		return CacheStats{}, errs.New(errs.NotRoot, "cache-stats", name, "dmsetup status (requires root)", err)
	}
	return parseDmStatusCache(out)
}

// parseDmStatusCache decodes a dm-cache status line. The kernel's format
// is (whitespace-separated):
//
//	<start> <len> cache <metadata blk> <md used>/<md total> <cache blk>
//	<cache used>/<cache total> <rd hits> <rd misses> <wr hits> <wr misses>
//	... <feature count> <feature flags...> ...
func parseDmStatusCache(line string) (CacheStats, error) {
	f := strings.Fields(line)
	if len(f) < 11 || f[2] != "cache" {
		return CacheStats{}, errs.New(errs.CacheNoCache, "cache-stats", "", "not a dm-cache target", nil)
	}

	mdBlockSize := parseUint(f[3]) * sectorSize
	mdUsed, mdTotal := parseFraction(f[4])
	cacheBlockSize := parseUint(f[5]) * sectorSize
	cacheUsed, cacheTotal := parseFraction(f[6])

	stats := CacheStats{
		MdBlockSize: mdBlockSize,
		MdSize:      mdTotal * mdBlockSize,
		MdUsed:      mdUsed * mdBlockSize,
		BlockSize:   cacheBlockSize,
		CacheSize:   cacheTotal * cacheBlockSize,
		CacheUsed:   cacheUsed * cacheBlockSize,
		ReadHits:    parseUint(f[7]),
		ReadMisses:  parseUint(f[8]),
		WriteHits:   parseUint(f[9]),
		WriteMisses: parseUint(f[10]),
	}
	stats.Mode = decodeCacheMode(f)
	return stats, nil
}

// decodeCacheMode scans the feature-flag section for the writethrough or
// writeback markers (spec.md §4.4.4: "cache mode is decoded from feature
// flags ... any other flag combination is CacheInvalid").
func decodeCacheMode(fields []string) CacheMode {
	for _, tok := range fields {
		switch tok {
		case "writethrough":
			return CacheModeWritethrough
		case "writeback":
			return CacheModeWriteback
		}
	}
	return CacheModeInvalid
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

func parseFraction(s string) (used, total uint64) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	return parseUint(parts[0]), parseUint(parts[1])
}
