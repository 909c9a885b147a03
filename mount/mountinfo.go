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

package mount

import (
	"bufio"
	"os"
	"strings"
)

// parseProcMountinfo parses /proc/self/mountinfo, whose format is:
//
//	36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw,errors=continue
//
// Fields up to "-" vary in count (optional fields); after "-" come
// fstype, source, super options. We only need target (field 5), fstype
// and source (the two fields right after the "-" separator), and mount
// options (field 6, the first set after target).
func parseProcMountinfo() ([]Entry, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		e, ok := parseMountinfoLine(scanner.Text())
		if ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseMountinfoLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 7 {
		return Entry{}, false
	}
	target := fields[4]
	options := fields[5]

	sepIdx := -1
	for i, f := range fields {
		if f == "-" {
			sepIdx = i
			break
		}
	}
	if sepIdx == -1 || sepIdx+3 >= len(fields) {
		return Entry{}, false
	}

	return Entry{
		Target:  target,
		Options: options,
		FSType:  fields[sepIdx+1],
		Source:  fields[sepIdx+2],
	}, true
}
