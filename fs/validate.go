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

package fs

import (
	"strings"

	"github.com/google/uuid"
)

// labelRule and uuidRule implement one family row of the check_label /
// check_uuid table in spec.md §4.1.
type labelRule func(label string) bool
type uuidRule func(id string) bool

var defaultLabelRule = maxLenNoNewline(255)
var defaultUUIDRule = isRFC4122

var labelRules = map[Family]labelRule{
	Ext2: maxLen(16), Ext3: maxLen(16), Ext4: maxLen(16),
	XFS:      noSpacesMaxLen(12),
	Btrfs:    maxLenNoNewline(256),
	NTFS:     maxLen(128),
	UDF:      udfVolumeIDRule,
	Nilfs2:   maxLen(80),
	Reiserfs: maxLen(16),
	Bcachefs: defaultLabelRule,
}

var uuidRules = map[Family]uuidRule{
	Ext2: isRFC4122, Ext3: isRFC4122, Ext4: isRFC4122,
	XFS:      isRFC4122,
	Btrfs:    isRFC4122,
	NTFS:     isHexLen(8, 16),
	UDF:      isLowerHexLen(16),
	Nilfs2:   isRFC4122,
	Reiserfs: isRFC4122,
	Bcachefs: isRFC4122,
}

// CheckLabel validates label against family's rule (spec.md §4.1
// check_label). Families absent from the table use the permissive
// default, matching bcachefs's explicit "family default".
func CheckLabel(family Family, label string) bool {
	rule, ok := labelRules[family]
	if !ok {
		rule = defaultLabelRule
	}
	return rule(label)
}

// CheckUUID validates id against family's rule (spec.md §4.1 check_uuid).
func CheckUUID(family Family, id string) bool {
	rule, ok := uuidRules[family]
	if !ok {
		rule = defaultUUIDRule
	}
	return rule(id)
}

func maxLen(n int) labelRule {
	return func(s string) bool { return len(s) <= n }
}

func maxLenNoNewline(n int) labelRule {
	return func(s string) bool { return len(s) <= n && !strings.ContainsRune(s, '\n') }
}

func noSpacesMaxLen(n int) labelRule {
	return func(s string) bool { return len(s) <= n && !strings.ContainsRune(s, ' ') }
}

// udfVolumeIDRule implements spec.md §4.2.7's udf Volume ID rule: at most
// 126 runes if every character is <= U+00FF, or at most 63 runes if any
// character is above U+00FF.
func udfVolumeIDRule(label string) bool {
	hasWide := false
	n := 0
	for _, r := range label {
		n++
		if r > 0xFF {
			hasWide = true
		}
	}
	if hasWide {
		return n <= 63
	}
	return n <= 126
}

func isRFC4122(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isHexLen(lens ...int) uuidRule {
	return func(id string) bool {
		for _, l := range lens {
			if len(id) == l && isHex(id) {
				return true
			}
		}
		return false
	}
}

func isLowerHexLen(l int) uuidRule {
	return func(id string) bool {
		if len(id) != l {
			return false
		}
		return id == strings.ToLower(id) && isHex(id)
	}
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}
