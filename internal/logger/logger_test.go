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

package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureInit(t *testing.T, severity Severity, format string) *bytes.Buffer {
	t.Helper()
	Init(severity, format)
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return buf
}

func TestSeverityGating_OnlyAtOrAboveLevelLogs(t *testing.T) {
	buf := captureInit(t, WARNING, "text")

	Infof("info line")
	Warnf("warn line")
	Errorf("error line")

	out := buf.String()
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestJSONFormat_ProducesOneJSONObjectPerLine(t *testing.T) {
	buf := captureInit(t, TRACE, "json")

	Tracef("hello %s", "world")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"hello world"`)
}

func TestParseSeverity_UnknownDefaultsToInfo(t *testing.T) {
	assert.Equal(t, INFO, ParseSeverity("bogus"))
	assert.Equal(t, TRACE, ParseSeverity("trace"))
	assert.Equal(t, OFF, ParseSeverity("off"))
}

func TestLogTaskStatus_PrefixesTaskID(t *testing.T) {
	buf := captureInit(t, INFO, "text")

	LogTaskStatus(42, "resizing %s", "/dev/sdb1")

	assert.Contains(t, buf.String(), "task 42: resizing /dev/sdb1")
}
