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

package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blockdevkit/blockdev/runner"
)

// CLIProber is the shipped Prober implementation, backed by blkid(8) for
// probing and wipefs(8) for enumerating/erasing signatures.
type CLIProber struct {
	Runner runner.Runner
}

func NewCLIProber(r runner.Runner) *CLIProber {
	return &CLIProber{Runner: r}
}

// SafeProbe runs `blkid -p -o export <device>`, which performs exactly the
// low-level probe's safe-probe mode (ambiguous signatures reported as
// failures by blkid itself), and parses the KEY=VALUE export format.
func (p *CLIProber) SafeProbe(ctx context.Context, device string) (Signature, bool, error) {
	out, err := p.Runner.ExecAndCaptureOutput(ctx, []string{"blkid", "-p", "-o", "export", device}, nil)
	if err != nil {
		if out == "" {
			// blkid exits 2 with no output when it finds nothing to report.
			return Signature{}, false, nil
		}
		return Signature{}, false, fmt.Errorf("blkid probe %s: %w", device, err)
	}

	fields := parseExport(out)
	if len(fields) == 0 {
		return Signature{}, false, nil
	}

	return Signature{
		Type:  fields["TYPE"],
		Usage: fields["USAGE"],
		Label: fields["LABEL"],
		UUID:  fields["UUID"],
	}, true, nil
}

func parseExport(out string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[k] = v
	}
	return fields
}

// wipefsSignature mirrors one element of `wipefs -J`'s "signatures" array.
type wipefsSignature struct {
	Offset string `json:"offset"`
	UUID   string `json:"uuid"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

type wipefsOutput struct {
	Signatures []wipefsSignature `json:"signatures"`
}

// Signatures runs `wipefs -J <device>` to list every signature in on-disk
// offset order.
func (p *CLIProber) Signatures(ctx context.Context, device string) ([]Signature, error) {
	out, err := p.Runner.ExecAndCaptureOutput(ctx, []string{"wipefs", "-J", device}, nil)
	if err != nil {
		return nil, fmt.Errorf("wipefs list %s: %w", device, err)
	}

	var parsed wipefsOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("wipefs list %s: %w", device, err)
	}

	sigs := make([]Signature, 0, len(parsed.Signatures))
	for _, s := range parsed.Signatures {
		offset, err := parseOffset(s.Offset)
		if err != nil {
			return nil, fmt.Errorf("wipefs list %s: bad offset %q: %w", device, s.Offset, err)
		}
		sigs = append(sigs, Signature{Type: s.Type, Label: s.Label, UUID: s.UUID, Offset: offset})
	}
	return sigs, nil
}

func parseOffset(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return strconv.ParseUint(raw[2:], 16, 64)
	}
	return strconv.ParseUint(raw, 10, 64)
}

// WipeSignature erases the signature at offset via `wipefs -o <offset>`
// (or `-n` for a dry run that only validates the offset).
func (p *CLIProber) WipeSignature(ctx context.Context, device string, offset uint64, dryRun bool) error {
	args := []string{"wipefs", "-o", fmt.Sprintf("0x%x", offset)}
	if dryRun {
		args = append(args, "-n")
	}
	args = append(args, device)
	if err := p.Runner.ExecAndReportError(ctx, args, nil); err != nil {
		return fmt.Errorf("wipefs -o 0x%x %s: %w", offset, device, err)
	}
	return nil
}
