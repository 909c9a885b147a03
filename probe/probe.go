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

// Package probe is the superblock-prober collaborator of spec.md §4.3 and
// §6.3. The real libblkid is a cgo-only binding; in keeping with the rest
// of this module's preference for process invocation over cgo, Prober's
// shipped implementation drives the blkid(8)/wipefs(8) CLIs through a
// runner.Runner.
package probe

import (
	"context"
	"time"

	"gopkg.in/retry.v1"
)

// Signature is one detected partition/filesystem signature on a device,
// corresponding to the TYPE/USAGE/LABEL/UUID values of spec.md §2 item 4.
type Signature struct {
	Type  string
	Usage string
	Label string
	UUID  string
	// Offset is the byte offset of the signature on the device, needed to
	// wipe one signature at a time (spec.md §4.3 "wipe the first
	// signature").
	Offset uint64
}

// Prober is the superblock-prober contract (spec.md §6.3), narrowed from
// the raw new_probe/set_device/enable_*/do_probe state machine to the two
// operations the rest of this module actually needs: a single safe probe,
// and an enumeration used to drive "wipe all".
type Prober interface {
	// SafeProbe performs one safe-probe pass (ambiguous matches rejected)
	// and returns the first signature found, if any.
	SafeProbe(ctx context.Context, device string) (Signature, bool, error)
	// Signatures lists every signature currently on the device, in
	// on-disk order, so WipeAll can wipe the first and re-probe.
	Signatures(ctx context.Context, device string) ([]Signature, error)
	// WipeSignature erases the signature at offset. dryRun leaves the
	// device untouched and only validates that the offset is wipeable.
	WipeSignature(ctx context.Context, device string, offset uint64, dryRun bool) error
}

// retryStrategy implements spec.md §4.3's "transient probe failures are
// retried up to 5 times at 100 ms intervals", grounded on canonical-snapd's
// use of gopkg.in/retry.v1 for the same shape of flaky-external-call retry.
var retryStrategy retry.Strategy = retry.LimitCount(5, retry.Regular{Delay: 100 * time.Millisecond})

// safeProbeWithRetry runs prober.SafeProbe, retrying transient errors per
// retryStrategy. A clean "no signature found" result (found == false, err
// == nil) is not retried.
func safeProbeWithRetry(ctx context.Context, prober Prober, device string) (Signature, bool, error) {
	var (
		sig   Signature
		found bool
		err   error
	)
	for a := retry.Start(retryStrategy, nil); a.Next(); {
		sig, found, err = prober.SafeProbe(ctx, device)
		if err == nil {
			return sig, found, nil
		}
		if !a.More() {
			break
		}
	}
	return sig, found, err
}
