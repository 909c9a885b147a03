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

import "context"

// FakeProber is an in-memory Prober for fs and probe tests.
type FakeProber struct {
	// Sigs is mutated as WipeSignature removes entries, so repeated
	// SafeProbe/Signatures calls observe the wipe.
	Sigs []Signature

	ProbeErrsBeforeSuccess int
	probeAttempts          int

	WipeErr error
}

func NewFake(sigs ...Signature) *FakeProber {
	return &FakeProber{Sigs: sigs}
}

func (f *FakeProber) SafeProbe(ctx context.Context, device string) (Signature, bool, error) {
	f.probeAttempts++
	if f.probeAttempts <= f.ProbeErrsBeforeSuccess {
		return Signature{}, false, errTransient
	}
	if len(f.Sigs) == 0 {
		return Signature{}, false, nil
	}
	return f.Sigs[0], true, nil
}

func (f *FakeProber) Signatures(ctx context.Context, device string) ([]Signature, error) {
	return append([]Signature{}, f.Sigs...), nil
}

func (f *FakeProber) WipeSignature(ctx context.Context, device string, offset uint64, dryRun bool) error {
	if f.WipeErr != nil {
		return f.WipeErr
	}
	if dryRun {
		return nil
	}
	for i, s := range f.Sigs {
		if s.Offset == offset {
			f.Sigs = append(f.Sigs[:i], f.Sigs[i+1:]...)
			return nil
		}
	}
	return nil
}

type transientErr struct{}

func (transientErr) Error() string { return "transient probe failure" }

var errTransient = transientErr{}
