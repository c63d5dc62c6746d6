// Copyright 2025 Zintix Labs
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

package perf

import (
	"errors"
	"testing"
)

func TestParseProfile(t *testing.T) {
	for _, s := range []string{"", "cpu", "heap", "allocs"} {
		if _, err := ParseProfile(s); err != nil {
			t.Fatalf("%q should parse: %v", s, err)
		}
	}
	if _, err := ParseProfile("block"); err == nil {
		t.Fatalf("block should be rejected")
	}
}

func TestRunNonePassesThrough(t *testing.T) {
	boom := errors.New("boom")
	called := false
	err := Run(func() error { called = true; return boom }, ProfileNone)
	if !called || !errors.Is(err, boom) {
		t.Fatalf("exe should run once and its error returned, called=%v err=%v", called, err)
	}
}
