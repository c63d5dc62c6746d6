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

package demo

import (
	"testing"

	"github.com/zintix-labs/stamprally/engine"
)

func TestDemoRally(t *testing.T) {
	sr, err := New()
	if err != nil {
		t.Fatalf("load demo: %v", err)
	}
	if n := sr.Index().Len(); n != 125 {
		t.Fatalf("demo classification should have 125 codes, got %d", n)
	}
	for _, code := range []string{"416", "422", "910"} {
		info, err := sr.Lookup(code)
		if err != nil {
			t.Fatalf("lookup %s: %v", code, err)
		}
		if want := code == "910"; info.Valid != want {
			t.Fatalf("code %s valid=%v, want %v", code, info.Valid, want)
		}
	}
	set := sr.Setting()
	if set.Name != "ndc-rally" || set.PityTable[len(set.PityTable)-1] != 1 {
		t.Fatalf("unexpected demo setting %+v", set)
	}

	sim, err := sr.NewSimulatorWithSeed(7)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	rep, _, err := sim.Sim(engine.ModeAuto, 200, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if rep.Summary.Spins == 0 || rep.Summary.ValidCodes != 125 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
}
