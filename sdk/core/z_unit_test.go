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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.Float64() != c2.Float64() {
		t.Fatalf("Float64 mismatch")
	}
}

func TestIntNBounds(t *testing.T) {
	c := New(Default().New(3))
	if got := c.IntN(0); got != -1 {
		t.Fatalf("IntN(0) should be -1, got %d", got)
	}
	for i := 0; i < 1000; i++ {
		if v := c.IntN(12); v < 0 || v >= 12 {
			t.Fatalf("IntN(12) out of range: %d", v)
		}
		if f := c.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := New(Default().New(42))
	c.Uint64()
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := []uint64{c.Uint64(), c.Uint64(), c.Uint64()}

	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := []uint64{c.Uint64(), c.Uint64(), c.Uint64()}
	if !slices.Equal(want, got) {
		t.Fatalf("restored sequence mismatch: %v vs %v", want, got)
	}

	if err := c.Restore([]byte("garbage")); err == nil {
		t.Fatalf("expected error for garbage snapshot")
	}
	// 失敗的 Restore 不應破壞狀態
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore after failure: %v", err)
	}
	if c.Uint64() != want[0] {
		t.Fatalf("state corrupted by failed restore")
	}
}
