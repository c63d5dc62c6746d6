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

package state

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/zintix-labs/stamprally/classify"
)

func testIndex(t *testing.T) *classify.Index {
	t.Helper()
	ix, err := classify.New([]classify.Record{
		{Code: "300", Label: "社会科学"},
		{Code: "307", Label: "x"},
		{Code: "310", Label: "政治"},
		{Code: "123", Label: "y"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	return ix
}

func TestNewState(t *testing.T) {
	s := New(30)
	if s.Tickets != 30 || s.LastResultCode != "000" || s.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected fresh state: %+v", s)
	}
	if s.LastOutcome.IsNew != nil {
		t.Fatalf("fresh outcome isNew should be nil")
	}
	if New(-5).Tickets != 0 {
		t.Fatalf("negative start tickets should clamp to 0")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := New(12)
	s.Stamps[3][0][7] = true
	s.Stamps[1][2][3] = true
	s.RowRewarded[3][1] = true
	s.PageRewarded[3] = true
	s.DupeStreak = 4
	s.CurrentPage = 3
	s.LastResultCode = "307"
	s.FreeSpinsLeft = 2
	s.FreeSpinsDay = "2026-10-18"
	yes := true
	s.LastOutcome = Outcome{IsNew: &yes, TicketDelta: 57, Breakdown: []Reward{{"新規", 2}, {"ページ制覇", 50}}}
	s.Stats = Stats{TotalSpins: 9, TotalNew: 5, TotalDupe: 4}
	s.History = []HistoryPoint{{Spins: 9, Tickets: 12, Stamps: 2}}

	data, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, rep := Decode(data, 30)
	if rep.Changed() {
		t.Fatalf("round trip should not repair: %+v", rep)
	}
	if !reflect.DeepEqual(s, got) {
		t.Fatalf("round trip mismatch\nwant %+v\ngot  %+v", s, got)
	}
}

func TestDecodeResetsMalformedShapes(t *testing.T) {
	good := func() map[string]any {
		var m map[string]any
		data, _ := Encode(New(5))
		_ = json.Unmarshal(data, &m)
		m["bookmarkTickets"] = 99
		return m
	}
	cases := map[string]func(m map[string]any){
		"stamps short":     func(m map[string]any) { m["stamps"] = []any{[]any{}} },
		"stamps non bool":  func(m map[string]any) { m["stamps"].([]any)[0].([]any)[0].([]any)[0] = 1 },
		"stamps missing":   func(m map[string]any) { delete(m, "stamps") },
		"page flags short": func(m map[string]any) { m["pageRewarded"] = []bool{true} },
		"row flags v4":     func(m map[string]any) { m["rowRewarded"] = []bool{true} },
	}
	for name, mutate := range cases {
		m := good()
		mutate(m)
		data, _ := json.Marshal(m)
		s, rep := Decode(data, 30)
		if !rep.Reset {
			t.Errorf("%s: expected reset", name)
		}
		if s.Tickets != 30 {
			t.Errorf("%s: reset state should carry start tickets, got %d", name, s.Tickets)
		}
	}

	for _, data := range []string{"", "null", "[1,2]", "{broken"} {
		if _, rep := Decode([]byte(data), 30); !rep.Reset {
			t.Errorf("%q: expected reset", data)
		}
	}
}

func TestDecodeMigratesOldSchema(t *testing.T) {
	m := map[string]any{}
	data, _ := Encode(New(0))
	_ = json.Unmarshal(data, &m)
	m["schemaVersion"] = 3
	m["bookmarkTickets"] = 77
	m["rowRewarded"] = "garbage"
	m["lastResultCode"] = "12a"
	data, _ = json.Marshal(m)

	s, rep := Decode(data, 30)
	if rep.Reset || !rep.Migrated || rep.From != 3 {
		t.Fatalf("expected migration without reset, got %+v", rep)
	}
	if s.Tickets != 77 {
		t.Fatalf("migration must not touch tickets, got %d", s.Tickets)
	}
	if s.LastResultCode != "000" {
		t.Fatalf("bad last code should become 000, got %q", s.LastResultCode)
	}
	if s.SchemaVersion != SchemaVersion {
		t.Fatalf("schema not bumped")
	}
}

func TestDecodeClampsNumbers(t *testing.T) {
	m := map[string]any{}
	data, _ := Encode(New(0))
	_ = json.Unmarshal(data, &m)
	m["bookmarkTickets"] = -4
	m["dupeStreak"] = 42
	m["currentPage"] = "12"
	m["freeSpinsLeft"] = 2.9
	m["stats"] = map[string]any{"totalSpins": "8", "totalNew": true}
	data, _ = json.Marshal(m)

	s, _ := Decode(data, 30)
	if s.Tickets != 0 || s.DupeStreak != MaxStreak || s.CurrentPage != 9 || s.FreeSpinsLeft != 2 {
		t.Fatalf("clamp failed: %+v", s)
	}
	if s.Stats.TotalSpins != 8 || s.Stats.TotalNew != 0 {
		t.Fatalf("stats coercion failed: %+v", s.Stats)
	}
}

func TestRefreshDaily(t *testing.T) {
	s := New(0)
	if !s.RefreshDaily("2026-10-18", 10) || s.FreeSpinsLeft != 10 {
		t.Fatalf("first refresh should grant")
	}
	s.FreeSpinsLeft = 3
	if s.RefreshDaily("2026-10-18", 10) || s.FreeSpinsLeft != 3 {
		t.Fatalf("same day must not refill")
	}
	if !s.RefreshDaily("2026-10-19", 10) || s.FreeSpinsLeft != 10 {
		t.Fatalf("new day should refill")
	}
}

func TestAppendHistoryCap(t *testing.T) {
	s := New(0)
	for i := 1; i <= 5; i++ {
		s.Stats.TotalSpins = i
		s.AppendHistory(3)
	}
	if len(s.History) != 3 || s.History[0].Spins != 3 || s.History[2].Spins != 5 {
		t.Fatalf("history cap failed: %+v", s.History)
	}
}

func TestReconcileAndCounts(t *testing.T) {
	ix := testIndex(t)
	s := New(0)
	s.Stamps[9][9][9] = true // 無效格
	s.Stamps[3][0][0] = true
	s.PageRewarded[3] = true   // 3 頁尚未全滿
	s.RowRewarded[3][0] = true // 300 307 只蓋了一個
	if n := s.Reconcile(ix); n != 3 {
		t.Fatalf("expected 3 fixes, got %d", n)
	}
	if s.Stamps[9][9][9] || s.PageRewarded[3] || s.RowRewarded[3][0] {
		t.Fatalf("reconcile left invalid data")
	}

	s.Stamps[3][0][7] = true
	if !s.RowComplete(ix, 3, 0) || s.PageComplete(ix, 3) {
		t.Fatalf("row 30 complete, page 3 not")
	}
	if got := s.PageDisplayFilled(ix, 3); got != 100-3+2 {
		t.Fatalf("page display filled = %d", got)
	}
	if got := s.TotalDisplayFilled(ix); got != 1000-4+2 {
		t.Fatalf("total display filled = %d", got)
	}
	if s.Remaining(ix) != 2 || s.StampedCount() != 2 {
		t.Fatalf("remaining/stamped mismatch")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := New(1)
	yes := true
	s.LastOutcome.IsNew = &yes
	s.History = append(s.History, HistoryPoint{Spins: 1})
	c := s.Clone()
	*c.LastOutcome.IsNew = false
	c.History[0].Spins = 9
	c.Stamps[0][0][0] = true
	if !*s.LastOutcome.IsNew || s.History[0].Spins != 1 || s.Stamps[0][0][0] {
		t.Fatalf("clone shares memory with original")
	}
}
