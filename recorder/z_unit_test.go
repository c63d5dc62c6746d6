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

package recorder

import (
	"testing"

	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/state"
)

func spin(isNew, pity, free bool, cost int, rewards ...state.Reward) *engine.SpinResult {
	delta := 0
	for _, r := range rewards {
		delta += r.Amount
	}
	return &engine.SpinResult{
		Accepted:     true,
		IsNew:        isNew,
		Pity:         pity,
		UsedFreeSpin: free,
		Cost:         cost,
		TicketDelta:  delta,
		Breakdown:    rewards,
	}
}

func TestRecordBasic(t *testing.T) {
	r, err := NewSpinRecorder("r", "auto", 4, 10)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	r.Record(spin(true, false, true, 0, state.Reward{Label: engine.LabelNew, Amount: 1}), 0)
	r.Record(spin(false, false, false, 3, state.Reward{Label: engine.LabelDupe, Amount: 2}), 0)
	r.Record(spin(true, true, false, 3, state.Reward{Label: engine.LabelNew, Amount: 1}, state.Reward{Label: "bonus_x", Amount: 5}), 1)
	r.Record(&engine.SpinResult{Reason: engine.ReasonInsufficient}, 0)

	b := r.Basic
	if b.Spins != 3 || b.New != 2 || b.Dupe != 1 || b.Pity != 1 || b.PityNew != 1 || b.FreeSpins != 1 {
		t.Fatalf("unexpected basic %+v", *b)
	}
	if b.TicketsSpent != 6 || b.TicketsEarned != 9 {
		t.Fatalf("tickets spent=%d earned=%d", b.TicketsSpent, b.TicketsEarned)
	}
	if r.Streak.Hist[0] != 2 || r.Streak.Hist[1] != 1 || r.Streak.Max != 1 {
		t.Fatalf("streak hist %v max %d", r.Streak.Hist, r.Streak.Max)
	}

	rep := r.Done()
	want := []string{engine.LabelNew, engine.LabelDupe, "bonus_x"}
	if len(rep.Bonus.Labels) != len(want) {
		t.Fatalf("labels %v", rep.Bonus.Labels)
	}
	for i, l := range want {
		if rep.Bonus.Labels[i] != l {
			t.Fatalf("label[%d] got %s want %s", i, rep.Bonus.Labels[i], l)
		}
	}
	if rep.Bonus.Counts[0] != 2 || rep.Bonus.Tickets[0] != 2 {
		t.Fatalf("new bonus count=%d tickets=%d", rep.Bonus.Counts[0], rep.Bonus.Tickets[0])
	}
}

func TestRecordWithPlayer(t *testing.T) {
	r, _ := NewSpinRecorder("r", "ticket", 2, 6)
	st := state.New(6)

	st.Stamps[3][0][0] = true
	st.Tickets = 4
	if r.RecordWithPlayer(spin(true, false, false, 3), 0, st) {
		t.Fatalf("not complete yet")
	}
	st.Stamps[3][0][5] = true
	res := spin(true, false, false, 3)
	res.PageCompleted = true
	if !r.RecordWithPlayer(res, 0, st) {
		t.Fatalf("should be complete after second stamp")
	}
	r.NextDay()
	r.RecordBroke()

	rep := r.Done()
	p := rep.Player
	if p.Stamped != 2 || p.CompleteAt != 2 || p.FirstPageAt != 2 || p.PagesCompleted != 1 {
		t.Fatalf("unexpected player %+v", *p)
	}
	if p.Days != 2 || !p.Broke || p.Tickets != 4 || p.Completion != 1 {
		t.Fatalf("unexpected player %+v", *p)
	}
}

func TestMerge(t *testing.T) {
	a, _ := NewSpinRecorder("r", "auto", 4, 10)
	b, _ := NewSpinRecorder("r", "auto", 4, 10)
	a.Record(spin(true, false, false, 3, state.Reward{Label: engine.LabelNew, Amount: 1}), 0)
	b.Record(spin(false, false, false, 3, state.Reward{Label: engine.LabelDupe, Amount: 2}), 5)

	m, err := MergeSpinRecorder([]*SpinRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	rep := m.Done()
	if rep.Summary.Players != 2 || rep.Summary.Spins != 2 {
		t.Fatalf("players=%d spins=%d", rep.Summary.Players, rep.Summary.Spins)
	}
	if rep.Player != nil {
		t.Fatalf("merged report should not carry a player")
	}
	if rep.Streak.MaxStreak != 5 || rep.Streak.Hist[5] != 1 {
		t.Fatalf("streak %+v", *rep.Streak)
	}

	c, _ := NewSpinRecorder("r", "ticket", 4, 10)
	if _, err := MergeSpinRecorder([]*SpinRecorder{a, c}); err == nil {
		t.Fatalf("mode mismatch should fail")
	}
	if _, err := MergeSpinRecorder(nil); err == nil {
		t.Fatalf("empty merge should fail")
	}
}
