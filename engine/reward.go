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

package engine

import (
	"github.com/zintix-labs/stamprally/classify"
	"github.com/zintix-labs/stamprally/setting"
	"github.com/zintix-labs/stamprally/state"
)

// 獎勵明細標籤，前端依此顯示提示。
const (
	LabelNew          = "new"
	LabelDupe         = "dupe"
	LabelRowComplete  = "row_complete"
	LabelPageComplete = "page_complete"
	LabelTriple       = "triple"
	LabelStraight     = "straight"
	LabelSandwich     = "sandwich"
	LabelZeroTail     = "zero_tail"
)

// Labels 依發放順序列出所有標籤。
var Labels = []string{LabelNew, LabelDupe, LabelRowComplete, LabelPageComplete, LabelTriple, LabelStraight, LabelSandwich, LabelZeroTail}

// Applied 蓋章與獎勵計算的結果。
type Applied struct {
	Valid         bool
	IsNew         bool
	PageCompleted bool
	RowCompleted  bool
	TicketDelta   int
	Breakdown     []state.Reward
}

// ApplyStampAndRewards 對結果碼蓋章並計算獎勵，明細順序固定：
//  1. 新章 / 重複
//  2. 整行完成（每行只發一次）
//  3. 整頁完成（每頁只發一次）
//  4. 數字型態：三同、順子、夾心、x00，可同時成立
//
// 金額 <= 0 的項目略過。無效碼走保護路徑：不蓋章、不給獎勵、視同重複。
func ApplyStampAndRewards(st *state.GameState, ix *classify.Index, t classify.Triple, rw setting.Rewards) Applied {
	ap := Applied{Breakdown: []state.Reward{}}
	if !ix.IsValidCell(t.X, t.Y, t.Z) {
		return ap
	}
	ap.Valid = true
	ap.IsNew = !st.Stamps[t.X][t.Y][t.Z]
	if ap.IsNew {
		st.Stamps[t.X][t.Y][t.Z] = true
	}

	add := func(label string, amount int) {
		if amount <= 0 {
			return
		}
		ap.Breakdown = append(ap.Breakdown, state.Reward{Label: label, Amount: amount})
		ap.TicketDelta += amount
	}

	if ap.IsNew {
		add(LabelNew, rw.New)
	} else {
		add(LabelDupe, rw.Dupe)
	}

	if !st.RowRewarded[t.X][t.Y] && st.RowComplete(ix, t.X, t.Y) {
		st.RowRewarded[t.X][t.Y] = true
		ap.RowCompleted = true
		add(LabelRowComplete, rw.RowComplete)
	}
	if !st.PageRewarded[t.X] && st.PageComplete(ix, t.X) {
		st.PageRewarded[t.X] = true
		ap.PageCompleted = true
		add(LabelPageComplete, rw.PageComplete)
	}

	for _, p := range Patterns(t) {
		switch p {
		case LabelTriple:
			add(p, rw.Triple)
		case LabelStraight:
			add(p, rw.Straight)
		case LabelSandwich:
			add(p, rw.Sandwich)
		case LabelZeroTail:
			add(p, rw.ZeroTail)
		}
	}

	st.AddTickets(ap.TicketDelta)
	return ap
}

// Patterns 回傳 t 成立的數字型態標籤（依明細順序）。
// 夾心要求 x != y，因此與三同互斥；000 只會得到三同與 x00。
func Patterns(t classify.Triple) []string {
	var out []string
	if t.X == t.Y && t.Y == t.Z {
		out = append(out, LabelTriple)
	}
	if t.Y == t.X+1 && t.Z == t.Y+1 {
		out = append(out, LabelStraight)
	}
	if t.X == t.Z && t.X != t.Y {
		out = append(out, LabelSandwich)
	}
	if t.Y == 0 && t.Z == 0 {
		out = append(out, LabelZeroTail)
	}
	return out
}
