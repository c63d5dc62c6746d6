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

// Package engine 是集章拉力的抽選/獎勵引擎。
//
// 所有決策函式都是同步、無隱藏全域狀態的：輸入為存檔、分類索引、設定與注入的亂數源。
// 呼叫端（Session）負責重入保護與存檔；引擎本身不做 I/O。
package engine

import (
	"github.com/zintix-labs/stamprally/classify"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/setting"
	"github.com/zintix-labs/stamprally/state"
)

// Rand 引擎需要的亂數能力；*core.Core 即滿足。
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// Engine 綁定一份設定與分類索引，可被多個 Session 共用（唯讀）。
type Engine struct {
	set *setting.RallySetting
	ix  *classify.Index
}

func New(set *setting.RallySetting, ix *classify.Index) (*Engine, error) {
	if set == nil {
		return nil, errs.NewFatal("engine: setting is nil")
	}
	if ix == nil || ix.Len() == 0 {
		return nil, errs.NewFatal("engine: classification index is empty")
	}
	return &Engine{set: set, ix: ix}, nil
}

func (e *Engine) Setting() *setting.RallySetting { return e.set }

func (e *Engine) Index() *classify.Index { return e.ix }

// NewState 依設定建立新存檔。
func (e *Engine) NewState() *state.GameState {
	return state.New(e.set.StartTickets)
}

// SpinResult 一次抽選的結果。Accepted 為 false 時其餘欄位無意義，存檔也未被變更。
type SpinResult struct {
	Accepted      bool           `json:"accepted"`
	Reason        string         `json:"reason,omitempty"`
	Mode          Mode           `json:"mode"`
	UsedFreeSpin  bool           `json:"usedFreeSpin"`
	Cost          int            `json:"cost"`
	Pity          bool           `json:"pity"`
	Code          string         `json:"code"`
	X             int            `json:"x"`
	Y             int            `json:"y"`
	Z             int            `json:"z"`
	Label         string         `json:"label"`
	IsNew         bool           `json:"isNew"`
	RowCompleted  bool           `json:"rowCompleted"`
	PageCompleted bool           `json:"pageCompleted"`
	TicketDelta   int            `json:"ticketDelta"`
	Breakdown     []state.Reward `json:"breakdown"`
}

// 拒絕原因
const (
	ReasonInsufficient = "insufficient"
	ReasonBusy         = "busy"
)

// Spin 完整的一次抽選：
// 可否支付 → 扣費 → 救濟判定 → 選碼 → 更新頁面/最後結果 → 蓋章與獎勵 → 連續重複 → 統計 → 結果摘要 → 歷程。
func (e *Engine) Spin(rng Rand, st *state.GameState, mode Mode) SpinResult {
	res := SpinResult{Mode: mode}
	if !CanSpinMode(st, e.set, mode) {
		res.Reason = ReasonInsufficient
		return res
	}
	res.Accepted = true
	res.UsedFreeSpin, res.Cost = ConsumeSpinMode(st, e.set, mode)

	res.Pity = ShouldTriggerPity(rng, st, e.set.PityTable, e.ix)
	var t classify.Triple
	if res.Pity {
		t = RollNewGuaranteed(rng, st, e.ix, st.LastResultCode, e.set.NearestPool)
	} else {
		t = RollRandomValid(rng, e.ix)
	}
	st.CurrentPage = t.X
	st.LastResultCode = t.Code()

	ap := ApplyStampAndRewards(st, e.ix, t, e.set.Rewards)
	UpdateDupeStreak(st, ap.IsNew)
	RecordStats(st, ap.IsNew)

	isNew := ap.IsNew
	st.LastOutcome = state.Outcome{IsNew: &isNew, TicketDelta: ap.TicketDelta, Breakdown: ap.Breakdown}
	st.AppendHistory(e.set.HistoryLimit)

	res.Code, res.X, res.Y, res.Z = t.Code(), t.X, t.Y, t.Z
	res.Label, _ = e.ix.Label(res.Code)
	res.IsNew = ap.IsNew
	res.RowCompleted = ap.RowCompleted
	res.PageCompleted = ap.PageCompleted
	res.TicketDelta = ap.TicketDelta
	res.Breakdown = append([]state.Reward{}, ap.Breakdown...)
	return res
}

// SetCurrentPage 切換目前頁面（0..9）。
func SetCurrentPage(st *state.GameState, page int) error {
	if page < 0 || page >= state.Pages {
		return errs.Warnf("page %d out of range 0..%d", page, state.Pages-1)
	}
	st.CurrentPage = page
	return nil
}

// UpdateDupeStreak 新章歸零；重複則加一並夾在 MaxStreak。
func UpdateDupeStreak(st *state.GameState, isNew bool) {
	if isNew {
		st.DupeStreak = 0
		return
	}
	st.DupeStreak = min(state.MaxStreak, st.DupeStreak+1)
}

// RecordStats 累計抽選統計。
func RecordStats(st *state.GameState, isNew bool) {
	st.Stats.TotalSpins++
	if isNew {
		st.Stats.TotalNew++
	} else {
		st.Stats.TotalDupe++
	}
}
