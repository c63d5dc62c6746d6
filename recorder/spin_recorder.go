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
	"slices"

	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/state"
	"github.com/zintix-labs/stamprally/stats"
)

// SpinRecorder 抽選紀錄員
//
// SpinRecorder 逐轉累計整數計數，並透過 Done 輸出統計報表
type SpinRecorder struct {
	RallyName    string
	Mode         string
	ValidCodes   int
	StartTickets int
	players      int
	Basic        *BasicRecord
	Streak       *StreakRecord
	Bonus        *BonusRecord
	Player       *PlayerRecord
}

// BasicRecord 基本抽選資料紀錄
type BasicRecord struct {
	Spins         int
	New           int
	Dupe          int
	Pity          int
	PityNew       int
	FreeSpins     int
	TicketsSpent  int
	TicketsEarned int
}

// StreakRecord 抽選當下（抽之前）的連續重複次數分布
type StreakRecord struct {
	Hist [state.MaxStreak + 1]int
	Max  int
}

// BonusRecord 各標籤的發放次數與書籤券
type BonusRecord struct {
	Counts  map[string]int
	Tickets map[string]int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	Tickets        int
	Stamped        int
	PagesCompleted int
	FirstPageAt    int
	CompleteAt     int
	Days           int
	Completed      bool
	Broke          bool
}

func NewSpinRecorder(name string, mode string, validCodes int, startTickets int) (*SpinRecorder, error) {
	if validCodes <= 0 {
		return nil, errs.Fatalf("valid codes must be positive, got: %d", validCodes)
	}
	if startTickets < 0 {
		return nil, errs.Fatalf("start tickets must not negative integer, got: %d", startTickets)
	}
	return &SpinRecorder{
		RallyName:    name,
		Mode:         mode,
		ValidCodes:   validCodes,
		StartTickets: startTickets,
		players:      1,
		Basic:        new(BasicRecord),
		Streak:       new(StreakRecord),
		Bonus:        &BonusRecord{Counts: map[string]int{}, Tickets: map[string]int{}},
		Player:       &PlayerRecord{Tickets: startTickets, Days: 1},
	}, nil
}

// MergeSpinRecorder 合併多位玩家的紀錄；合併結果不帶單一玩家資訊。
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty input")
	}
	r0 := r[0]
	s, err := NewSpinRecorder(r0.RallyName, r0.Mode, r0.ValidCodes, r0.StartTickets)
	if err != nil {
		return nil, err
	}
	s.players = 0
	s.Player = nil
	for _, v := range r {
		if v.RallyName != r0.RallyName {
			return nil, errs.NewFatal("merge spin record err : different rally name")
		}
		if v.Mode != r0.Mode {
			return nil, errs.NewFatal("merge spin record err : different mode")
		}
		if v.ValidCodes != r0.ValidCodes {
			return nil, errs.NewFatal("merge spin record err : different valid codes")
		}
		s.players += v.players
		s.Basic.Spins += v.Basic.Spins
		s.Basic.New += v.Basic.New
		s.Basic.Dupe += v.Basic.Dupe
		s.Basic.Pity += v.Basic.Pity
		s.Basic.PityNew += v.Basic.PityNew
		s.Basic.FreeSpins += v.Basic.FreeSpins
		s.Basic.TicketsSpent += v.Basic.TicketsSpent
		s.Basic.TicketsEarned += v.Basic.TicketsEarned

		for i, c := range v.Streak.Hist {
			s.Streak.Hist[i] += c
		}
		s.Streak.Max = max(s.Streak.Max, v.Streak.Max)

		for k, c := range v.Bonus.Counts {
			s.Bonus.Counts[k] += c
		}
		for k, c := range v.Bonus.Tickets {
			s.Bonus.Tickets[k] += c
		}
	}
	return s, nil
}

// Record 以單次 SpinResult 更新基本統計；被拒絕的抽選不計。
func (s *SpinRecorder) Record(res *engine.SpinResult, streakBefore int) {
	if !res.Accepted {
		return
	}
	b := s.Basic
	b.Spins++
	if res.IsNew {
		b.New++
	} else {
		b.Dupe++
	}
	if res.Pity {
		b.Pity++
		if res.IsNew {
			b.PityNew++
		}
	}
	if res.UsedFreeSpin {
		b.FreeSpins++
	}
	b.TicketsSpent += res.Cost

	streakBefore = max(0, min(streakBefore, state.MaxStreak))
	s.Streak.Hist[streakBefore]++
	s.Streak.Max = max(s.Streak.Max, streakBefore)

	for _, rw := range res.Breakdown {
		s.Bonus.Counts[rw.Label]++
		s.Bonus.Tickets[rw.Label] += rw.Amount
		b.TicketsEarned += rw.Amount
	}
}

// RecordWithPlayer 在 Record 的基礎上更新玩家進度，並回傳是否已集滿。
func (s *SpinRecorder) RecordWithPlayer(res *engine.SpinResult, streakBefore int, st *state.GameState) bool {
	s.Record(res, streakBefore)
	p := s.Player
	if p == nil || st == nil {
		return false
	}
	p.Tickets = st.Tickets
	p.Stamped = st.StampedCount()
	if res.Accepted && res.PageCompleted {
		p.PagesCompleted++
		if p.FirstPageAt == 0 {
			p.FirstPageAt = s.Basic.Spins
		}
	}
	if !p.Completed && p.Stamped >= s.ValidCodes {
		p.Completed = true
		p.CompleteAt = s.Basic.Spins
	}
	return p.Completed
}

// NextDay 模擬換日。
func (s *SpinRecorder) NextDay() {
	if s.Player != nil {
		s.Player.Days++
	}
}

// RecordBroke 玩家付不起下一轉而離場。
func (s *SpinRecorder) RecordBroke() {
	if s.Player != nil {
		s.Player.Broke = true
	}
}

func (s *SpinRecorder) Done() *stats.RallyReport {
	report := &stats.RallyReport{
		Summary: &stats.SummaryReport{
			RallyName:     s.RallyName,
			Mode:          s.Mode,
			ValidCodes:    s.ValidCodes,
			Players:       s.players,
			Spins:         s.Basic.Spins,
			NewStamps:     s.Basic.New,
			DupeStamps:    s.Basic.Dupe,
			PityTriggers:  s.Basic.Pity,
			PityNew:       s.Basic.PityNew,
			FreeSpins:     s.Basic.FreeSpins,
			TicketsSpent:  s.Basic.TicketsSpent,
			TicketsEarned: s.Basic.TicketsEarned,
		},
		Streak: &stats.StreakReport{
			Hist:      s.Streak.Hist[:],
			MaxStreak: s.Streak.Max,
		},
		Bonus: s.bonusReport(),
	}
	if p := s.Player; p != nil {
		report.Player = &stats.PlayerReport{
			StartTickets:   s.StartTickets,
			Tickets:        p.Tickets,
			Stamped:        p.Stamped,
			PagesCompleted: p.PagesCompleted,
			FirstPageAt:    p.FirstPageAt,
			CompleteAt:     p.CompleteAt,
			Days:           p.Days,
			Completed:      p.Completed,
			Broke:          p.Broke,
		}
	}
	report.Done()
	return report
}

// bonusReport 依引擎發放順序排列標籤，未知標籤依字母序排在後面。
func (s *SpinRecorder) bonusReport() *stats.BonusReport {
	rep := &stats.BonusReport{}
	seen := make(map[string]bool, len(engine.Labels))
	for _, l := range engine.Labels {
		seen[l] = true
		if c, ok := s.Bonus.Counts[l]; ok {
			rep.Labels = append(rep.Labels, l)
			rep.Counts = append(rep.Counts, c)
			rep.Tickets = append(rep.Tickets, s.Bonus.Tickets[l])
		}
	}
	extra := make([]string, 0)
	for l := range s.Bonus.Counts {
		if !seen[l] {
			extra = append(extra, l)
		}
	}
	slices.Sort(extra)
	for _, l := range extra {
		rep.Labels = append(rep.Labels, l)
		rep.Counts = append(rep.Counts, s.Bonus.Counts[l])
		rep.Tickets = append(rep.Tickets, s.Bonus.Tickets[l])
	}
	return rep
}
