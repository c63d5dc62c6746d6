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

// Package state 定義一個玩家的集章存檔（Game State）。
//
// 存檔的 JSON 欄位名稱沿用瀏覽器版存檔（bookmarkTickets、stamps、pageRewarded...），
// 因此舊存檔可直接匯入；讀檔一律經過 Decode 的形狀檢查與修補。
package state

import (
	"encoding/json"

	"github.com/zintix-labs/stamprally/classify"
)

const (
	SchemaVersion = 4 // 目前存檔版本
	MaxStreak     = 7 // 連續重複上限（對應救濟表 0..7）
	Pages         = classify.Digits
	InitialCode   = "000"
)

// Stats 累計統計
type Stats struct {
	TotalSpins int `json:"totalSpins" yaml:"totalSpins"`
	TotalNew   int `json:"totalNew"   yaml:"totalNew"`
	TotalDupe  int `json:"totalDupe"  yaml:"totalDupe"`
}

// Reward 獎勵明細的一行
type Reward struct {
	Label  string `json:"label"  yaml:"label"`
	Amount int    `json:"amount" yaml:"amount"`
}

// Outcome 最近一次抽選的結果摘要；IsNew 在第一次抽選前為 nil。
type Outcome struct {
	IsNew       *bool    `json:"isNew"       yaml:"isNew"`
	TicketDelta int      `json:"ticketDelta" yaml:"ticketDelta"`
	Breakdown   []Reward `json:"breakdown"   yaml:"breakdown"`
}

// HistoryPoint 每次抽選後的進度快照
type HistoryPoint struct {
	Spins   int `json:"spins"   yaml:"spins"`
	Tickets int `json:"tickets" yaml:"tickets"`
	Stamps  int `json:"stamps"  yaml:"stamps"`
}

// GameState 集章存檔
//
// 不變式：
//   - Stamps[x][y][z] 只會在 xyz 為有效碼時為 true。
//   - PageRewarded[d] 為 true 表示該頁所有有效碼都已蓋章。
//   - RowRewarded[d][r] 為 true 表示該行所有有效碼都已蓋章。
//   - Tickets >= 0，DupeStreak 在 0..7，CurrentPage 在 0..9。
//
// GameState 只由引擎變更，不自帶鎖；同一份存檔同一時間只屬於一個 Session。
type GameState struct {
	SchemaVersion  int                       `json:"schemaVersion"`
	Tickets        int                       `json:"bookmarkTickets"`
	DupeStreak     int                       `json:"dupeStreak"`
	CurrentPage    int                       `json:"currentPage"`
	FreeSpinsLeft  int                       `json:"freeSpinsLeft"`
	FreeSpinsDay   string                    `json:"freeSpinsDay"`
	Stamps         [Pages][Pages][Pages]bool `json:"stamps"`
	PageRewarded   [Pages]bool               `json:"pageRewarded"`
	RowRewarded    [Pages][Pages]bool        `json:"rowRewarded"`
	LastResultCode string                    `json:"lastResultCode"`
	LastOutcome    Outcome                   `json:"lastOutcome"`
	Stats          Stats                     `json:"stats"`
	History        []HistoryPoint            `json:"history"`
}

// New 建立全新存檔。
func New(startTickets int) *GameState {
	return &GameState{
		SchemaVersion:  SchemaVersion,
		Tickets:        max(0, startTickets),
		LastResultCode: InitialCode,
		LastOutcome:    Outcome{Breakdown: []Reward{}},
		History:        []HistoryPoint{},
	}
}

// Encode 序列化存檔。
func Encode(s *GameState) ([]byte, error) {
	return json.Marshal(s)
}

// Clone 深拷貝。
func (s *GameState) Clone() *GameState {
	c := *s
	if s.LastOutcome.IsNew != nil {
		v := *s.LastOutcome.IsNew
		c.LastOutcome.IsNew = &v
	}
	c.LastOutcome.Breakdown = append([]Reward{}, s.LastOutcome.Breakdown...)
	c.History = append([]HistoryPoint{}, s.History...)
	return &c
}

// IsStamped 越界視為未蓋章。
func (s *GameState) IsStamped(t classify.Triple) bool {
	if !t.InRange() {
		return false
	}
	return s.Stamps[t.X][t.Y][t.Z]
}

// StampedCount 已蓋章格數。
func (s *GameState) StampedCount() int {
	n := 0
	for x := range s.Stamps {
		for y := range s.Stamps[x] {
			for z := range s.Stamps[x][y] {
				if s.Stamps[x][y][z] {
					n++
				}
			}
		}
	}
	return n
}

// AddTickets 增減書籤券，結果下限為 0。
func (s *GameState) AddTickets(delta int) {
	s.Tickets = max(0, s.Tickets+delta)
}

// RefreshDaily 換日時補滿每日免費次數；day 為 "YYYY-MM-DD"。回傳是否發生換日。
func (s *GameState) RefreshDaily(day string, perDay int) bool {
	if s.FreeSpinsDay == day {
		return false
	}
	s.FreeSpinsDay = day
	s.FreeSpinsLeft = max(0, perDay)
	return true
}

// AppendHistory 追加進度快照；limit > 0 時只保留最新 limit 筆，limit == 0 不記錄。
func (s *GameState) AppendHistory(limit int) {
	if limit <= 0 {
		s.History = s.History[:0]
		return
	}
	s.History = append(s.History, HistoryPoint{
		Spins:   s.Stats.TotalSpins,
		Tickets: s.Tickets,
		Stamps:  s.StampedCount(),
	})
	if over := len(s.History) - limit; over > 0 {
		s.History = append(s.History[:0], s.History[over:]...)
	}
}

// Reconcile 依分類索引修正存檔，回傳被修正的項目數。
//   - 無效格上的章會被清除（分類資料改版後可能出現）。
//   - 不再成立的整行/整頁已領取旗標會被清除。
func (s *GameState) Reconcile(ix *classify.Index) int {
	fixed := 0
	for x := 0; x < Pages; x++ {
		for y := 0; y < Pages; y++ {
			for z := 0; z < Pages; z++ {
				if s.Stamps[x][y][z] && !ix.IsValidCell(x, y, z) {
					s.Stamps[x][y][z] = false
					fixed++
				}
			}
		}
	}
	for x := 0; x < Pages; x++ {
		for y := 0; y < Pages; y++ {
			if s.RowRewarded[x][y] && !s.RowComplete(ix, x, y) {
				s.RowRewarded[x][y] = false
				fixed++
			}
		}
		if s.PageRewarded[x] && !s.PageComplete(ix, x) {
			s.PageRewarded[x] = false
			fixed++
		}
	}
	return fixed
}

// RowComplete 該頁該行所有有效格都已蓋章（無效格視為已滿足）。
func (s *GameState) RowComplete(ix *classify.Index, page, row int) bool {
	for z := 0; z < Pages; z++ {
		if ix.IsValidCell(page, row, z) && !s.Stamps[page][row][z] {
			return false
		}
	}
	return true
}

// PageComplete 該頁所有有效格都已蓋章。
func (s *GameState) PageComplete(ix *classify.Index, page int) bool {
	for _, t := range ix.ByPage(page) {
		if !s.Stamps[t.X][t.Y][t.Z] {
			return false
		}
	}
	return true
}

// Remaining 尚未蓋章的有效碼數量。
func (s *GameState) Remaining(ix *classify.Index) int {
	n := 0
	for _, t := range ix.All() {
		if !s.Stamps[t.X][t.Y][t.Z] {
			n++
		}
	}
	return n
}

// PageDisplayFilled 該頁的「顯示已填」格數：無效格視為已填，最多 100。
func (s *GameState) PageDisplayFilled(ix *classify.Index, page int) int {
	if page < 0 || page >= Pages {
		return 0
	}
	valid := ix.ByPage(page)
	filled := Pages*Pages - len(valid)
	for _, t := range valid {
		if s.Stamps[t.X][t.Y][t.Z] {
			filled++
		}
	}
	return filled
}

// TotalDisplayFilled 全冊的「顯示已填」格數，最多 1000。
func (s *GameState) TotalDisplayFilled(ix *classify.Index) int {
	all := ix.All()
	filled := Pages*Pages*Pages - len(all)
	for _, t := range all {
		if s.Stamps[t.X][t.Y][t.Z] {
			filled++
		}
	}
	return filled
}
