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
	"math"
	"regexp"
	"strconv"
	"strings"
)

var codePattern = regexp.MustCompile(`^[0-9]{3}$`)

// Repair 描述 Decode 對原始存檔做了哪些處理。
type Repair struct {
	Reset    bool     // 形狀不合法，已整份重置
	Migrated bool     // 由舊版本存檔升級
	From     int      // 原始 schemaVersion
	Notes    []string // 個別修補說明
}

// Changed 是否有任何修補。
func (r Repair) Changed() bool {
	return r.Reset || r.Migrated || len(r.Notes) > 0
}

func (r *Repair) note(s string) { r.Notes = append(r.Notes, s) }

// Decode 還原存檔；任何無法信任的資料都不會造成錯誤，而是修補或重置。
//   - 空資料或非 JSON 物件：重置為新存檔。
//   - stamps 不是 10x10x10 布林：重置。
//   - pageRewarded 不是長度 10 布林：重置。
//   - rowRewarded 不是 10x10 布林：schemaVersion < 4 視為遷移（全部歸零），否則重置。
//   - 數值欄位：轉型後夾限；無法轉型的採用初始值。
//   - lastResultCode 不符 ^[0-9]{3}$：改為 "000"。
//
// 遷移不會碰書籤券數量。
func Decode(data []byte, startTickets int) (*GameState, Repair) {
	rep := Repair{}
	fresh := func(reason string) (*GameState, Repair) {
		rep.Reset = true
		rep.note(reason)
		return New(startTickets), rep
	}

	var raw map[string]json.RawMessage
	if len(strings.TrimSpace(string(data))) == 0 {
		return fresh("empty save")
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return fresh("save is not a json object")
	}

	s := New(startTickets)
	ver := int(coerceNum(raw["schemaVersion"], 0))
	rep.From = ver

	if !decodeStamps(raw["stamps"], &s.Stamps) {
		return fresh("stamps shape")
	}
	if !decodeFlags(raw["pageRewarded"], s.PageRewarded[:]) {
		return fresh("pageRewarded shape")
	}
	if !decodeRowFlags(raw["rowRewarded"], &s.RowRewarded) {
		if ver >= SchemaVersion {
			return fresh("rowRewarded shape")
		}
		s.RowRewarded = [Pages][Pages]bool{}
	}

	s.Tickets = int(coerceNum(raw["bookmarkTickets"], float64(s.Tickets)))
	s.DupeStreak = clampInt(int(coerceNum(raw["dupeStreak"], 0)), 0, MaxStreak)
	s.CurrentPage = clampInt(int(coerceNum(raw["currentPage"], 0)), 0, Pages-1)
	s.FreeSpinsLeft = int(coerceNum(raw["freeSpinsLeft"], 0))
	s.FreeSpinsDay = coerceStr(raw["freeSpinsDay"])

	s.LastResultCode = coerceStr(raw["lastResultCode"])
	if !codePattern.MatchString(s.LastResultCode) {
		if s.LastResultCode != "" {
			rep.note("lastResultCode reset")
		}
		s.LastResultCode = InitialCode
	}

	var st struct {
		TotalSpins json.RawMessage `json:"totalSpins"`
		TotalNew   json.RawMessage `json:"totalNew"`
		TotalDupe  json.RawMessage `json:"totalDupe"`
	}
	if v, ok := raw["stats"]; ok && json.Unmarshal(v, &st) == nil {
		s.Stats.TotalSpins = int(coerceNum(st.TotalSpins, 0))
		s.Stats.TotalNew = int(coerceNum(st.TotalNew, 0))
		s.Stats.TotalDupe = int(coerceNum(st.TotalDupe, 0))
	}

	if v, ok := raw["lastOutcome"]; ok {
		var o Outcome
		if json.Unmarshal(v, &o) == nil {
			if o.Breakdown == nil {
				o.Breakdown = []Reward{}
			}
			s.LastOutcome = o
		} else {
			rep.note("lastOutcome dropped")
		}
	}

	if v, ok := raw["history"]; ok {
		var h []HistoryPoint
		if json.Unmarshal(v, &h) == nil && h != nil {
			s.History = h
		} else {
			rep.note("history dropped")
		}
	}

	if ver < SchemaVersion {
		rep.Migrated = true
	}
	s.SchemaVersion = SchemaVersion
	return s, rep
}

// coerceNum 接受 JSON 數字或數字字串，截去小數並下限為 0；其餘回傳 def。
func coerceNum(v json.RawMessage, def float64) float64 {
	if len(v) == 0 {
		return def
	}
	var a any
	if json.Unmarshal(v, &a) != nil {
		return def
	}
	var f float64
	switch x := a.(type) {
	case float64:
		f = x
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return def
		}
		f = p
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return math.Max(0, math.Min(math.Trunc(f), 1<<53))
}

func coerceStr(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func decodeFlags(v json.RawMessage, dst []bool) bool {
	var arr []bool
	if len(v) == 0 || json.Unmarshal(v, &arr) != nil || len(arr) != len(dst) {
		return false
	}
	copy(dst, arr)
	return true
}

func decodeRowFlags(v json.RawMessage, dst *[Pages][Pages]bool) bool {
	var arr [][]bool
	if len(v) == 0 || json.Unmarshal(v, &arr) != nil || len(arr) != Pages {
		return false
	}
	for x := range arr {
		if len(arr[x]) != Pages {
			return false
		}
	}
	for x := range arr {
		copy(dst[x][:], arr[x])
	}
	return true
}

func decodeStamps(v json.RawMessage, dst *[Pages][Pages][Pages]bool) bool {
	var arr [][][]bool
	if len(v) == 0 || json.Unmarshal(v, &arr) != nil || len(arr) != Pages {
		return false
	}
	for x := range arr {
		if len(arr[x]) != Pages {
			return false
		}
		for y := range arr[x] {
			if len(arr[x][y]) != Pages {
				return false
			}
		}
	}
	for x := range arr {
		for y := range arr[x] {
			copy(dst[x][y][:], arr[x][y])
		}
	}
	return true
}
