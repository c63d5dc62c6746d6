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

// Package setting 定義集章拉力的遊戲設定（費用、獎勵、救濟表、每日免費次數）。
//
// 設定檔以 YAML 或 JSON 提供。解析時會先套用 Default()，
// 因此設定檔只需寫出要覆寫的欄位；明確寫成 0 的獎勵代表「關閉該獎勵」。
package setting

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/stamprally/errs"
)

// PityTableLen 救濟表長度，對應連續重複次數 0..7。
const PityTableLen = 8

// RallySetting 集章拉力設定
type RallySetting struct {
	Name                string    `yaml:"name"                   json:"name"`
	Classification      string    `yaml:"classification"         json:"classification"`         // 分類來源檔名（與設定檔同一個 fs.FS）
	StartTickets        int       `yaml:"start_tickets"          json:"start_tickets"`          // 新存檔的初始書籤券
	TicketsPerExtraSpin int       `yaml:"tickets_per_extra_spin" json:"tickets_per_extra_spin"` // 付費轉一次的書籤券
	FreeSpinsPerDay     int       `yaml:"free_spins_per_day"     json:"free_spins_per_day"`     // 每日免費次數，0 表示關閉
	HistoryLimit        int       `yaml:"history_limit"          json:"history_limit"`          // 歷程保留筆數
	NearestPool         int       `yaml:"nearest_pool"           json:"nearest_pool"`           // 保底抽選時取最近的前 N 名
	PityTable           []float64 `yaml:"pity_table"             json:"pity_table"`
	Rewards             Rewards   `yaml:"rewards"                json:"rewards"`
}

// Rewards 各項獎勵（書籤券）。<= 0 的項目不發放也不列入明細。
type Rewards struct {
	New          int `yaml:"new"           json:"new"`
	Dupe         int `yaml:"dupe"          json:"dupe"`
	RowComplete  int `yaml:"row_complete"  json:"row_complete"`
	PageComplete int `yaml:"page_complete" json:"page_complete"`
	Triple       int `yaml:"triple"        json:"triple"`    // xxx
	Straight     int `yaml:"straight"      json:"straight"`  // 遞增連號 x, x+1, x+2
	Sandwich     int `yaml:"sandwich"      json:"sandwich"`  // x y x 且 x != y
	ZeroTail     int `yaml:"zero_tail"     json:"zero_tail"` // x00
}

// Default 回傳預設設定。
func Default() *RallySetting {
	return &RallySetting{
		Name:                "stamprally",
		Classification:      "ndc.json",
		StartTickets:        30,
		TicketsPerExtraSpin: 10,
		FreeSpinsPerDay:     10,
		HistoryLimit:        200,
		NearestPool:         12,
		PityTable:           []float64{0.00, 0.10, 0.20, 0.35, 0.55, 0.75, 0.90, 1.00},
		Rewards: Rewards{
			New:          2,
			Dupe:         1,
			RowComplete:  5,
			PageComplete: 50,
			Triple:       10,
			Straight:     5,
			Sandwich:     3,
			ZeroTail:     5,
		},
	}
}

// PityAt 回傳連續重複 streak 對應的救濟機率；streak 先夾在表的範圍內，空表為 0。
func PityAt(table []float64, streak int) float64 {
	if len(table) == 0 {
		return 0
	}
	return table[min(max(streak, 0), len(table)-1)]
}

// Clone 深拷貝（PityTable 為 slice）。
func (rs *RallySetting) Clone() *RallySetting {
	c := *rs
	c.PityTable = append([]float64(nil), rs.PityTable...)
	return &c
}

func (rs *RallySetting) init() error {
	rs.Name = strings.TrimSpace(rs.Name)
	rs.Classification = strings.TrimSpace(rs.Classification)
	return rs.valid()
}

// valid 執行設定檔檢查。
func (rs *RallySetting) valid() error {
	if rs.Name == "" {
		return errs.NewWarn("name required")
	}
	if rs.StartTickets < 0 {
		return errs.Warnf("rally: %s err: start_tickets must >= 0", rs.Name)
	}
	if rs.TicketsPerExtraSpin < 0 {
		return errs.Warnf("rally: %s err: tickets_per_extra_spin must >= 0", rs.Name)
	}
	if rs.FreeSpinsPerDay < 0 {
		return errs.Warnf("rally: %s err: free_spins_per_day must >= 0", rs.Name)
	}
	if rs.HistoryLimit < 0 {
		return errs.Warnf("rally: %s err: history_limit must >= 0", rs.Name)
	}
	if rs.NearestPool < 1 {
		return errs.Warnf("rally: %s err: nearest_pool must >= 1", rs.Name)
	}

	// 救濟表：長度固定、值域 [0,1]、單調不減、最後一格必為 1（連續重複上限 7 的保證）
	if len(rs.PityTable) != PityTableLen {
		return errs.Warnf("rally: %s err: pity_table needs %d entries, got %d", rs.Name, PityTableLen, len(rs.PityTable))
	}
	for i, p := range rs.PityTable {
		if p < 0 || p > 1 {
			return errs.Warnf("rally: %s err: pity_table[%d]=%v out of [0,1]", rs.Name, i, p)
		}
		if i > 0 && p < rs.PityTable[i-1] {
			return errs.NewWarn(fmt.Sprintf("rally: %s err: pity_table must be non-decreasing at %d", rs.Name, i))
		}
	}
	if rs.PityTable[PityTableLen-1] != 1 {
		return errs.Warnf("rally: %s err: pity_table[%d] must be 1", rs.Name, PityTableLen-1)
	}
	return nil
}
