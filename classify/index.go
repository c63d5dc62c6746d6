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

// Package classify 建立「分類索引（Classification Index）」：
// 一份 {code, label} 清單經過一次性載入後，提供有效碼判斷、標籤查詢、
// 全部有效三元組以及依首位數字（頁）分組的三元組。
//
// Index 建立後為唯讀，可被多個 Session 與模擬玩家共享，不需要加鎖。
package classify

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/stamprally/errs"
)

// Digits 為每一位數的取值數量（0..9）。
const Digits = 10

// Triple 是一格 (頁, 行, 列)，對應三位數代碼 xyz。
type Triple struct {
	X int `json:"x" yaml:"x"` // 頁（首位）
	Y int `json:"y" yaml:"y"` // 行（第二位）
	Z int `json:"z" yaml:"z"` // 列（第三位）
}

// Code 回傳零補齊的三位數代碼。
func (t Triple) Code() string {
	return string([]byte{byte('0' + t.X), byte('0' + t.Y), byte('0' + t.Z)})
}

// InRange 判斷三個位數是否都落在 0..9。
func (t Triple) InRange() bool {
	return inDigit(t.X) && inDigit(t.Y) && inDigit(t.Z)
}

func (t Triple) String() string { return t.Code() }

// ParseCode 解析恰好三位的數字代碼，例如 "307"。
func ParseCode(code string) (Triple, bool) {
	if len(code) != 3 {
		return Triple{}, false
	}
	var d [3]int
	for i := 0; i < 3; i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return Triple{}, false
		}
		d[i] = int(c - '0')
	}
	return Triple{X: d[0], Y: d[1], Z: d[2]}, true
}

// Record 是分類來源的一筆資料。
type Record struct {
	Code  string `json:"code"  yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Index 分類索引。
type Index struct {
	labels map[string]string
	valid  [Digits][Digits][Digits]bool
	all    []Triple
	byPage [Digits][]Triple
}

// New 由 records 建立索引。
//
// 規則：
//   - 代碼會先去除空白並左補 0 到三位（"7" -> "007"），超過三位或含非數字視為錯誤。
//   - 標籤去除空白後為空字串的紀錄不是有效碼，直接略過。
//   - 同一代碼重複出現視為錯誤（來源資料不一致時 fail-fast）。
//   - 至少要有一個有效碼，否則引擎無碼可抽。
func New(records []Record) (*Index, error) {
	ix := &Index{labels: make(map[string]string, len(records))}
	for i, r := range records {
		code, err := NormalizeCode(r.Code)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("record #%d", i))
		}
		label := strings.TrimSpace(r.Label)
		if label == "" {
			continue
		}
		if _, dup := ix.labels[code]; dup {
			return nil, errs.Warnf("duplicate code %s at record #%d", code, i)
		}
		t, _ := ParseCode(code)
		ix.labels[code] = label
		ix.valid[t.X][t.Y][t.Z] = true
	}
	if len(ix.labels) == 0 {
		return nil, errs.NewWarn("classification has no valid code")
	}

	// 固定以代碼順序排列，讓同一 seed 在不同載入順序下仍得到相同抽選結果
	ix.all = make([]Triple, 0, len(ix.labels))
	for x := 0; x < Digits; x++ {
		for y := 0; y < Digits; y++ {
			for z := 0; z < Digits; z++ {
				if ix.valid[x][y][z] {
					t := Triple{X: x, Y: y, Z: z}
					ix.all = append(ix.all, t)
					ix.byPage[x] = append(ix.byPage[x], t)
				}
			}
		}
	}
	return ix, nil
}

// NormalizeCode 去除空白並左補 0 到三位。
func NormalizeCode(code string) (string, error) {
	c := strings.TrimSpace(code)
	if c == "" {
		return "", errs.NewWarn("empty code")
	}
	if len(c) > 3 {
		return "", errs.Warnf("code %q longer than 3 digits", code)
	}
	c = strings.Repeat("0", 3-len(c)) + c
	if _, ok := ParseCode(c); !ok {
		return "", errs.Warnf("code %q is not numeric", code)
	}
	return c, nil
}

// IsValid 判斷代碼是否為有效碼。
func (ix *Index) IsValid(code string) bool {
	_, ok := ix.labels[code]
	return ok
}

// IsValidCell 判斷 (x,y,z) 是否為有效碼；越界一律視為無效。
func (ix *Index) IsValidCell(x, y, z int) bool {
	if !inDigit(x) || !inDigit(y) || !inDigit(z) {
		return false
	}
	return ix.valid[x][y][z]
}

// Label 查詢代碼標籤。
func (ix *Index) Label(code string) (string, bool) {
	l, ok := ix.labels[code]
	return l, ok
}

// All 回傳全部有效三元組（依代碼排序）。回傳的 slice 為共享唯讀資料，呼叫端不可修改。
func (ix *Index) All() []Triple { return ix.all }

// ByPage 回傳首位為 page 的有效三元組；越界回傳 nil。回傳值同樣為唯讀。
func (ix *Index) ByPage(page int) []Triple {
	if !inDigit(page) {
		return nil
	}
	return ix.byPage[page]
}

// Len 有效碼數量。
func (ix *Index) Len() int { return len(ix.all) }

// PageLen 該頁有效碼數量。
func (ix *Index) PageLen(page int) int { return len(ix.ByPage(page)) }

// Records 依代碼順序匯出有效紀錄，可用於重新序列化。
func (ix *Index) Records() []Record {
	out := make([]Record, 0, len(ix.all))
	for _, t := range ix.all {
		c := t.Code()
		out = append(out, Record{Code: c, Label: ix.labels[c]})
	}
	return out
}

func inDigit(v int) bool { return v >= 0 && v < Digits }
