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
	"cmp"
	"slices"

	"github.com/zintix-labs/stamprally/classify"
	"github.com/zintix-labs/stamprally/setting"
	"github.com/zintix-labs/stamprally/state"
)

// ShouldTriggerPity 救濟判定。
// 全冊已集滿時恆為 false；表值 >= 1 直接成立且不消耗亂數。
func ShouldTriggerPity(rng Rand, st *state.GameState, table []float64, ix *classify.Index) bool {
	if len(table) == 0 || st.Remaining(ix) == 0 {
		return false
	}
	p := setting.PityAt(table, st.DupeStreak)
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

// RollRandomValid 在所有有效碼中均勻抽一個。
func RollRandomValid(rng Rand, ix *classify.Index) classify.Triple {
	all := ix.All()
	return all[rng.IntN(len(all))]
}

// RollNewGuaranteed 保底抽出一個尚未蓋章的有效碼。
//
// 基準為 lastCode（只作為距離錨點，不要求有效）；無法解析時隨機抽一個有效碼當基準。
// 候選池依序放寬，取第一個非空者：
//  1. 同頁未蓋章
//  2. 同行數字（第二位）未蓋章，跨所有頁
//  3. 全部未蓋章
//
// 全冊已集滿時退回 RollRandomValid。
func RollNewGuaranteed(rng Rand, st *state.GameState, ix *classify.Index, lastCode string, nearest int) classify.Triple {
	base, ok := classify.ParseCode(lastCode)
	if !ok {
		base = RollRandomValid(rng, ix)
	}

	unstamped := func(src []classify.Triple, keep func(classify.Triple) bool) []classify.Triple {
		var out []classify.Triple
		for _, t := range src {
			if !st.Stamps[t.X][t.Y][t.Z] && keep(t) {
				out = append(out, t)
			}
		}
		return out
	}
	everyone := func(classify.Triple) bool { return true }

	cands := unstamped(ix.ByPage(base.X), everyone)
	if len(cands) == 0 {
		cands = unstamped(ix.All(), func(t classify.Triple) bool { return t.Y == base.Y })
	}
	if len(cands) == 0 {
		cands = unstamped(ix.All(), everyone)
	}
	if len(cands) == 0 {
		return RollRandomValid(rng, ix)
	}
	return PickPreferClose(rng, cands, base, nearest)
}

// Distance 加權距離：頁 3、行 2、列 1。
func Distance(a, b classify.Triple) int {
	return 3*absInt(a.X-b.X) + 2*absInt(a.Y-b.Y) + absInt(a.Z-b.Z)
}

// PickPreferClose 依與 base 的加權距離排序（穩定排序，同分保留原順序），
// 在最近的 nearest 個候選中均勻挑一個；只有一個候選時直接回傳，不消耗亂數。
// 空候選回傳 base。
func PickPreferClose(rng Rand, cands []classify.Triple, base classify.Triple, nearest int) classify.Triple {
	switch len(cands) {
	case 0:
		return base
	case 1:
		return cands[0]
	}
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b classify.Triple) int {
		return cmp.Compare(Distance(a, base), Distance(b, base))
	})
	n := min(max(1, nearest), len(sorted))
	return sorted[rng.IntN(n)]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
