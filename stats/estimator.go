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

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// EstimatorPlayers 多玩家集章體驗評估
type EstimatorPlayers struct {
	Players    int
	Completion CompletionStat
	Progress   ProgressStat
	Session    SessionStat
}

// 集滿敘事
type CompletionStat struct {
	Completed        PointStat // 集滿整本的玩家比例
	SpinsToComplete  QuantStat // 集滿者花費轉數
	SpinsToFirstPage QuantStat // 第一次集滿一頁的轉數
	DaysToComplete   QuantStat // 集滿者花費天數
}

// 分位數視角：中位數 + P10 / P90
type QuantStat struct {
	Samples int
	Median  PointStat
	P10     PointStat
	P90     PointStat
}

// 用完成度門檻看玩家: 多少玩家停在 25% / 50% / 75% 以下
type ProgressStat struct {
	Median PointStat
	Le25   PointStat
	Le50   PointStat
	Le75   PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// 結局敘事
type SessionStat struct {
	Broke   PointStat // 書籤券用盡離場
	PityHit PointStat // 至少觸發一次保底
	AnyPage PointStat // 至少集滿一頁
}

// ============================================================
// ** 對外 : 用戶體驗評估 **
// ============================================================

// EstimatorPlayerExp 以每位玩家一份報告做體驗評估
//
// 1. Completion 敘事 : 多少玩家集滿，以及集滿要多少轉/多少天
//
// 2. Progress 敘事 : 玩家最終完成度的分布
//
// 3. Session 敘事 : 破產、遇過保底、至少集滿一頁的比例
func EstimatorPlayerExp(sts []*RallyReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	// ------------------------------------------------------------
	// 1) Completion
	// ------------------------------------------------------------
	var doneK int
	toComplete := make([]float64, 0, n)
	toFirstPage := make([]float64, 0, n)
	days := make([]float64, 0, n)
	for _, s := range sts {
		s.Done()
		p := s.Player
		if p == nil {
			continue
		}
		if p.Completed {
			doneK++
			toComplete = append(toComplete, float64(p.CompleteAt))
			days = append(days, float64(p.Days))
		}
		if p.FirstPageAt > 0 {
			toFirstPage = append(toFirstPage, float64(p.FirstPageAt))
		}
	}
	doneHat, doneCI := proportionCICP(doneK, n, 0.95)
	out.Completion = CompletionStat{
		Completed:        PointStat{Hat: doneHat, CI: doneCI},
		SpinsToComplete:  quantStat(toComplete),
		SpinsToFirstPage: quantStat(toFirstPage),
		DaysToComplete:   quantStat(days),
	}

	// ------------------------------------------------------------
	// 2) Progress
	// ------------------------------------------------------------
	prog := make([]float64, n)
	for i, s := range sts {
		if s.Player != nil {
			prog[i] = s.Player.Completion
		}
	}
	medLo, medHi := quantileCI(prog, 0.5, 0.95)
	le25Hat, le25CI := percentileCIForValue(prog, 0.25, 0.95)
	le50Hat, le50CI := percentileCIForValue(prog, 0.50, 0.95)
	le75Hat, le75CI := percentileCIForValue(prog, 0.75, 0.95)
	out.Progress = ProgressStat{
		Median: PointStat{Hat: quantilePoint(prog, 0.5), CI: CI{Lo: medLo, Hi: medHi}},
		Le25:   PointStat{Hat: le25Hat, CI: le25CI},
		Le50:   PointStat{Hat: le50Hat, CI: le50CI},
		Le75:   PointStat{Hat: le75Hat, CI: le75CI},
	}

	// ------------------------------------------------------------
	// 3) Session
	// ------------------------------------------------------------
	var brokeK, pityK, pageK int
	for _, s := range sts {
		if s.Summary.PityTriggers > 0 {
			pityK++
		}
		if s.Player == nil {
			continue
		}
		if s.Player.Broke {
			brokeK++
		}
		if s.Player.PagesCompleted > 0 {
			pageK++
		}
	}
	brokeHat, brokeCI := proportionCICP(brokeK, n, 0.95)
	pityHat, pityCI := proportionCICP(pityK, n, 0.95)
	pageHat, pageCI := proportionCICP(pageK, n, 0.95)
	out.Session = SessionStat{
		Broke:   PointStat{Hat: brokeHat, CI: brokeCI},
		PityHit: PointStat{Hat: pityHat, CI: pityCI},
		AnyPage: PointStat{Hat: pageHat, CI: pageCI},
	}
	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

func quantStat(data []float64) QuantStat {
	q := QuantStat{Samples: len(data)}
	if len(data) == 0 {
		return q
	}
	point := func(p float64) PointStat {
		lo, hi := quantileCI(data, p, 0.95)
		return PointStat{Hat: quantilePoint(data, p), CI: CI{Lo: lo, Hi: hi}}
	}
	q.Median = point(0.5)
	q.P10 = point(0.10)
	q.P90 = point(0.90)
	return q
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 估計 p = P(X ≤ x0) 的點估計與 CI
func percentileCIForValue(data []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(data)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	k := 0
	for _, v := range data {
		if v <= x0 {
			k++
		}
	}
	return proportionCICP(k, n, confidence)
}

// 第 q 分位的上下界：order statistic 的秩視為二項，以 Beta 反推 p 範圍後轉回樣本索引。
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	if n == 1 {
		return cp[0], cp[0]
	}

	alpha := 1 - confidence
	k := int(q * float64(n))
	k = max(1, min(k, n-1))

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	li = max(0, min(li, n-1))
	ui = max(0, min(ui, n-1))
	return cp[li], cp[ui]
}

// 最近秩法
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	idx := int(q * float64(n))
	idx = max(0, min(idx, n-1))
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *EstimatorPlayers) Out() {
	fmt.Printf("=== Players: %d ===\n", est.Players)

	c := est.Completion
	fmt.Println("\n=== Completion ===")
	printTable("Completion", []string{"Completed", "Spins to complete", "Spins to first page", "Days to complete"},
		map[string]string{
			"Completed":           fmtHatCIpct01(c.Completed.Hat, c.Completed.CI),
			"Spins to complete":   fmtQuant(c.SpinsToComplete),
			"Spins to first page": fmtQuant(c.SpinsToFirstPage),
			"Days to complete":    fmtQuant(c.DaysToComplete),
		})

	p := est.Progress
	fmt.Println("\n=== Progress ===")
	printTable("Progress", []string{"Median", "≤25% (players)", "≤50% (players)", "≤75% (players)"},
		map[string]string{
			"Median":         fmtHatCIpct01(p.Median.Hat, p.Median.CI),
			"≤25% (players)": fmtHatCIpct01(p.Le25.Hat, p.Le25.CI),
			"≤50% (players)": fmtHatCIpct01(p.Le50.Hat, p.Le50.CI),
			"≤75% (players)": fmtHatCIpct01(p.Le75.Hat, p.Le75.CI),
		})

	s := est.Session
	fmt.Println("\n=== Session Outcome ===")
	printTable("Session Outcome", []string{"Broke", "Pity hit", "Any page"},
		map[string]string{
			"Broke":    fmtHatCIpct01(s.Broke.Hat, s.Broke.CI),
			"Pity hit": fmtHatCIpct01(s.PityHit.Hat, s.PityHit.CI),
			"Any page": fmtHatCIpct01(s.AnyPage.Hat, s.AnyPage.CI),
		})
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtQuant(q QuantStat) string {
	if q.Samples == 0 {
		return "-"
	}
	return fmt.Sprintf("n=%d | P10 %.0f | median %.0f [%.0f, %.0f] | P90 %.0f",
		q.Samples, q.P10.Hat, q.Median.Hat, q.Median.CI.Lo, q.Median.CI.Hi, q.P90.Hat)
}
