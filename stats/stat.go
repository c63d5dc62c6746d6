package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// RallyReport 集章模擬統計報告
type RallyReport struct {
	Summary *SummaryReport `json:"Summary"`
	Streak  *StreakReport  `json:"Streak"`
	Bonus   *BonusReport   `json:"Bonus"`
	Player  *PlayerReport  `json:"Player,omitzero"`
	isDone  bool
}

type SummaryReport struct {
	RallyName     string  `json:"RallyName"`
	Mode          string  `json:"Mode"`
	ValidCodes    int     `json:"ValidCodes"`
	Players       int     `json:"Players"`
	Spins         int     `json:"Spins"`
	NewStamps     int     `json:"NewStamps"`
	DupeStamps    int     `json:"DupeStamps"`
	PityTriggers  int     `json:"PityTriggers"`
	PityNew       int     `json:"PityNew"`
	FreeSpins     int     `json:"FreeSpins"`
	TicketsSpent  int     `json:"TicketsSpent"`
	TicketsEarned int     `json:"TicketsEarned"`
	NewRate       float64 `json:"NewRate"`
	NewRateCI     CI      `json:"NewRateCI"`
	PityRate      float64 `json:"PityRate"`
	ReturnRate    float64 `json:"ReturnRate"` // 獲得 / 花費
}

// StreakReport 抽選當下連續重複次數的分布（0..7）
type StreakReport struct {
	Hist      []int     `json:"Hist"`
	Dist      []float64 `json:"Dist"`
	MaxStreak int       `json:"MaxStreak"`
}

// BonusReport 各獎勵標籤的發放次數與書籤券
type BonusReport struct {
	Labels  []string `json:"Labels"`
	Counts  []int    `json:"Counts"`
	Tickets []int    `json:"Tickets"`
}

// PlayerReport 單一玩家的結局
//
// FirstPageAt / CompleteAt 為第幾轉達成，0 表示未達成。
type PlayerReport struct {
	StartTickets   int     `json:"StartTickets"`
	Tickets        int     `json:"Tickets"`
	Stamped        int     `json:"Stamped"`
	Completion     float64 `json:"Completion"`
	PagesCompleted int     `json:"PagesCompleted"`
	FirstPageAt    int     `json:"FirstPageAt"`
	CompleteAt     int     `json:"CompleteAt"`
	Days           int     `json:"Days"`
	Completed      bool    `json:"Completed"`
	Broke          bool    `json:"Broke"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 紀錄過程只處理 int，統計完成後呼叫 Done 一次性計算比率與信賴區間。
func (s *RallyReport) Done() {
	if s.isDone {
		return
	}
	sum := s.Summary
	sum.NewRate, sum.NewRateCI = proportionCICP(sum.NewStamps, sum.Spins, 0.95)
	if sum.Spins > 0 {
		sum.PityRate = float64(sum.PityTriggers) / float64(sum.Spins)
	}
	if sum.TicketsSpent > 0 {
		sum.ReturnRate = float64(sum.TicketsEarned) / float64(sum.TicketsSpent)
	}

	s.Streak.Dist = make([]float64, len(s.Streak.Hist))
	if sum.Spins > 0 {
		for i, c := range s.Streak.Hist {
			s.Streak.Dist[i] = float64(c) / float64(sum.Spins)
		}
	}

	if s.Player != nil && sum.ValidCodes > 0 {
		s.Player.Completion = float64(s.Player.Stamped) / float64(sum.ValidCodes)
	}
	s.isDone = true
}

func (s *RallyReport) WriteWith(w io.Writer, rep ReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *RallyReport) StdOut(ut time.Duration) {
	s.Done()
	formatDuration(ut, s.Summary.Spins)
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.RallyName, sk, sm))
	bk, bm := s.fmtBonus()
	if len(bk) > 0 {
		fmt.Println(fmtTable("Bonus", bk, bm))
	}
	tk, tm := s.fmtStreak()
	fmt.Println(fmtTable("Dupe Streak", tk, tm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, spins int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Printf("used: %dm %ds\nsps : %d spins/sec\n", m, s, sps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, s, sps)
}

func (s *RallyReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	sum := s.Summary
	basic := map[string]string{
		"Rally":           sum.RallyName,
		"Mode":            sum.Mode,
		"Players":         p.Sprintf("%d", sum.Players),
		"Valid Codes":     p.Sprintf("%d", sum.ValidCodes),
		"Total Spins":     p.Sprintf("%d", sum.Spins),
		"New Stamps":      p.Sprintf("%d", sum.NewStamps),
		"Dupe Stamps":     p.Sprintf("%d", sum.DupeStamps),
		"New Rate":        p.Sprintf("%.2f %%", 100.0*sum.NewRate),
		"New Rate 95% CI": p.Sprintf("[%.2f%%,%.2f%%]", 100.0*sum.NewRateCI.Lo, 100.0*sum.NewRateCI.Hi),
		"Pity Triggers":   p.Sprintf("%d", sum.PityTriggers),
		"Pity Rate":       p.Sprintf("%.2f %%", 100.0*sum.PityRate),
		"Free Spins":      p.Sprintf("%d", sum.FreeSpins),
		"Tickets Spent":   p.Sprintf("%d", sum.TicketsSpent),
		"Tickets Earned":  p.Sprintf("%d", sum.TicketsEarned),
		"Return Rate":     p.Sprintf("%.2f %%", 100.0*sum.ReturnRate),
	}
	keys := []string{"Rally", "Mode", "Players", "Valid Codes", "Total Spins", "New Stamps", "Dupe Stamps", "New Rate", "New Rate 95% CI",
		"Pity Triggers", "Pity Rate", "Free Spins", "Tickets Spent", "Tickets Earned", "Return Rate"}
	return keys, basic
}

func (s *RallyReport) fmtBonus() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	msg := make(map[string]string, len(s.Bonus.Labels))
	for i, l := range s.Bonus.Labels {
		msg[l] = p.Sprintf("%d times / %d tickets", s.Bonus.Counts[i], s.Bonus.Tickets[i])
	}
	return s.Bonus.Labels, msg
}

func (s *RallyReport) fmtStreak() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Streak.Hist)+1)
	msg := make(map[string]string, len(s.Streak.Hist)+1)
	for i, c := range s.Streak.Hist {
		k := fmt.Sprintf("streak %d", i)
		keys = append(keys, k)
		msg[k] = p.Sprintf("%d (%.2f%%)", c, 100.0*s.Streak.Dist[i])
	}
	keys = append(keys, "max")
	msg["max"] = fmt.Sprintf("%d", s.Streak.MaxStreak)
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
