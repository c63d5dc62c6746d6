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

package stamprally

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/state"
	"github.com/zintix-labs/stamprally/store"
)

// DayLayout 每日免費次數的日期格式
const DayLayout = "2006-01-02"

// ErrRetired Session 已被池淘汰或刪除。
var ErrRetired = errs.NewWarn("session retired")

// Session 封裝「一位玩家的一本集章冊」。
//
// 你可以把 Session 視為引擎的外殼（shell）：
//   - 對外：提供 Spin / SetPage / Reset / View。
//   - 對內：持有 RNG（Core）與存檔（GameState），每次變更後寫回 store。
//
// 並發語意：
//   - 同一時間只允許一次抽選進行中；重入的 Spin 直接回報 busy，不排隊。
//   - 其他讀寫操作以 mu 序列化。
//
// 寫回失敗不回滾：記憶體中的結果成立，回報中帶 PersistWarning，並標記為 dirty。
//
// 被池淘汰或刪除後 Session 即退役（retired）：仍持有指標的呼叫端再做任何變更
// 都會得到 ErrRetired，應重新向池取得 Session。
type Session struct {
	id       string
	eng      *engine.Engine
	core     *core.Core
	st       *state.GameState
	initseed int64
	mu       sync.Mutex
	spinning atomic.Bool
	retired  atomic.Bool  // 只在持有 mu 時寫入
	dirty    bool         // 最後一次寫回失敗；受 mu 保護
	lastUsed atomic.Int64 // unix nano
	store    store.Store  // nil 表示不落地
	clock    func() time.Time
	log      *slog.Logger
}

type sessionConfig struct {
	store store.Store
	clock func() time.Time
	log   *slog.Logger
}

func (c sessionConfig) withDefaults() sessionConfig {
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c
}

func newSession(id string, eng *engine.Engine, cf core.PRNGFactory, seed int64, cfg sessionConfig) (*Session, error) {
	if id == "" {
		return nil, errs.NewWarn("session id required")
	}
	cfg = cfg.withDefaults()
	s := &Session{
		id:       id,
		eng:      eng,
		core:     core.New(cf.New(seed)),
		st:       eng.NewState(),
		initseed: seed,
		store:    cfg.store,
		clock:    cfg.clock,
		log:      cfg.log.With(slog.String("session", id)),
	}
	s.touch()
	return s, nil
}

// saveEnvelope 落地格式：存檔 + RNG 狀態，讓重新載入後的亂數序列可接續。
type saveEnvelope struct {
	Seed  int64           `json:"seed"`
	Core  []byte          `json:"core,omitempty"`
	State json.RawMessage `json:"state"`
}

// restoreSession 從落地資料還原。
//   - 資料是 saveEnvelope：還原存檔與 RNG。
//   - 資料是裸存檔（瀏覽器匯出）：只還原存檔，RNG 以 seed 新建。
//
// 存檔內容不合法時依 state.Decode 的規則修補或重置，不視為錯誤。
func restoreSession(id string, raw []byte, eng *engine.Engine, cf core.PRNGFactory, seed int64, cfg sessionConfig) (*Session, error) {
	var env saveEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.State) == 0 {
		env = saveEnvelope{Seed: seed, State: raw}
	}
	if env.Seed == 0 {
		env.Seed = seed
	}
	s, err := newSession(id, eng, cf, env.Seed, cfg)
	if err != nil {
		return nil, err
	}
	if len(env.Core) > 0 {
		if err := s.core.Restore(env.Core); err != nil {
			s.log.Warn("session.restore", slog.String("part", "core"), slog.Any("err", err))
		}
	}

	set := eng.Setting()
	st, rep := state.Decode(env.State, set.StartTickets)
	fixed := st.Reconcile(eng.Index())
	if rep.Changed() || fixed > 0 {
		s.log.Warn("session.restore",
			slog.String("part", "state"),
			slog.Bool("reset", rep.Reset),
			slog.Bool("migrated", rep.Migrated),
			slog.Int("from", rep.From),
			slog.Any("notes", rep.Notes),
			slog.Int("reconciled", fixed),
		)
	}
	s.st = st
	return s, nil
}

func (s *Session) ID() string { return s.id }

// InitSeed 出生 seed（追溯用；RNG 狀態隨存檔保存）
func (s *Session) InitSeed() int64 { return s.initseed }

func (s *Session) touch() { s.lastUsed.Store(time.Now().UnixNano()) }

// SpinReport 一次 Spin 的完整回報
type SpinReport struct {
	engine.SpinResult
	Tickets        int    `json:"bookmarkTickets"`
	FreeSpinsLeft  int    `json:"freeSpinsLeft"`
	DupeStreak     int    `json:"dupeStreak"`
	Stamped        int    `json:"stamped"`
	PersistWarning string `json:"persistWarning,omitempty"`
}

// Spin 執行一次抽選並寫回。
// 付不起或已有抽選進行中時 Accepted 為 false，存檔不變，也不是錯誤。
func (s *Session) Spin(ctx context.Context, mode engine.Mode) (SpinReport, error) {
	if err := ctx.Err(); err != nil {
		return SpinReport{}, err
	}
	if !s.spinning.CompareAndSwap(false, true) {
		return SpinReport{SpinResult: engine.SpinResult{Mode: mode, Reason: engine.ReasonBusy}}, nil
	}
	defer s.spinning.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired.Load() {
		return SpinReport{}, ErrRetired
	}
	s.touch()

	refreshed := s.refreshDaily()
	res := s.eng.Spin(s.core, s.st, mode)
	rep := SpinReport{
		SpinResult:    res,
		Tickets:       s.st.Tickets,
		FreeSpinsLeft: s.st.FreeSpinsLeft,
		DupeStreak:    s.st.DupeStreak,
		Stamped:       s.st.StampedCount(),
	}
	if !res.Accepted && !refreshed {
		return rep, nil
	}
	if res.Accepted {
		s.log.Debug("session.spin",
			slog.String("code", res.Code),
			slog.Bool("new", res.IsNew),
			slog.Bool("pity", res.Pity),
			slog.Int("delta", res.TicketDelta),
		)
	}
	if err := s.persist(ctx); err != nil {
		rep.PersistWarning = err.Error()
	}
	return rep, nil
}

// SetPage 切換目前頁面（0..9）。
func (s *Session) SetPage(ctx context.Context, page int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired.Load() {
		return "", ErrRetired
	}
	s.touch()
	if err := engine.SetCurrentPage(s.st, page); err != nil {
		return "", err
	}
	return s.persistWarning(ctx), nil
}

// Reset 回到初始存檔（RNG 不重設）。
func (s *Session) Reset(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired.Load() {
		return "", ErrRetired
	}
	s.touch()
	s.st = s.eng.NewState()
	s.refreshDaily()
	s.log.Info("session.reset")
	return s.persistWarning(ctx), nil
}

// PageView 單頁顯示資料
type PageView struct {
	Page          int  `json:"page"`
	Valid         int  `json:"valid"`
	Stamped       int  `json:"stamped"`
	DisplayFilled int  `json:"displayFilled"`
	Rewarded      bool `json:"rewarded"`
}

// View 提供給前端的唯讀快照
type View struct {
	ID                 string           `json:"id"`
	State              *state.GameState `json:"state"`
	Pages              []PageView       `json:"pages"`
	TotalDisplayFilled int              `json:"totalDisplayFilled"`
	ValidCodes         int              `json:"validCodes"`
	Remaining          int              `json:"remaining"`
	CanSpin            bool             `json:"canSpin"`
}

// View 會先做每日免費次數的換日檢查。
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.refreshDaily()

	ix := s.eng.Index()
	v := View{
		ID:                 s.id,
		State:              s.st.Clone(),
		Pages:              make([]PageView, 0, state.Pages),
		TotalDisplayFilled: s.st.TotalDisplayFilled(ix),
		ValidCodes:         ix.Len(),
		Remaining:          s.st.Remaining(ix),
		CanSpin:            engine.CanSpinMode(s.st, s.eng.Setting(), engine.ModeAuto),
	}
	for p := 0; p < state.Pages; p++ {
		stamped := 0
		for _, t := range ix.ByPage(p) {
			if s.st.Stamps[t.X][t.Y][t.Z] {
				stamped++
			}
		}
		v.Pages = append(v.Pages, PageView{
			Page:          p,
			Valid:         ix.PageLen(p),
			Stamped:       stamped,
			DisplayFilled: s.st.PageDisplayFilled(ix, p),
			Rewarded:      s.st.PageRewarded[p],
		})
	}
	return v
}

// Save 立即寫回（例如關閉前）；已退役的 Session 不再寫。
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired.Load() {
		return nil
	}
	return s.persist(ctx)
}

// retire 等待進行中的操作結束後退役。
func (s *Session) retire() {
	s.mu.Lock()
	s.retired.Store(true)
	s.mu.Unlock()
}

// tryRetire 供淘汰使用：抽選中、其他操作持有鎖或尚有未寫回的變更時不退役。
func (s *Session) tryRetire() bool {
	if s.spinning.Load() || !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	if s.dirty {
		return false
	}
	s.retired.Store(true)
	return true
}

// refreshDaily 呼叫端須持有 mu。
func (s *Session) refreshDaily() bool {
	day := s.clock().Format(DayLayout)
	return s.st.RefreshDaily(day, s.eng.Setting().FreeSpinsPerDay)
}

func (s *Session) encode() ([]byte, error) {
	st, err := state.Encode(s.st)
	if err != nil {
		return nil, errs.Wrap(err, "encode state")
	}
	snap, err := s.core.Snapshot()
	if err != nil {
		return nil, errs.Wrap(err, "snapshot core")
	}
	return json.Marshal(saveEnvelope{Seed: s.initseed, Core: snap, State: st})
}

// persist 呼叫端須持有 mu。
func (s *Session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := s.encode()
	if err == nil {
		err = s.store.Save(ctx, s.id, data)
	}
	s.dirty = err != nil
	if err != nil {
		s.log.Warn("session.persist", slog.Any("err", err))
		return errs.Wrap(err, "persist session")
	}
	return nil
}

func (s *Session) persistWarning(ctx context.Context) string {
	if err := s.persist(ctx); err != nil {
		return err.Error()
	}
	return ""
}
