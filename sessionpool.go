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
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/store"
)

// DefaultMaxSessions 記憶體中最多保留的 Session 數；超過時淘汰最久未使用者（已落地，可再載入）。
const DefaultMaxSessions = 4096

// SessionPool 管理所有線上玩家的 Session。
//
//  1. sessions：記憶體中的 Session，依 id 取用；不在記憶體時從 store 載入。
//  2. store：唯一的落地來源；Session 每次變更後寫回。
//
// 若某個 Session 在抽選時 panic，其狀態視為不可信：從記憶體移除（下次由 store 重新載入），
// 並計入 panics。Close 之後所有操作直接回錯誤。
//
// 同一個 id 在記憶體中最多只有一個可變更的 Session：離開 sessions 的 Session 一律先退役。
// 淘汰只挑已完整寫回且閒置的 Session；寫回失敗的 Session 留在記憶體直到下次寫回成功。
type SessionPool struct {
	sr        *StampRally
	store     store.Store
	seedMaker *seedMaker
	cfg       sessionConfig
	max       int

	mu       sync.Mutex
	sessions map[string]*Session

	done        chan struct{}
	closeOnce   sync.Once
	closeReason atomic.Value // string

	created atomic.Int32
	loaded  atomic.Int32
	evicted atomic.Int32
	panics  atomic.Int32
}

// PoolOption SessionPool 選項
type PoolOption func(*SessionPool)

// WithClock 注入時鐘（每日免費次數的換日判斷）。
func WithClock(clock func() time.Time) PoolOption {
	return func(p *SessionPool) { p.cfg.clock = clock }
}

func WithLogger(log *slog.Logger) PoolOption {
	return func(p *SessionPool) { p.cfg.log = log }
}

func WithMaxSessions(n int) PoolOption {
	return func(p *SessionPool) { p.max = max(1, n) }
}

func newSessionPool(sr *StampRally, st store.Store, seed int64, opts ...PoolOption) *SessionPool {
	p := &SessionPool{
		sr:        sr,
		store:     st,
		seedMaker: newSeedMaker(seed),
		max:       DefaultMaxSessions,
		sessions:  make(map[string]*Session),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cfg.store = st
	p.cfg = p.cfg.withDefaults()
	p.closeReason.Store("")
	return p
}

// Create 建立新 Session 並立即落地；seed 為 nil 時由池內 seedMaker 產生。
func (p *SessionPool) Create(ctx context.Context, seed *int64) (*Session, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	sd := p.seedMaker.next()
	if seed != nil {
		sd = *seed
	}
	s, err := newSession(uuid.NewString(), p.sr.eng, p.sr.cf, sd, p.cfg)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.refreshDaily()
	err = s.persist(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p.put(s)
	p.created.Add(1)
	s.log.Info("session.create", slog.Int64("seed", sd))
	return s, nil
}

// Get 取得 Session；記憶體沒有時從 store 載入。不存在回傳帶 errs.ErrNotFound 的錯誤。
func (p *SessionPool) Get(ctx context.Context, id string) (*Session, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	if err := store.ValidID(id); err != nil {
		return nil, errs.NotFoundf("session %s", id)
	}
	p.mu.Lock()
	s, ok := p.sessions[id]
	p.mu.Unlock()
	if ok {
		s.touch()
		return s, nil
	}

	raw, err := p.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.NotFoundf("session %s", id)
		}
		return nil, errs.WrapWithExtra(err, "load session", id)
	}
	s, err = restoreSession(id, raw, p.sr.eng, p.sr.cf, p.seedMaker.next(), p.cfg)
	if err != nil {
		return nil, err
	}

	// 併發載入同一個 id 時，以先放進池的為準
	p.mu.Lock()
	defer p.mu.Unlock()
	if exist, ok := p.sessions[id]; ok {
		return exist, nil
	}
	p.putLocked(s)
	p.loaded.Add(1)
	return s, nil
}

// retiredRetries 取到剛退役的 Session 時重新取得的次數上限
const retiredRetries = 3

// with 取得 Session 並執行 fn；fn 碰上 ErrRetired（取得後才被淘汰）時重新取得。
func (p *SessionPool) with(ctx context.Context, id string, fn func(*Session) error) error {
	for i := 0; ; i++ {
		s, err := p.Get(ctx, id)
		if err != nil {
			return err
		}
		err = fn(s)
		if !errors.Is(err, ErrRetired) || i+1 >= retiredRetries {
			return err
		}
	}
}

// Spin 以 id 執行一次抽選；Session panic 時回 Fatal 並將它逐出記憶體。
func (p *SessionPool) Spin(ctx context.Context, id string, mode engine.Mode) (rep SpinReport, err error) {
	err = p.with(ctx, id, func(s *Session) (err error) {
		defer func() {
			if r := recover(); r != nil {
				p.panics.Add(1)
				p.drop(s)
				s.log.Error("session.panic", slog.Any("panic", r))
				err = errs.NewFatal(fmt.Sprintf("session %s panic : %v", id, r))
			}
		}()
		rep, err = s.Spin(ctx, mode)
		return err
	})
	return rep, err
}

// SetPage 切換頁面並回傳切換後的 View 與寫回警告。
func (p *SessionPool) SetPage(ctx context.Context, id string, page int) (v View, warn string, err error) {
	err = p.with(ctx, id, func(s *Session) error {
		if warn, err = s.SetPage(ctx, page); err != nil {
			return err
		}
		v = s.View()
		return nil
	})
	return v, warn, err
}

// Reset 將存檔重設為初始狀態。
func (p *SessionPool) Reset(ctx context.Context, id string) (v View, warn string, err error) {
	err = p.with(ctx, id, func(s *Session) error {
		if warn, err = s.Reset(ctx); err != nil {
			return err
		}
		v = s.View()
		return nil
	})
	return v, warn, err
}

// View 取得唯讀快照。
func (p *SessionPool) View(ctx context.Context, id string) (View, error) {
	s, err := p.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.View(), nil
}

// Delete 從記憶體與 store 移除。
func (p *SessionPool) Delete(ctx context.Context, id string) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if err := store.ValidID(id); err != nil {
		return errs.NotFoundf("session %s", id)
	}
	p.mu.Lock()
	s, ok := p.sessions[id]
	p.mu.Unlock()
	if ok {
		p.drop(s)
	}
	if err := p.store.Delete(ctx, id); err != nil {
		return errs.WrapWithExtra(err, "delete session", id)
	}
	return nil
}

func (p *SessionPool) put(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.putLocked(s)
}

func (p *SessionPool) putLocked(s *Session) {
	if len(p.sessions) >= p.max {
		p.evictLocked()
	}
	p.sessions[s.id] = s
}

// evictLocked 由最久未使用者開始，淘汰第一個可以退役的 Session；呼叫端須持有 mu。
// 全部都在使用中或尚未寫回時不淘汰，池暫時超過上限。
func (p *SessionPool) evictLocked() {
	list := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		list = append(list, s)
	}
	slices.SortFunc(list, func(a, b *Session) int {
		return cmp.Compare(a.lastUsed.Load(), b.lastUsed.Load())
	})
	for _, s := range list {
		if s.tryRetire() {
			delete(p.sessions, s.id)
			p.evicted.Add(1)
			return
		}
	}
	p.cfg.log.Warn("session.evict.skipped", slog.Int("active", len(p.sessions)))
}

// drop 退役並移出記憶體；s 已被替換時不動池內的新 Session。
func (p *SessionPool) drop(s *Session) {
	s.retire()
	p.mu.Lock()
	if cur, ok := p.sessions[s.id]; ok && cur == s {
		delete(p.sessions, s.id)
	}
	p.mu.Unlock()
}

func (p *SessionPool) check(ctx context.Context) error {
	select {
	case <-p.done:
		return errs.NewFatal("session pool closed: " + p.ClosedReason())
	default:
	}
	return ctx.Err()
}

// Close 進入關閉狀態；關閉前把記憶體中的 Session 全部寫回一次。可重複呼叫。
func (p *SessionPool) Close(ctx context.Context) error {
	var errsOut []error
	p.closeOnce.Do(func() {
		p.closeReason.Store("closed")
		close(p.done)
		p.mu.Lock()
		list := make([]*Session, 0, len(p.sessions))
		for _, s := range p.sessions {
			list = append(list, s)
		}
		p.mu.Unlock()
		for _, s := range list {
			if err := s.Save(ctx); err != nil {
				errsOut = append(errsOut, err)
			}
			s.retire()
		}
	})
	return errors.Join(errsOut...)
}

// Closed 回報池是否已進入關閉狀態。
func (p *SessionPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *SessionPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (p *SessionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// SessionPoolMetrics 拉取式觀測快照
type SessionPoolMetrics struct {
	Active      int    `json:"active"`
	MaxSessions int    `json:"max_sessions"`
	Created     int    `json:"created"`
	Loaded      int    `json:"loaded"`
	Evicted     int    `json:"evicted"`
	Panics      int    `json:"panics"`
	Closed      bool   `json:"closed"`
	CloseReason string `json:"close_reason"`
}

func (p *SessionPool) Metrics() SessionPoolMetrics {
	return SessionPoolMetrics{
		Active:      p.Len(),
		MaxSessions: p.max,
		Created:     int(p.created.Load()),
		Loaded:      int(p.loaded.Load()),
		Evicted:     int(p.evicted.Load()),
		Panics:      int(p.panics.Load()),
		Closed:      p.Closed(),
		CloseReason: p.ClosedReason(),
	}
}
