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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/recorder"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/stats"
)

const capPrepare int = 100

// simEpoch 模擬用的虛擬起始日；玩家付不起時推進一天領免費轉。
var simEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Simulator 以引擎直接模擬玩家集章歷程，並平行紀錄統計。
//
// 每位玩家的 seed 在派工前依序由 seedMaker 產生，因此結果與 worker 數無關。
type Simulator struct {
	RallyName string
	sr        *StampRally
	initSeed  int64
	seedmaker *seedMaker
	rBuf      []*recorder.SpinRecorder
	sBuf      []*stats.RallyReport
}

func newSimulatorWithSeed(sr *StampRally, seed int64) *Simulator {
	return &Simulator{
		RallyName: sr.set.Name,
		sr:        sr,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
		sBuf:      make([]*stats.RallyReport, 0, capPrepare),
	}
}

// InitSeed 模擬器的初始 seed
func (s *Simulator) InitSeed() int64 { return s.initSeed }

// Sim 單一玩家最多抽 spins 轉（集滿或付不起即停），回傳統計結果與用時
func (s *Simulator) Sim(mode engine.Mode, spins int, showpb bool) (*stats.RallyReport, time.Duration, error) {
	defer s.reset()
	if spins < 1 {
		return nil, 0, errs.NewWarn("spins must > 0")
	}
	r, err := s.newRecorder(mode)
	if err != nil {
		return nil, 0, err
	}
	bar := pb.StartNew(spins)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	rng := core.New(s.sr.cf.New(s.initSeed))
	s.play(rng, r, mode, spins, func() { bar.Increment() })
	used := time.Since(bar.StartTime())
	bar.Finish()
	return r.Done(), used, nil
}

// SimPlayers 模擬 players 位玩家各自最多 spins 轉的歷程，回傳合併報表與玩家體驗評估。
func (s *Simulator) SimPlayers(mp int, players int, mode engine.Mode, spins int, showpb bool) (*stats.RallyReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if mp < 1 || players < 1 || spins < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	seeds := make([]int64, players)
	for i := range seeds {
		seeds[i] = s.seedmaker.next()
	}
	for len(s.rBuf) < players {
		r, err := s.newRecorder(mode)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	jobs := make(chan int, 2048)
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := core.New(s.sr.cf.New(seeds[i]))
				s.play(rng, s.rBuf[i], mode, spins, nil)
				bar.Increment()
			}
		}()
	}
	for i := range players {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	merged, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	rep := merged.Done()

	s.sBuf = make([]*stats.RallyReport, players)
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return rep, est, used, nil
}

// play 一位玩家的完整歷程。
//
// auto 模式且每日有免費轉時，付不起就推進一天；否則視為破產離場。
func (s *Simulator) play(rng *core.Core, r *recorder.SpinRecorder, mode engine.Mode, spins int, tick func()) {
	eng := s.sr.eng
	set := eng.Setting()
	st := eng.NewState()
	day := 0
	st.RefreshDaily(simDay(day), set.FreeSpinsPerDay)
	waitDay := mode == engine.ModeAuto && set.FreeSpinsPerDay > 0

	for done := 0; done < spins; {
		streak := st.DupeStreak
		res := eng.Spin(rng, st, mode)
		if !res.Accepted {
			if !waitDay {
				r.RecordBroke()
				return
			}
			day++
			st.RefreshDaily(simDay(day), set.FreeSpinsPerDay)
			r.NextDay()
			continue
		}
		done++
		if tick != nil {
			tick()
		}
		if r.RecordWithPlayer(&res, streak, st) {
			return
		}
	}
}

func (s *Simulator) newRecorder(mode engine.Mode) (*recorder.SpinRecorder, error) {
	return recorder.NewSpinRecorder(s.RallyName, string(mode), s.sr.ix.Len(), s.sr.set.StartTickets)
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

func simDay(day int) string {
	return simEpoch.AddDate(0, 0, day).Format(DayLayout)
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state，再用可逆 mix63 打散。
//
// 可能被多個 goroutine 同時呼叫（SessionPool.Create），state 以 CAS 推進。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
