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

// Package stamprally 提供集章拉力（stamp rally）的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// StampRally 把三個必需的地基組裝在一起：
//  1. RallySetting：費用、獎勵、救濟表等遊戲設定。
//  2. classify.Index：分類索引（哪些三位數碼有效、對應的主題名稱）。
//  3. PRNGFactory：亂數核心工廠，保證可重現。
//
// 設定檔與分類資料一律以 fs.FS 注入（go:embed 或 os.DirFS），StampRally 本身不綁定檔案路徑。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 StampRally 建立 SessionPool，每位玩家一個 Session。
//   - 模擬器（sim）：由 StampRally 建立 Simulator，大量模擬玩家集章歷程。
package stamprally

import (
	"crypto/rand"
	"io/fs"
	"math"
	"math/big"

	"github.com/zintix-labs/stamprally/classify"
	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/setting"
	"github.com/zintix-labs/stamprally/store"
)

// DefaultSettingName 設定檔預設檔名
const DefaultSettingName = "rally.yaml"

// StampRally 組裝器；建立後唯讀，可被多個 goroutine 共用。
type StampRally struct {
	set *setting.RallySetting
	ix  *classify.Index
	eng *engine.Engine
	cf  core.PRNGFactory
}

// New 從 fsys 讀取設定檔 settingName，再依設定內 classification 欄位讀取同一個 fsys 內的分類資料。
func New(cf core.PRNGFactory, fsys fs.FS, settingName string) (*StampRally, error) {
	if fsys == nil {
		return nil, errs.NewFatal("configs required")
	}
	if settingName == "" {
		settingName = DefaultSettingName
	}
	set, err := setting.Load(fsys, settingName)
	if err != nil {
		return nil, errs.Wrap(err, "load rally setting")
	}
	ix, err := classify.Load(fsys, set.Classification)
	if err != nil {
		return nil, errs.Wrap(err, "load classification")
	}
	return NewWith(cf, set, ix)
}

// NewWith 使用已解析的設定與分類索引組裝。
func NewWith(cf core.PRNGFactory, set *setting.RallySetting, ix *classify.Index) (*StampRally, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	eng, err := engine.New(set, ix)
	if err != nil {
		return nil, err
	}
	return &StampRally{set: set, ix: ix, eng: eng, cf: cf}, nil
}

func (sr *StampRally) Setting() *setting.RallySetting { return sr.set.Clone() }

func (sr *StampRally) Index() *classify.Index { return sr.ix }

func (sr *StampRally) Engine() *engine.Engine { return sr.eng }

// CodeInfo 分類碼查詢結果
type CodeInfo struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
	Label string `json:"label"`
}

// Lookup 查詢分類碼；code 會先正規化（補零），格式錯誤回傳 Warn。
func (sr *StampRally) Lookup(code string) (CodeInfo, error) {
	norm, err := classify.NormalizeCode(code)
	if err != nil {
		return CodeInfo{}, err
	}
	label, ok := sr.ix.Label(norm)
	return CodeInfo{Code: norm, Valid: ok, Label: label}, nil
}

// NewSession 建立一個不落地的 Session（seed 由 crypto/rand 產生）。
func (sr *StampRally) NewSession(id string) (*Session, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return sr.NewSessionWithSeed(id, seed)
}

// NewSessionWithSeed 以指定 seed 建立不落地的 Session；同 seed 同操作序列會得到一致結果。
func (sr *StampRally) NewSessionWithSeed(id string, seed int64) (*Session, error) {
	return newSession(id, sr.eng, sr.cf, seed, sessionConfig{})
}

// NewSessionPool 建立以 st 為後端的 SessionPool。
func (sr *StampRally) NewSessionPool(st store.Store, opts ...PoolOption) (*SessionPool, error) {
	if st == nil {
		return nil, errs.NewFatal("store required")
	}
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return newSessionPool(sr, st, seed, opts...), nil
}

func (sr *StampRally) NewSimulator() (*Simulator, error) {
	seed, err := cryptoSeed()
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(sr, seed), nil
}

func (sr *StampRally) NewSimulatorWithSeed(seed int64) (*Simulator, error) {
	return newSimulatorWithSeed(sr, seed), nil
}

// cryptoSeed 對外服務時避免可預測的 seed。
func cryptoSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}
