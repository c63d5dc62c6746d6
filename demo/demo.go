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

package demo

import (
	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/demo/demo_configs"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/server/logger"
	"github.com/zintix-labs/stamprally/server/svrcfg"
	"github.com/zintix-labs/stamprally/store"
)

// New 以內嵌的 rally.yaml 與 ndc.json 建立 StampRally。
func New() (*stamprally.StampRally, error) {
	return stamprally.New(core.Default(), demo_configs.FS, stamprally.DefaultSettingName)
}

// NewServerConfig 記憶體存檔的開發用伺服器設定。
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	sr, err := New()
	if err != nil {
		return nil, errs.Wrap(err, "new stamp rally failed")
	}
	log := logger.NewDefaultAsyncLogger(logger.ModeDev)
	pool, err := sr.NewSessionPool(store.NewMemStore(), stamprally.WithLogger(log))
	if err != nil {
		return nil, errs.Wrap(err, "new session pool failed")
	}
	scfg := &svrcfg.SvrCfg{
		Log:   log,
		Rally: sr,
		Pool:  pool,
	}
	return scfg, nil
}
