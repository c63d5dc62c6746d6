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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/server/logger"
)

// 模擬 API 的上限（避免單一請求吃滿 CPU）
const (
	DefaultSimMaxPlayers = 20000
	DefaultSimMaxSpins   = 20000
	DefaultSimWorkers    = 4
)

// SvrCfg 服務組裝所需的全部依賴
type SvrCfg struct {
	Addr          string
	Log           *slog.Logger
	Rally         *stamprally.StampRally
	Pool          *stamprally.SessionPool
	CORSOrigins   []string
	SimMaxPlayers int
	SimMaxSpins   int
	SimWorkers    int
}

// Valid 補上預設值並檢查必要依賴。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Rally == nil {
		return errs.NewFatal("stamp rally is required")
	}
	if sc.Pool == nil {
		return errs.NewFatal("session pool is required")
	}
	if sc.SimMaxPlayers <= 0 {
		sc.SimMaxPlayers = DefaultSimMaxPlayers
	}
	if sc.SimMaxSpins <= 0 {
		sc.SimMaxSpins = DefaultSimMaxSpins
	}
	if sc.SimWorkers <= 0 {
		sc.SimWorkers = DefaultSimWorkers
	}
	sc.SimWorkers = min(sc.SimWorkers, 64)
	return nil
}
