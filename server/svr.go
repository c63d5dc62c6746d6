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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/server/api"
	"github.com/zintix-labs/stamprally/server/app"
	"github.com/zintix-labs/stamprally/server/netsvr"
	"github.com/zintix-labs/stamprally/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口：
//  1. 驗證 SvrCfg（StampRally、SessionPool、logger）。
//  2. 建立 HTTP server（netsvr.ChiAdapter，監聽 sCfg.Addr）。
//  3. 註冊 middleware 與路由。
//  4. 以 app.App 管理 HTTP server 與 SessionPool 的生命週期，關閉時把所有 Session 寫回。
//
// Run 不綁定任何檔案路徑或環境變數；依賴一律由 SvrCfg 注入。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run 相同，但由呼叫端注入自訂的 NetSvr（自訂 listener、TLS、timeout...）。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return err
	}

	a := app.NewWith(svr, app.Hold(sCfg.Pool)).WithLogger(sCfg.Log)
	if c, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[stamprally] listening", slog.String("addr", c.Address()))
	}
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	sCfg.Log.Info("[stamprally] stopped", slog.Any("pool", sCfg.Pool.Metrics()))
	return nil
}
