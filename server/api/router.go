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

package api

import (
	"net/http"

	v1 "github.com/zintix-labs/stamprally/server/api/v1"
	"github.com/zintix-labs/stamprally/server/netsvr"
	"github.com/zintix-labs/stamprally/server/netsvr/middleware"
	"github.com/zintix-labs/stamprally/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg)
	svr.Get("/healthz", health)
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.CORSOrigins))
	svr.Use(middleware.Compression)
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	sh, err := v1.NewSessionHandler(sCfg)
	if err != nil {
		return err
	}
	sim, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	rh := v1.NewRallyHandler(sCfg.Rally)

	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Post("/sessions", sh.Create)
		vOne.Get("/sessions/{id}", sh.Get)
		vOne.Delete("/sessions/{id}", sh.Delete)
		vOne.Post("/sessions/{id}/spin", sh.Spin)
		vOne.Put("/sessions/{id}/page", sh.SetPage)
		vOne.Post("/sessions/{id}/reset", sh.Reset)
		vOne.Get("/metrics", sh.Metrics)

		vOne.Get("/codes", rh.Codes)
		vOne.Get("/codes/{code}", rh.Code)
		vOne.Get("/setting", rh.Setting)

		vOne.Get("/sim", sim.Sim)
		vOne.Post("/sim", sim.Sim)
	})
	return nil
}
