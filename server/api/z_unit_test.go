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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/server/netsvr"
	"github.com/zintix-labs/stamprally/server/svrcfg"
	"github.com/zintix-labs/stamprally/store"
)

var testFS = fstest.MapFS{
	"rally.yaml": {Data: []byte("name: api-test\nclassification: codes.yaml\nstart_tickets: 30\n")},
	"codes.yaml": {Data: []byte(`
- {code: "000", label: 総記}
- {code: "010", label: 図書館}
- {code: "307", label: 新聞}
`)},
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	sr, err := stamprally.New(core.Default(), testFS, "")
	if err != nil {
		t.Fatalf("new rally: %v", err)
	}
	pool, err := sr.NewSessionPool(store.NewMemStore())
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	cfg := &svrcfg.SvrCfg{Rally: sr, Pool: pool, SimMaxPlayers: 50, SimMaxSpins: 500}
	if err := cfg.Valid(); err != nil {
		t.Fatalf("cfg: %v", err)
	}
	svr := netsvr.NewChiServer("")
	if err := RegisterRoutes(svr, cfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return svr.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/sessions", `{"seed": 9}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	view := decode[stamprally.View](t, rec)
	if view.ID == "" || view.State.Tickets != 30 || view.ValidCodes != 3 || view.Remaining != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
	base := "/v1/sessions/" + view.ID

	rec = do(t, h, http.MethodPost, base+"/spin", `{"mode":"ticket"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("spin status %d: %s", rec.Code, rec.Body.String())
	}
	rep := decode[stamprally.SpinReport](t, rec)
	if !rep.Accepted || !rep.IsNew || rep.Cost != 10 {
		t.Fatalf("first ticket spin should be new and cost 10: %+v", rep)
	}

	// 空 body 視為 auto
	rec = do(t, h, http.MethodPost, base+"/spin", "")
	if rec.Code != http.StatusOK || !decode[stamprally.SpinReport](t, rec).UsedFreeSpin {
		t.Fatalf("empty body spin should use a free spin")
	}

	if rec = do(t, h, http.MethodPost, base+"/spin", `{"mode":"gold"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad mode status %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, base+"/page", `{"page": 3}`)
	if rec.Code != http.StatusOK || decode[stamprally.View](t, rec).State.CurrentPage != 3 {
		t.Fatalf("set page failed: %d", rec.Code)
	}
	if rec = do(t, h, http.MethodPut, base+"/page", `{"page": 10}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("page 10 status %d", rec.Code)
	}
	if rec = do(t, h, http.MethodPut, base+"/page", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing page status %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, base+"/reset", "")
	if v := decode[stamprally.View](t, rec); v.State.Stats.TotalSpins != 0 || v.Remaining != 3 {
		t.Fatalf("reset should restore initial state: %+v", v.State.Stats)
	}

	if rec = do(t, h, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status %d", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	h := newTestServer(t)
	if rec := do(t, h, http.MethodPost, "/v1/sessions/nope/spin", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session spin status %d", rec.Code)
	}
}

func TestCodesAndSetting(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/v1/codes/307", "")
	info := decode[stamprally.CodeInfo](t, rec)
	if !info.Valid || info.Label != "新聞" {
		t.Fatalf("unexpected code info %+v", info)
	}
	rec = do(t, h, http.MethodGet, "/v1/codes/99", "")
	if info := decode[stamprally.CodeInfo](t, rec); info.Valid || info.Code != "099" {
		t.Fatalf("099 should be invalid: %+v", info)
	}
	if rec = do(t, h, http.MethodGet, "/v1/codes/x1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed code status %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/setting", "")
	var set map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&set); err != nil || set["name"] != "api-test" {
		t.Fatalf("setting body %v err=%v", set, err)
	}

	if rec = do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}
}

func TestSimEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/sim", `{"players": 10, "spins": 200, "seed": 5, "mode": "auto"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("sim status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Seed  int64 `json:"seed"`
		Stats struct {
			Summary struct {
				Players int `json:"Players"`
			} `json:"Summary"`
		} `json:"stats"`
		Est *struct {
			Players int `json:"Players"`
		} `json:"est"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Seed != 5 || resp.Stats.Summary.Players != 10 || resp.Est == nil || resp.Est.Players != 10 {
		t.Fatalf("unexpected sim response %+v", resp)
	}

	if rec = do(t, h, http.MethodGet, "/v1/sim?spins=100&seed=1", ""); rec.Code != http.StatusOK {
		t.Fatalf("GET sim status %d: %s", rec.Code, rec.Body.String())
	}
	if rec = do(t, h, http.MethodGet, "/v1/sim?spins=100000", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("over limit status %d", rec.Code)
	}
}
