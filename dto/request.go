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

// Package dto 負責把 HTTP 請求解碼成 API 使用的請求結構。
//
// 這裡只做解碼與型別轉換，不做業務合法性校驗（模式是否存在、玩家數上限），
// 那些由 handler 或下層決定。
package dto

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/stamprally/errs"
)

// maxBody POST body 上限
const maxBody = 1 << 16

// CreateRequest 建立 session；seed 省略時由伺服器產生。
type CreateRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

// SpinRequest 抽選；mode 省略視為 auto。
type SpinRequest struct {
	Mode string `json:"mode"`
}

// PageRequest 切換頁面；page 必填。
type PageRequest struct {
	Page *int `json:"page"`
}

// SimRequest 模擬；players 預設 1。
type SimRequest struct {
	Players int    `json:"players"`
	Spins   int    `json:"spins"`
	Mode    string `json:"mode"`
	Seed    *int64 `json:"seed,omitempty"`
}

// DecodeCreateRequest 允許空 body。
func DecodeCreateRequest(r *http.Request) (*CreateRequest, error) {
	req := new(CreateRequest)
	if err := decodeBody(r, req, true); err != nil {
		return nil, err
	}
	return req, nil
}

// DecodeSpinRequest body 的 mode 優先，其次是 query ?mode=。
func DecodeSpinRequest(r *http.Request) (*SpinRequest, error) {
	req := new(SpinRequest)
	if err := decodeBody(r, req, true); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = r.URL.Query().Get("mode")
	}
	return req, nil
}

func DecodePageRequest(r *http.Request) (*PageRequest, error) {
	req := new(PageRequest)
	if err := decodeBody(r, req, true); err != nil {
		return nil, err
	}
	if req.Page == nil {
		if s := r.URL.Query().Get("page"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.Warnf("invalid page: %v", err)
			}
			req.Page = &v
		}
	}
	if req.Page == nil {
		return nil, errs.NewWarn("page is required")
	}
	return req, nil
}

// DecodeSimRequest
//   - GET：從 query 讀 players / spins / mode / seed。
//   - POST：JSON body，未知欄位直接拒絕。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	req := &SimRequest{Players: 1}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		for _, f := range []struct {
			key string
			dst *int
		}{{"players", &req.Players}, {"spins", &req.Spins}} {
			if s := q.Get(f.key); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil {
					return nil, errs.Warnf("%s must be integer", f.key)
				}
				*f.dst = v
			}
		}
		req.Mode = q.Get("mode")
		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn("seed must be int64")
			}
			req.Seed = &v
		}
		return req, nil
	case http.MethodPost:
		if err := decodeBody(r, req, false); err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, errs.Warnf("method %s not allowed", r.Method)
}

func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	if r == nil {
		return errs.NewWarn("nil request")
	}
	if r.Body == nil || r.Body == http.NoBody {
		if allowEmpty {
			return nil
		}
		return errs.NewWarn("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return errs.NewWarn("invalid json: " + err.Error())
	}
	return nil
}
