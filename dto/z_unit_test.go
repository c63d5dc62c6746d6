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

package dto

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodeSpinRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/spin?mode=auto", bytes.NewBufferString(`{"mode":"ticket"}`))
	req, err := DecodeSpinRequest(r)
	if err != nil || req.Mode != "ticket" {
		t.Fatalf("body mode should win: %+v err=%v", req, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/spin?mode=ticket", nil)
	req, err = DecodeSpinRequest(r)
	if err != nil || req.Mode != "ticket" {
		t.Fatalf("query mode fallback: %+v err=%v", req, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/spin", bytes.NewBufferString(`{"mode":"auto","bet":1}`))
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatalf("unknown field should be rejected")
	}
}

func TestDecodePageRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/page", bytes.NewBufferString(`{"page":0}`))
	req, err := DecodePageRequest(r)
	if err != nil || req.Page == nil || *req.Page != 0 {
		t.Fatalf("page 0 must be kept: %+v err=%v", req, err)
	}
	r = httptest.NewRequest(http.MethodPut, "/page", bytes.NewBufferString(`{}`))
	if _, err := DecodePageRequest(r); err == nil {
		t.Fatalf("missing page should fail")
	}
	r = httptest.NewRequest(http.MethodPut, "/page?page=x", nil)
	if _, err := DecodePageRequest(r); err == nil {
		t.Fatalf("non numeric page should fail")
	}
}

func TestDecodeSimRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/sim?players=5&spins=100&mode=ticket&seed=42", nil)
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Players != 5 || req.Spins != 100 || req.Mode != "ticket" || req.Seed == nil || *req.Seed != 42 {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest(http.MethodPost, "/sim", bytes.NewBufferString(`{"spins": 10}`))
	req, err = DecodeSimRequest(r)
	if err != nil || req.Players != 1 || req.Seed != nil {
		t.Fatalf("players should default to 1: %+v err=%v", req, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/sim?spins=ten", nil)
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatalf("non numeric spins should fail")
	}
	r = httptest.NewRequest(http.MethodPost, "/sim", nil)
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatalf("empty POST body should fail")
	}
}

func TestDecodeCreateRequestEmpty(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req, err := DecodeCreateRequest(r)
	if err != nil || req.Seed != nil {
		t.Fatalf("empty body should decode to zero request: %+v err=%v", req, err)
	}
}
