package v1

import (
	"net/http"

	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/server/httperr"
	"github.com/zintix-labs/stamprally/server/netsvr"
)

// RallyHandler 唯讀的設定與分類查詢
type RallyHandler struct {
	sr *stamprally.StampRally
}

func NewRallyHandler(sr *stamprally.StampRally) *RallyHandler {
	return &RallyHandler{sr: sr}
}

// Code GET /v1/codes/{code}
func (h *RallyHandler) Code(w http.ResponseWriter, r *http.Request) {
	info, err := h.sr.Lookup(netsvr.URLParam(r, "code"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Codes GET /v1/codes  全部有效碼（前端繪製格子用）
func (h *RallyHandler) Codes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sr.Index().Records())
}

// Setting GET /v1/setting
func (h *RallyHandler) Setting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sr.Setting())
}
