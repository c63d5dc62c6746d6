package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/dto"
	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/server/httperr"
	"github.com/zintix-labs/stamprally/server/netsvr"
	"github.com/zintix-labs/stamprally/server/svrcfg"
)

// 單一請求的處理時限
const reqTimeout = 5 * time.Second

// ============================================================
// ** SessionHandler **
// ============================================================

type SessionHandler struct {
	pool *stamprally.SessionPool
	log  *slog.Logger
}

func NewSessionHandler(sCfg *svrcfg.SvrCfg) (*SessionHandler, error) {
	if sCfg == nil || sCfg.Pool == nil {
		return nil, errs.NewFatal("session pool is required")
	}
	return &SessionHandler{pool: sCfg.Pool, log: sCfg.Log}, nil
}

// Create POST /v1/sessions  body（可省略）: {"seed": n}
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeCreateRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()

	s, err := h.pool.Create(ctx, req.Seed)
	if err != nil {
		httperr.Log(h.log, "api.session.create", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

// Get GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()
	v, err := h.pool.View(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Log(h.log, "api.session.get", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Spin POST /v1/sessions/{id}/spin  body（可省略）: {"mode": "auto"|"ticket"}
func (h *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSpinRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()

	rep, err := h.pool.Spin(ctx, netsvr.URLParam(r, "id"), mode)
	if err != nil {
		httperr.Log(h.log, "api.session.spin", err)
		httperr.Errs(w, err)
		return
	}
	status := http.StatusOK
	if rep.Reason == engine.ReasonBusy {
		status = http.StatusConflict
	}
	writeJSON(w, status, rep)
}

// SetPage PUT /v1/sessions/{id}/page  body: {"page": n}
func (h *SessionHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodePageRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()
	v, warn, err := h.pool.SetPage(ctx, netsvr.URLParam(r, "id"), *req.Page)
	if err != nil {
		httperr.Log(h.log, "api.session.page", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewWithWarning{View: v, PersistWarning: warn})
}

// Reset POST /v1/sessions/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reqTimeout)
	defer cancel()
	v, warn, err := h.pool.Reset(ctx, netsvr.URLParam(r, "id"))
	if err != nil {
		httperr.Log(h.log, "api.session.reset", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewWithWarning{View: v, PersistWarning: warn})
}

// Delete DELETE /v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Delete(r.Context(), netsvr.URLParam(r, "id")); err != nil {
		httperr.Log(h.log, "api.session.delete", err)
		httperr.Errs(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Metrics GET /v1/metrics
func (h *SessionHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Metrics())
}

type viewWithWarning struct {
	stamprally.View
	PersistWarning string `json:"persistWarning,omitempty"`
}

// ============================================================
// ** helpers **
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
