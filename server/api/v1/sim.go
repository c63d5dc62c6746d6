package v1

import (
	"net/http"

	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/dto"
	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/server/httperr"
	"github.com/zintix-labs/stamprally/server/svrcfg"
	"github.com/zintix-labs/stamprally/stats"
)

type SimHandler struct {
	sr         *stamprally.StampRally
	maxPlayers int
	maxSpins   int
	workers    int
}

func NewSimHandler(sCfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if sCfg == nil || sCfg.Rally == nil {
		return nil, errs.NewFatal("stamp rally is required")
	}
	return &SimHandler{
		sr:         sCfg.Rally,
		maxPlayers: sCfg.SimMaxPlayers,
		maxSpins:   sCfg.SimMaxSpins,
		workers:    sCfg.SimWorkers,
	}, nil
}

// Sim GET|POST /v1/sim
//
// players = 1 時回傳單一玩家報表；> 1 時另外回傳玩家體驗評估。
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	type SimResponse struct {
		Seed      int64                   `json:"seed"`
		Stats     *stats.RallyReport      `json:"stats"`
		Estimator *stats.EstimatorPlayers `json:"est,omitempty"`
		UsedTime  int64                   `json:"used_ms"`
	}
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	// 業務檢驗
	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Players < 1 || req.Players > sh.maxPlayers {
		httperr.Errs(w, errs.Warnf("players must be between 1 and %d", sh.maxPlayers))
		return
	}
	if req.Spins < 1 || req.Spins > sh.maxSpins {
		httperr.Errs(w, errs.Warnf("spins must be between 1 and %d", sh.maxSpins))
		return
	}

	var sim *stamprally.Simulator
	if req.Seed != nil {
		sim, err = sh.sr.NewSimulatorWithSeed(*req.Seed)
	} else {
		sim, err = sh.sr.NewSimulator()
	}
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "build simulator err"))
		return
	}

	resp := SimResponse{Seed: sim.InitSeed()}
	if req.Players == 1 {
		st, used, err := sim.Sim(mode, req.Spins, false)
		if err != nil {
			httperr.Errs(w, errs.Wrap(err, "simulate err"))
			return
		}
		resp.Stats, resp.UsedTime = st, used.Milliseconds()
	} else {
		st, est, used, err := sim.SimPlayers(sh.workers, req.Players, mode, req.Spins, false)
		if err != nil {
			httperr.Errs(w, errs.Wrap(err, "simulate err"))
			return
		}
		resp.Stats, resp.Estimator, resp.UsedTime = st, est, used.Milliseconds()
	}
	writeJSON(w, http.StatusOK, resp)
}
