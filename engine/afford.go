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

package engine

import (
	"strings"

	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/setting"
	"github.com/zintix-labs/stamprally/state"
)

// Mode 支付方式
type Mode string

const (
	ModeAuto   Mode = "auto"   // 先用每日免費次數，用完才扣書籤券
	ModeTicket Mode = "ticket" // 一律扣書籤券
)

// ParseMode 空字串視為 auto。
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeTicket:
		return ModeTicket, nil
	}
	return "", errs.Warnf("unknown spin mode %q", s)
}

// CanSpin 書籤券 >= cost。
func CanSpin(st *state.GameState, cost int) bool {
	return st.Tickets >= cost
}

// ConsumeSpin 扣除 cost，下限 0；須先以 CanSpin 確認。
func ConsumeSpin(st *state.GameState, cost int) {
	st.AddTickets(-cost)
}

// CanSpinMode 依支付方式判斷可否抽選。
func CanSpinMode(st *state.GameState, set *setting.RallySetting, mode Mode) bool {
	if mode != ModeTicket && st.FreeSpinsLeft > 0 {
		return true
	}
	return CanSpin(st, set.TicketsPerExtraSpin)
}

// ConsumeSpinMode 依支付方式扣費，回傳是否使用了免費次數與扣除的書籤券。
func ConsumeSpinMode(st *state.GameState, set *setting.RallySetting, mode Mode) (usedFree bool, cost int) {
	if mode != ModeTicket && st.FreeSpinsLeft > 0 {
		st.FreeSpinsLeft--
		return true, 0
	}
	ConsumeSpin(st, set.TicketsPerExtraSpin)
	return false, set.TicketsPerExtraSpin
}
