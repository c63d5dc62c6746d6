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

// Package errs 定義集章拉力（stamp rally）全系統共用的分級錯誤。
//
// 分級讓最上層（HTTP 邊界、CLI）不需要理解錯誤內容，就能決定處理方式：
//   - Fatal：系統/基礎設施問題（存檔後端掛掉、設定檔損壞）。
//   - Warn：請求或輸入問題（參數越界、格式錯誤、找不到 session）。
//   - Log：只需記錄、不影響流程。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// ErrNotFound 為「資源不存在」的哨兵錯誤（session、存檔、分類碼）。
// 以 NotFoundf 建立的錯誤可用 errors.Is(err, ErrNotFound) 判斷。
var ErrNotFound = errors.New("not found")

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；Cause 串接下層錯誤。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E { return New(Fatal, msg) }

func NewWarn(msg string) *E { return New(Warn, msg) }

func NewLog(msg string) *E { return New(Log, msg) }

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NotFoundf 建立 Warn 等級且 Cause 為 ErrNotFound 的錯誤。
func NotFoundf(format string, a ...any) *E {
	e := Warnf(format, a...)
	e.Cause = ErrNotFound
	return e
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤。
//   - cause 已經是 *E：沿用其 ErrLv。
//   - cause 來自標準庫或三方依賴（redis、pgx、io）：一律視為 Fatal。
//
// 若已判斷是「可預期且可處理」的情境，請直接用 NewWarn 建立，不要 Wrap。
func Wrap(cause error, msg string) *E {
	return WrapWithExtra(cause, msg, "")
}

// WrapWithExtra 與 Wrap 相同，另外附加上下文（例如 session id）。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := NewWithExtra(Level(cause), msg, extra)
	r.Cause = cause
	return r
}

// Level 回傳錯誤鏈上第一個 *E 的等級；非本包錯誤視為 Fatal，nil 為 None。
func Level(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}

// IsWarn 判斷是否為請求/輸入層級的錯誤。
func IsWarn(err error) bool { return Level(err) == Warn }

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}
