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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewWarn("page out of range")
	w := Wrap(base, "set page")
	if w.ErrLv != Warn {
		t.Fatalf("expected warn, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("wrapped error should unwrap to base")
	}
}

func TestWrapForeignIsFatal(t *testing.T) {
	w := WrapWithExtra(io.ErrUnexpectedEOF, "read save", "id=abc")
	if w.ErrLv != Fatal {
		t.Fatalf("foreign cause must be fatal, got %s", ErrLv(w.ErrLv))
	}
	msg := w.Error()
	for _, part := range []string{"errlv=fatal", "read save", "extra: id=abc", "unexpected EOF"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}

func TestNotFound(t *testing.T) {
	err := Wrap(NotFoundf("session %s", "x1"), "load")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound in chain")
	}
	if !IsWarn(err) {
		t.Fatalf("not found should be warn level")
	}
}

func TestLevel(t *testing.T) {
	if Level(nil) != None {
		t.Fatalf("nil should be None")
	}
	if Level(NewLog("x")) != Log {
		t.Fatalf("expected Log")
	}
	if Level(errors.New("boom")) != Fatal {
		t.Fatalf("foreign error should be Fatal")
	}
}
