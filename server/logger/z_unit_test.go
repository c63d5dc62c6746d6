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

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestParseLogMode(t *testing.T) {
	cases := map[string]LogMode{"": ModeDev, "dev": ModeDev, "PROD": ModeProd, "silence": ModeSilence}
	for in, want := range cases {
		got, err := ParseLogMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLogMode("loud"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	out := &syncBuf{}
	ah := NewAsyncHandler(slog.NewTextHandler(out, nil), 64)
	log := slog.New(ah).With(slog.String("session", "s1"))
	for i := 0; i < 10; i++ {
		log.Info("session.spin", slog.Int("i", i))
	}
	ah.Close()
	ah.Close()

	got := out.String()
	if n := strings.Count(got, "session.spin"); n != 10 {
		t.Fatalf("expected 10 lines after drain, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "session=s1") {
		t.Fatalf("attrs lost: %s", got)
	}

	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("record after close should be dropped, dropped=%d", ah.Dropped())
	}
}
