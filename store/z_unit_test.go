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

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/stamprally/errs"
)

var payload = []byte(`{"schemaVersion":4,"bookmarkTickets":30,"note":"` + strings.Repeat("x", 512) + `"}`)

// sameJSON postgres JSONB 會重排鍵與空白，只比較語意。
func sameJSON(a, b []byte) bool {
	var x, y any
	if json.Unmarshal(a, &x) != nil || json.Unmarshal(b, &y) != nil {
		return false
	}
	return reflect.DeepEqual(x, y)
}

// exercise 所有後端共用的行為檢查
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	id := "sess-1"

	if _, err := s.Load(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("load missing: expected ErrNotFound, got %v", err)
	}
	if err := s.Save(ctx, id, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !sameJSON(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}

	next := []byte(`{"schemaVersion":4,"bookmarkTickets":1}`)
	if err := s.Save(ctx, id, next); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := s.Load(ctx, id); !sameJSON(got, next) {
		t.Fatalf("overwrite not visible: %q", got)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete twice should be a no-op: %v", err)
	}
	if _, err := s.Load(ctx, id); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("load after delete: %v", err)
	}

	if err := s.Save(ctx, "../escape", payload); !errs.IsWarn(err) {
		t.Fatalf("bad id should be rejected with warn, got %v", err)
	}
}

func TestMemStore(t *testing.T) {
	m := NewMemStore()
	exercise(t, m)

	// 回傳的是副本
	ctx := context.Background()
	buf := []byte(`{"a":1}`)
	_ = m.Save(ctx, "copy", buf)
	buf[0] = 'X'
	got, _ := m.Load(ctx, "copy")
	if got[0] != '{' {
		t.Fatalf("mem store must copy on save")
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Load(cctx, "copy"); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled ctx should fail, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		fsr, err := NewFileStore(dir, compress)
		if err != nil {
			t.Fatalf("new file store: %v", err)
		}
		exercise(t, fsr)

		if err := fsr.Save(context.Background(), "kept", payload); err != nil {
			t.Fatalf("save: %v", err)
		}
		name := "kept.json"
		if compress {
			name += ".zst"
		}
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s on disk: %v", name, err)
		}
		if compress && len(raw) >= len(payload) {
			t.Fatalf("zstd file should be smaller than payload (%d >= %d)", len(raw), len(payload))
		}
		if !compress && !bytes.Equal(raw, payload) {
			t.Fatalf("plain file should hold payload verbatim")
		}
		matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
		if len(matches) != 0 {
			t.Fatalf("temp files left behind: %v", matches)
		}
		_ = fsr.Close()
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	fsr, err := NewFileStore(dir, true)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer fsr.Close()
	_ = os.WriteFile(filepath.Join(dir, "bad.json.zst"), []byte("not zstd"), 0o644)
	_, err = fsr.Load(context.Background(), "bad")
	if err == nil || errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("corrupt file should be a decode error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{})
	if err != nil {
		t.Fatalf("default open: %v", err)
	}
	if _, ok := s.(*MemStore); !ok {
		t.Fatalf("default kind should be mem, got %T", s)
	}
	s, err = Open(ctx, Config{Kind: "FILE", Dir: t.TempDir(), Compress: true})
	if err != nil {
		t.Fatalf("file open: %v", err)
	}
	_ = s.Close()
	if _, err := Open(ctx, Config{Kind: "dynamo"}); !errs.IsWarn(err) {
		t.Fatalf("unknown kind should be warn, got %v", err)
	}
	if _, err := Open(ctx, Config{Kind: KindFile}); err == nil {
		t.Fatalf("file store without dir should fail")
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"a", "0b2c-11ee_x", strings.Repeat("z", 64)} {
		if err := ValidID(id); err != nil {
			t.Errorf("%q should be valid: %v", id, err)
		}
	}
	for _, id := range []string{"", "a/b", "..", "a b", strings.Repeat("z", 65)} {
		if err := ValidID(id); err == nil {
			t.Errorf("%q should be invalid", id)
		}
	}
}

// 設定 STAMPRALLY_TEST_REDIS=127.0.0.1:6379 才會執行
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("STAMPRALLY_TEST_REDIS")
	if addr == "" {
		t.Skipf("STAMPRALLY_TEST_REDIS not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rs, err := NewRedisStore(ctx, RedisOptions{Addr: addr, DB: 15, TTL: time.Minute})
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	defer rs.Close()
	exercise(t, rs)
}

// 設定 STAMPRALLY_TEST_PG=postgres://... 才會執行
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STAMPRALLY_TEST_PG")
	if dsn == "" {
		t.Skipf("STAMPRALLY_TEST_PG not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ps, err := NewPostgresStore(ctx, dsn, "stamprally_sessions_test")
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	defer ps.Close()
	exercise(t, ps)

	if _, err := NewPostgresStoreWithPool(ctx, ps.dbc, "bad-name;"); !errs.IsWarn(err) {
		t.Fatalf("bad table name should be rejected, got %v", err)
	}
}
