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

// Package store 提供存檔的持久化後端。
//
// 存檔內容對 store 而言是不透明的位元組（Session 負責編碼），
// 後端只需要依 id 讀、寫、刪。找不到時回傳帶有 errs.ErrNotFound 的錯誤。
package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/zintix-labs/stamprally/errs"
)

// Store 存檔後端
type Store interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Kind 後端種類
type Kind string

const (
	KindMem      Kind = "mem"
	KindFile     Kind = "file"
	KindRedis    Kind = "redis"
	KindPostgres Kind = "postgres"
)

// Config 由 cmd/svr 組出；只有對應 Kind 的欄位會被使用。
type Config struct {
	Kind Kind

	Dir      string // file
	Compress bool   // file: zstd

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration // redis: 0 表示不過期

	PostgresDSN string
	Table       string
}

// Open 依設定建立後端。
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Kind(strings.ToLower(string(cfg.Kind))) {
	case "", KindMem:
		return NewMemStore(), nil
	case KindFile:
		return NewFileStore(cfg.Dir, cfg.Compress)
	case KindRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	case KindPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Table)
	}
	return nil, errs.Warnf("unknown store kind %q", cfg.Kind)
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID session id 只允許英數、底線、連字號（會出現在檔名與 redis key 中）。
func ValidID(id string) error {
	if !idPattern.MatchString(id) {
		return errs.Warnf("invalid session id %q", id)
	}
	return nil
}
