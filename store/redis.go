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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zintix-labs/stamprally/errs"
)

// KeySession redis 中存檔的 key
const KeySession = "stamprally:session:%s"

// RedisOptions 連線設定
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 每次寫入刷新；0 表示不過期
}

// RedisStore 每個 session 一個字串值（JSON），寫入時刷新 TTL。
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 建立連線並 Ping 確認可用。
func NewRedisStore(ctx context.Context, opt RedisOptions) (*RedisStore, error) {
	if opt.Addr == "" {
		return nil, errs.NewWarn("redis store: addr required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errs.WrapWithExtra(err, "redis store: ping", opt.Addr)
	}
	return NewRedisStoreWithClient(client, opt.TTL), nil
}

// NewRedisStoreWithClient 使用既有 client（共用連線池）。
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string { return fmt.Sprintf(KeySession, id) }

func (r *RedisStore) Load(ctx context.Context, id string) ([]byte, error) {
	b, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.NotFoundf("save %s", id)
	}
	if err != nil {
		return nil, errs.WrapWithExtra(err, "redis store: get", id)
	}
	return b, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, data []byte) error {
	if err := ValidID(id); err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(id), data, r.ttl).Err(); err != nil {
		return errs.WrapWithExtra(err, "redis store: set", id)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return errs.WrapWithExtra(err, "redis store: del", id)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
