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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/demo/demo_configs"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/server"
	"github.com/zintix-labs/stamprally/server/logger"
	"github.com/zintix-labs/stamprally/server/netsvr"
	"github.com/zintix-labs/stamprally/server/svrcfg"
	"github.com/zintix-labs/stamprally/store"
)

// 集章拉力 HTTP 服務入口。
// 旗標優先；未給旗標時讀環境變數（會先載入工作目錄下的 .env，若存在）。
func main() {
	cfg, closeStore, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeStore()
	if err := server.Run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		closeStore()
		os.Exit(1)
	}
}

type config struct {
	LogMode    string
	Addr       string
	ConfigDir  string
	Store      string
	DataDir    string
	Compress   bool
	RedisAddr  string
	RedisPass  string
	RedisTTL   time.Duration
	PGDSN      string
	PGTable    string
	CORS       string
	MaxSession int
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, func(), error) {
	// .env 不存在不是錯誤
	_ = godotenv.Load()

	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", env("STAMPRALLY_LOG_MODE", "dev"), "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Addr, "addr", env("STAMPRALLY_ADDR", netsvr.DefaultAddr), "listen address")
	flag.StringVar(&cfg.ConfigDir, "configs", env("STAMPRALLY_CONFIGS", ""), "config dir (default: embedded demo configs)")
	flag.StringVar(&cfg.Store, "store", env("STAMPRALLY_STORE", string(store.KindMem)), "save store: mem|file|redis|postgres")
	flag.StringVar(&cfg.DataDir, "data-dir", env("STAMPRALLY_DATA_DIR", "data/sessions"), "file store dir")
	flag.BoolVar(&cfg.Compress, "zstd", true, "file store: zstd compress")
	flag.StringVar(&cfg.RedisAddr, "redis", env("STAMPRALLY_REDIS_ADDR", "localhost:6379"), "redis address")
	flag.StringVar(&cfg.RedisPass, "redis-pass", env("STAMPRALLY_REDIS_PASSWORD", ""), "redis password")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", 30*24*time.Hour, "redis key ttl, 0 = no expiry")
	flag.StringVar(&cfg.PGDSN, "pg", env("STAMPRALLY_PG_DSN", ""), "postgres dsn")
	flag.StringVar(&cfg.PGTable, "pg-table", env("STAMPRALLY_PG_TABLE", "rally_saves"), "postgres table")
	flag.StringVar(&cfg.CORS, "cors", env("STAMPRALLY_CORS", "*"), "comma separated allowed origins")
	flag.IntVar(&cfg.MaxSession, "max-sessions", 10000, "sessions kept in memory")

	flag.Parse()

	mode, err := logger.ParseLogMode(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	var sr *stamprally.StampRally
	if cfg.ConfigDir != "" {
		sr, err = stamprally.New(core.Default(), os.DirFS(cfg.ConfigDir), stamprally.DefaultSettingName)
	} else {
		sr, err = stamprally.New(core.Default(), demo_configs.FS, stamprally.DefaultSettingName)
	}
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := store.Open(ctx, store.Config{
		Kind:          store.Kind(cfg.Store),
		Dir:           cfg.DataDir,
		Compress:      cfg.Compress,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPass,
		TTL:           cfg.RedisTTL,
		PostgresDSN:   cfg.PGDSN,
		Table:         cfg.PGTable,
	})
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() { _ = st.Close() }

	pool, err := sr.NewSessionPool(st,
		stamprally.WithLogger(log),
		stamprally.WithMaxSessions(cfg.MaxSession),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Addr:        cfg.Addr,
		Log:         log,
		Rally:       sr,
		Pool:        pool,
		CORSOrigins: splitList(cfg.CORS),
	}
	return sCfg, closeStore, nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
