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
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zintix-labs/stamprally/errs"
)

// DefaultTable postgres 存檔表
const DefaultTable = "stamprally_sessions"

const (
	colID        = "id"
	colData      = "data"
	colUpdatedAt = "updated_at"
)

var tablePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// PostgresStore 每個 session 一列 JSONB。
type PostgresStore struct {
	dbc   *pgxpool.Pool
	table string
	own   bool
}

// NewPostgresStore 建立連線池、Ping 並建表（若不存在）。
func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errs.NewWarn("postgres store: dsn required")
	}
	dbc, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.Wrap(err, "postgres store: create pool")
	}
	if err := dbc.Ping(ctx); err != nil {
		dbc.Close()
		return nil, errs.Wrap(err, "postgres store: ping")
	}
	ps, err := NewPostgresStoreWithPool(ctx, dbc, table)
	if err != nil {
		dbc.Close()
		return nil, err
	}
	ps.own = true
	return ps, nil
}

// NewPostgresStoreWithPool 使用既有連線池；Close 不會關閉它。
func NewPostgresStoreWithPool(ctx context.Context, dbc *pgxpool.Pool, table string) (*PostgresStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tablePattern.MatchString(table) {
		return nil, errs.Warnf("postgres store: invalid table name %q", table)
	}
	ps := &PostgresStore{dbc: dbc, table: table}
	if err := ps.migrate(ctx); err != nil {
		return nil, err
	}
	return ps, nil
}

func (p *PostgresStore) migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s TEXT PRIMARY KEY,
	%s JSONB NOT NULL,
	%s TIMESTAMPTZ NOT NULL DEFAULT now()
)`, p.table, colID, colData, colUpdatedAt)
	if _, err := p.dbc.Exec(ctx, ddl); err != nil {
		return errs.Wrap(err, "postgres store: create table")
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) ([]byte, error) {
	query := sq.Select(colData).
		From(p.table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errs.Wrap(err, "postgres store: build select")
	}

	var data []byte
	err = p.dbc.QueryRow(ctx, sqlStr, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("save %s", id)
	}
	if err != nil {
		return nil, errs.WrapWithExtra(err, "postgres store: select", id)
	}
	return data, nil
}

// Save upsert；存檔必須是合法 JSON。
func (p *PostgresStore) Save(ctx context.Context, id string, data []byte) error {
	if err := ValidID(id); err != nil {
		return err
	}
	query := sq.Insert(p.table).
		Columns(colID, colData, colUpdatedAt).
		Values(id, string(data), sq.Expr("now()")).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = now()",
			colID, colData, colData, colUpdatedAt)).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return errs.Wrap(err, "postgres store: build upsert")
	}
	if _, err := p.dbc.Exec(ctx, sqlStr, args...); err != nil {
		return errs.WrapWithExtra(err, "postgres store: upsert", id)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(p.table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return errs.Wrap(err, "postgres store: build delete")
	}
	if _, err := p.dbc.Exec(ctx, sqlStr, args...); err != nil {
		return errs.WrapWithExtra(err, "postgres store: delete", id)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	if p.own {
		p.dbc.Close()
	}
	return nil
}
