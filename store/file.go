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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/stamprally/errs"
)

// FileStore 每個 session 一個檔案：<dir>/<id>.json，或開啟壓縮時 <dir>/<id>.json.zst。
// 寫入先落到暫存檔再 rename，避免半寫入的存檔。
type FileStore struct {
	dir      string
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

func NewFileStore(dir string, compress bool) (*FileStore, error) {
	if dir == "" {
		return nil, errs.NewWarn("file store: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "file store: mkdir")
	}
	fsr := &FileStore{dir: dir, compress: compress}
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errs.Wrap(err, "file store: create zstd writer")
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errs.Wrap(err, "file store: create zstd reader")
		}
		fsr.enc, fsr.dec = enc, dec
	}
	return fsr, nil
}

func (f *FileStore) path(id string) string {
	name := id + ".json"
	if f.compress {
		name += ".zst"
	}
	return filepath.Join(f.dir, name)
}

func (f *FileStore) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidID(id); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.NotFoundf("save %s", id)
	}
	if err != nil {
		return nil, errs.WrapWithExtra(err, "file store: read", id)
	}
	if !f.compress {
		return b, nil
	}
	out, err := f.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "file store: zstd decode", id)
	}
	return out, nil
}

func (f *FileStore) Save(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidID(id); err != nil {
		return err
	}
	if f.compress {
		data = f.enc.EncodeAll(data, nil)
	}
	tmp, err := os.CreateTemp(f.dir, id+".*.tmp")
	if err != nil {
		return errs.WrapWithExtra(err, "file store: create temp", id)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errs.WrapWithExtra(err, "file store: write", id)
	}
	if err := tmp.Close(); err != nil {
		return errs.WrapWithExtra(err, "file store: close", id)
	}
	if err := os.Rename(tmp.Name(), f.path(id)); err != nil {
		return errs.WrapWithExtra(err, "file store: rename", id)
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidID(id); err != nil {
		return err
	}
	err := os.Remove(f.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.WrapWithExtra(err, "file store: remove", id)
	}
	return nil
}

func (f *FileStore) Close() error {
	if f.dec != nil {
		f.dec.Close()
	}
	if f.enc != nil {
		return f.enc.Close()
	}
	return nil
}
