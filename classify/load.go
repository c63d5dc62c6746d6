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

package classify

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zintix-labs/stamprally/errs"
	"gopkg.in/yaml.v3"
)

// 來源資料允許兩種欄位命名：
//   - {code, label}
//   - {ndc, subject}（圖書分類原始資料的命名）
//
// code 可以是字串或數字（數字 7 會被補成 "007"）。
var (
	codeKeys  = []string{"code", "ndc"}
	labelKeys = []string{"label", "subject"}
)

// ParseJSON 解析 JSON 陣列形式的分類來源。
func ParseJSON(data []byte) ([]Record, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal classification json")
	}
	return normalize(raw)
}

// ParseYAML 解析 YAML 序列形式的分類來源。
func ParseYAML(data []byte) ([]Record, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshal classification yaml")
	}
	return normalize(raw)
}

// Load 從 fs.FS 讀取分類來源並建立 Index，格式依副檔名決定（.json / .yaml / .yml）。
func Load(fsys fs.FS, name string) (*Index, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read classification failed: "+name)
	}
	var recs []Record
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		recs, err = ParseJSON(data)
	case ".yaml", ".yml":
		recs, err = ParseYAML(data)
	default:
		return nil, errs.Fatalf("unsupported classification format: %q", name)
	}
	if err != nil {
		return nil, err
	}
	ix, err := New(recs)
	if err != nil {
		return nil, errs.Wrap(err, "build classification index failed: "+name)
	}
	return ix, nil
}

func normalize(raw []map[string]any) ([]Record, error) {
	recs := make([]Record, 0, len(raw))
	for i, m := range raw {
		code, ok := pick(m, codeKeys)
		if !ok {
			return nil, errs.Warnf("record #%d: missing code", i)
		}
		cs, err := scalarString(code)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("record #%d", i))
		}
		label, _ := pick(m, labelKeys)
		ls := ""
		if label != nil {
			ls = fmt.Sprint(label)
		}
		recs = append(recs, Record{Code: cs, Label: ls})
	}
	return recs, nil
}

func pick(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		if t != math.Trunc(t) || t < 0 {
			return "", errs.Warnf("code %v is not a non-negative integer", t)
		}
		return strconv.FormatInt(int64(t), 10), nil
	default:
		return "", errs.Warnf("code has unsupported type %T", v)
	}
}
