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

package setting

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/stamprally/errs"
	"gopkg.in/yaml.v3"
)

// GetRallySettingByYAML
// 以 Default() 為底讀取 YAML 設定，初始化並執行基本檢查後回傳。
func GetRallySettingByYAML(data []byte) (*RallySetting, error) {
	rs := Default()
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "rally setting initialized err")
	}
	return rs, nil
}

// GetRallySettingByJSON
// 以 Default() 為底讀取 JSON 設定，初始化並執行基本檢查後回傳。
func GetRallySettingByJSON(data []byte) (*RallySetting, error) {
	rs := Default()
	if err := json.Unmarshal(data, rs); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := rs.init(); err != nil {
		return nil, errs.Wrap(err, "rally setting initialized err")
	}
	return rs, nil
}

// Load 從 fs.FS 讀取設定檔，格式依副檔名決定。
func Load(fsys fs.FS, name string) (*RallySetting, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "read rally setting failed: "+name)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return GetRallySettingByYAML(raw)
	case ".json":
		return GetRallySettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", name)
	}
}
