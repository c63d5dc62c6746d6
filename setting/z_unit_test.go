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
	"testing"
	"testing/fstest"
)

func TestDefaultIsValid(t *testing.T) {
	rs := Default()
	if err := rs.init(); err != nil {
		t.Fatalf("default setting invalid: %v", err)
	}
	for s := 1; s < PityTableLen; s++ {
		if PityAt(rs.PityTable, s) < PityAt(rs.PityTable, s-1) {
			t.Fatalf("default pity table not monotonic at %d", s)
		}
	}
	if PityAt(rs.PityTable, 7) != 1 || PityAt(rs.PityTable, 99) != 1 || PityAt(rs.PityTable, -3) != 0 {
		t.Fatalf("pity clamp wrong")
	}
}

func TestYAMLOverridesKeepDefaults(t *testing.T) {
	raw := []byte(`
name: spring
free_spins_per_day: 0
rewards:
  dupe: 0
  triple: 20
`)
	rs, err := GetRallySettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if rs.Name != "spring" || rs.FreeSpinsPerDay != 0 {
		t.Fatalf("override not applied: %+v", rs)
	}
	if rs.Rewards.Dupe != 0 || rs.Rewards.Triple != 20 {
		t.Fatalf("reward override not applied: %+v", rs.Rewards)
	}
	if rs.Rewards.New != 2 || rs.Rewards.PageComplete != 50 || rs.TicketsPerExtraSpin != 10 {
		t.Fatalf("defaults lost: %+v", rs)
	}
}

func TestJSONSetting(t *testing.T) {
	rs, err := GetRallySettingByJSON([]byte(`{"name":"j","pity_table":[0,0,0,0,0,0,0,1],"nearest_pool":3}`))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if rs.NearestPool != 3 || PityAt(rs.PityTable, 6) != 0 {
		t.Fatalf("json not applied: %+v", rs)
	}
}

func TestInvalidSettings(t *testing.T) {
	bad := []string{
		`name: ""`,
		`start_tickets: -1`,
		`tickets_per_extra_spin: -2`,
		`nearest_pool: 0`,
		`pity_table: [0, 0.5, 1]`,
		`pity_table: [0, 0.5, 0.4, 0.6, 0.7, 0.8, 0.9, 1]`,
		`pity_table: [0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7]`,
		`pity_table: [0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 1.5]`,
		`history_limit: -1`,
		`free_spins_per_day: -1`,
		`: [`,
	}
	for _, b := range bad {
		if _, err := GetRallySettingByYAML([]byte(b)); err == nil {
			t.Errorf("expected error for %q", b)
		}
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"rally.yaml": {Data: []byte("name: a\n")},
		"rally.json": {Data: []byte(`{"name":"b"}`)},
		"rally.toml": {Data: []byte(`name = "c"`)},
	}
	if rs, err := Load(fsys, "rally.yaml"); err != nil || rs.Name != "a" {
		t.Fatalf("yaml load: %v", err)
	}
	if rs, err := Load(fsys, "rally.json"); err != nil || rs.Name != "b" {
		t.Fatalf("json load: %v", err)
	}
	if _, err := Load(fsys, "rally.toml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if _, err := Load(fsys, "none.yaml"); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestClone(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.PityTable[0] = 0.5
	if a.PityTable[0] != 0 {
		t.Fatalf("clone shares pity table")
	}
}
