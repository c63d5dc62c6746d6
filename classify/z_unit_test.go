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
	"testing"
	"testing/fstest"
)

func mustIndex(t *testing.T, recs []Record) *Index {
	t.Helper()
	ix, err := New(recs)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	return ix
}

func TestNewIndexBasics(t *testing.T) {
	ix := mustIndex(t, []Record{
		{Code: "7", Label: "情報科学"},
		{Code: "410", Label: "数学"},
		{Code: "416", Label: "   "},
		{Code: " 123 ", Label: "x"},
	})
	if ix.Len() != 3 {
		t.Fatalf("expected 3 valid codes, got %d", ix.Len())
	}
	if !ix.IsValid("007") || !ix.IsValidCell(0, 0, 7) {
		t.Fatalf("007 should be valid after padding")
	}
	if ix.IsValid("416") {
		t.Fatalf("blank label must not be valid")
	}
	if ix.IsValidCell(10, 0, 0) || ix.IsValidCell(-1, 0, 0) {
		t.Fatalf("out of range cell must be invalid")
	}
	if l, ok := ix.Label("410"); !ok || l != "数学" {
		t.Fatalf("label lookup failed: %q %v", l, ok)
	}
	if _, ok := ix.Label("999"); ok {
		t.Fatalf("unexpected label for 999")
	}
	want := []string{"007", "123", "410"}
	for i, tr := range ix.All() {
		if tr.Code() != want[i] {
			t.Fatalf("All()[%d] = %s, want %s", i, tr.Code(), want[i])
		}
	}
}

func TestByPagePartition(t *testing.T) {
	recs := make([]Record, 0, 300)
	for i := 0; i < 1000; i += 3 {
		recs = append(recs, Record{Code: Triple{X: i / 100, Y: i / 10 % 10, Z: i % 10}.Code(), Label: "l"})
	}
	ix := mustIndex(t, recs)

	seen := map[Triple]bool{}
	total := 0
	for d := 0; d < Digits; d++ {
		for _, tr := range ix.ByPage(d) {
			if tr.X != d {
				t.Fatalf("page %d contains %s", d, tr.Code())
			}
			if seen[tr] {
				t.Fatalf("duplicate %s across pages", tr.Code())
			}
			seen[tr] = true
			total++
		}
		if ix.PageLen(d) != len(ix.ByPage(d)) {
			t.Fatalf("PageLen mismatch on page %d", d)
		}
	}
	if total != ix.Len() {
		t.Fatalf("union of pages %d != all %d", total, ix.Len())
	}
	for _, tr := range ix.All() {
		if !seen[tr] {
			t.Fatalf("%s missing from pages", tr.Code())
		}
	}
	if ix.ByPage(10) != nil || ix.ByPage(-1) != nil {
		t.Fatalf("out of range page should be nil")
	}
}

func TestNewIndexErrors(t *testing.T) {
	cases := map[string][]Record{
		"dup":     {{Code: "001", Label: "a"}, {Code: "1", Label: "b"}},
		"long":    {{Code: "1234", Label: "a"}},
		"alpha":   {{Code: "1a2", Label: "a"}},
		"empty":   {{Code: "", Label: "a"}},
		"nothing": {{Code: "001", Label: ""}},
	}
	for name, recs := range cases {
		if _, err := New(recs); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseCode(t *testing.T) {
	tr, ok := ParseCode("307")
	if !ok || tr != (Triple{X: 3, Y: 0, Z: 7}) {
		t.Fatalf("ParseCode(307) = %v %v", tr, ok)
	}
	for _, bad := range []string{"", "30", "3077", "3a7", "-07"} {
		if _, ok := ParseCode(bad); ok {
			t.Errorf("ParseCode(%q) should fail", bad)
		}
	}
}

func TestLoadFormats(t *testing.T) {
	fsys := fstest.MapFS{
		"ndc.json":  {Data: []byte(`[{"ndc":"000","subject":"総記"},{"ndc":7,"subject":"情報科学"},{"code":"410","label":"数学"}]`)},
		"ndc.yaml":  {Data: []byte("- code: \"000\"\n  label: 総記\n- ndc: 7\n  subject: 情報科学\n")},
		"ndc.csv":   {Data: []byte("000,総記\n")},
		"bad.json":  {Data: []byte(`{"ndc":"000"}`)},
		"frac.json": {Data: []byte(`[{"ndc":1.5,"subject":"x"}]`)},
	}
	ix, err := Load(fsys, "ndc.json")
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if ix.Len() != 3 || !ix.IsValid("007") {
		t.Fatalf("json index wrong: len=%d", ix.Len())
	}
	ix, err = Load(fsys, "ndc.yaml")
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if ix.Len() != 2 || !ix.IsValid("007") {
		t.Fatalf("yaml index wrong: len=%d", ix.Len())
	}
	for _, name := range []string{"ndc.csv", "bad.json", "frac.json", "missing.json"} {
		if _, err := Load(fsys, name); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	ix := mustIndex(t, []Record{{Code: "910", Label: "日本文学"}, {Code: "000", Label: "総記"}})
	again := mustIndex(t, ix.Records())
	if again.Len() != ix.Len() {
		t.Fatalf("round trip changed size")
	}
	for _, r := range ix.Records() {
		if l, _ := again.Label(r.Code); l != r.Label {
			t.Fatalf("label mismatch for %s", r.Code)
		}
	}
}
