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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// task 對應 Makefile 的一個目標
type task struct {
	desc string
	run  func(args []string) error
}

var tasks = map[string]task{
	"test":        {"go test ./... (只顯示 ok / FAIL)", runTest},
	"test-all":    {"go test -cover ./...", runTestAll},
	"test-detail": {"go test -v ./... (略過無測試套件)", runTestDetail},
	"sim":         {"多玩家模擬預設活動 (go run ./cmd/run)", runSim},
	"pgo":         {"以 cpu profile 產生 default.pgo", runPGO},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	name := os.Args[1]
	t, ok := tasks[name]
	if !ok {
		color.Yellow("Unknown task: %s", name)
		usage()
		os.Exit(1)
	}
	if err := t.run(os.Args[2:]); err != nil {
		color.Red("%s failed: %v", name, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run ./scripts [task] [args...]")
	names := make([]string, 0, len(tasks))
	for n := range tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-12s %s\n", n, tasks[n].desc)
	}
}

// colorLine 依 go test 輸出的開頭上色
func colorLine(line string) {
	switch {
	case strings.HasPrefix(line, "ok"):
		color.Green("%s", line)
	case strings.HasPrefix(line, "FAIL"), strings.Contains(line, "build failed"), strings.Contains(line, "setup failed"):
		color.Red("%s", line)
	default:
		fmt.Println(line)
	}
}
