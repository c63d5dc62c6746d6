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
	"bufio"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
)

func cleanCache() error {
	c := exec.Command("go", "clean", "-testcache")
	c.Stdout, c.Stderr = os.Stdout, os.Stderr
	return c.Run()
}

// stream 執行指令並逐行交給 keep 過濾後上色輸出（stderr 併入 stdout）。
func stream(keep func(string) bool, name string, args ...string) error {
	c := exec.Command(name, args...)
	out, err := c.StdoutPipe()
	if err != nil {
		return err
	}
	c.Stderr = c.Stdout
	if err := c.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		if line := sc.Text(); keep(line) {
			colorLine(line)
		}
	}
	if err := sc.Err(); err != nil {
		color.Red("scanner error: %v", err)
	}
	return c.Wait()
}

func passthrough(name string, args ...string) error {
	c := exec.Command(name, args...)
	c.Stdout, c.Stderr, c.Stdin = os.Stdout, os.Stderr, os.Stdin
	return c.Run()
}

func runTest(_ []string) error {
	color.Green("running tests")
	if err := cleanCache(); err != nil {
		color.Red("%v", err)
	}
	summary := func(l string) bool {
		return strings.HasPrefix(l, "ok") || strings.HasPrefix(l, "FAIL") ||
			strings.Contains(l, "build failed") || strings.Contains(l, "setup failed")
	}
	return stream(summary, "go", "test", "./...", "-cover", "-count=1")
}

func runTestAll(_ []string) error {
	color.Green("running tests (all with coverage)")
	if err := cleanCache(); err != nil {
		return err
	}
	return passthrough("go", "test", "./...", "-cover")
}

func runTestDetail(_ []string) error {
	color.Green("running tests (detail)")
	if err := cleanCache(); err != nil {
		return err
	}
	noEmpty := func(l string) bool { return !strings.Contains(l, "[no test files]") }
	return stream(noEmpty, "go", "test", "./...", "-v", "-count=1")
}

// runSim 額外參數原樣轉給 cmd/run
func runSim(args []string) error {
	base := []string{"run", "./cmd/run", "-players", "10000", "-spins", "5000", "-worker", "8"}
	return passthrough("go", append(base, args...)...)
}

// runPGO 跑一次 cpu profile 再複製到 cmd/svr/default.pgo
func runPGO(_ []string) error {
	color.Green("profiling ./cmd/run for pgo")
	if err := passthrough("go", "run", "./cmd/run", "-players", "20000", "-spins", "5000", "-worker", "8", "-p", "cpu"); err != nil {
		return err
	}
	b, err := os.ReadFile("build/profiling/cpu.pprof")
	if err != nil {
		return err
	}
	return os.WriteFile("cmd/svr/default.pgo", b, 0o644)
}
