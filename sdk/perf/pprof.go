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

// Package perf 提供命令列工具的 pprof 包裝。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/stamprally/errs"
)

// Dir pprof 檔案寫入路徑
const Dir = "build/profiling"

// Profile 要採集的 profile 種類
type Profile string

const (
	ProfileNone   Profile = ""
	ProfileCPU    Profile = "cpu"
	ProfileHeap   Profile = "heap"
	ProfileAllocs Profile = "allocs"
)

// ParseProfile 解析 -p 旗標；未知值回傳 Warn。
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(s); p {
	case ProfileNone, ProfileCPU, ProfileHeap, ProfileAllocs:
		return p, nil
	}
	return ProfileNone, errs.Warnf("unknown pprof mode %q (want cpu|heap|allocs)", s)
}

// Run 依 prof 包住 exe 執行，profile 寫到 Dir 底下。
// ProfileNone 直接執行 exe。
//
// Usage like:
//
//	go run ./cmd/run -p cpu
//	go tool pprof build/profiling/cpu.pprof
func Run(exe func() error, prof Profile) error {
	switch prof {
	case ProfileNone:
		return exe()
	case ProfileCPU:
		return runCPU(exe)
	case ProfileHeap, ProfileAllocs:
		if err := exe(); err != nil {
			return err
		}
		return writeSnapshot(prof)
	}
	return errs.Warnf("unknown pprof mode %q", prof)
}

func create(prof Profile) (*os.File, error) {
	if err := os.MkdirAll(Dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create profiling dir")
	}
	f, err := os.Create(filepath.Join(Dir, string(prof)+".pprof"))
	if err != nil {
		return nil, errs.WrapWithExtra(err, "create pprof file", string(prof))
	}
	return f, nil
}

// CPU profile 也可以拿來做 pgo 的 default.pgo
func runCPU(exe func() error) error {
	f, err := create(ProfileCPU)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// heap 為 in-use 快照，寫出前先 GC；allocs 為累積配置。
func writeSnapshot(prof Profile) error {
	f, err := create(prof)
	if err != nil {
		return err
	}
	defer f.Close()
	if prof == ProfileHeap {
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return errs.Wrap(err, "write heap profile")
		}
		return nil
	}
	if p := pprof.Lookup("allocs"); p != nil {
		if err := p.WriteTo(f, 0); err != nil {
			return errs.Wrap(err, "write allocs profile")
		}
	}
	return nil
}
