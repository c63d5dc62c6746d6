package main

import (
	"flag"
	"io/fs"
	"os"

	"github.com/zintix-labs/stamprally"
	"github.com/zintix-labs/stamprally/demo/demo_configs"
	"github.com/zintix-labs/stamprally/engine"
	"github.com/zintix-labs/stamprally/errs"
	"github.com/zintix-labs/stamprally/sdk/core"
	"github.com/zintix-labs/stamprally/sdk/perf"
	"github.com/zintix-labs/stamprally/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	configDir string
	setting   string
	worker    int
	player    int
	spins     int
	mode      engine.Mode
	seed      int64
	out       string
	pprof     perf.Profile
}

func bindVar() error {
	var mode, pp string
	flag.StringVar(&cfg.configDir, "configs", "", "config dir (default: embedded demo configs)")
	flag.StringVar(&cfg.setting, "setting", stamprally.DefaultSettingName, "setting file name inside config dir")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "players", 1, "number of players")
	flag.IntVar(&cfg.spins, "spins", 100000, "spins per player")
	flag.StringVar(&mode, "mode", "auto", "spin mode: auto|ticket")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.out, "out", "", "machine readable output: ''|json|yaml")
	flag.StringVar(&pp, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	var err error
	if cfg.mode, err = engine.ParseMode(mode); err != nil {
		return err
	}
	if cfg.pprof, err = perf.ParseProfile(pp); err != nil {
		return err
	}
	return cfg.valid()
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() error {
	var fsys fs.FS = demo_configs.FS
	if cfg.configDir != "" {
		fsys = os.DirFS(cfg.configDir)
	}
	sr, err := stamprally.New(core.Default(), fsys, cfg.setting)
	if err != nil {
		return err
	}
	var s *stamprally.Simulator
	if cfg.seed < 0 {
		s, err = sr.NewSimulator()
	} else {
		s, err = sr.NewSimulatorWithSeed(cfg.seed)
	}
	if err != nil {
		return err
	}
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	quiet := cfg.out != ""

	if cfg.player == 1 {
		if !quiet {
			p.Printf("%s[RALLY:%s] [MODE:%s] [SPINS:%d] [SEED:%d]%s\n", green, s.RallyName, cfg.mode, cfg.spins, s.InitSeed(), reset)
		}
		st, used, err := s.Sim(cfg.mode, cfg.spins, !quiet)
		if err != nil {
			return err
		}
		return output(st, nil, func() { st.StdOut(used) })
	}
	if !quiet {
		p.Printf("%s[WORKERS:%d] [RALLY:%s] [PLAYERS:%d MODE:%s SPINS:%d SEED:%d]%s\n", green, cfg.worker, s.RallyName, cfg.player, cfg.mode, cfg.spins, s.InitSeed(), reset)
	}
	st, est, used, err := s.SimPlayers(cfg.worker, cfg.player, cfg.mode, cfg.spins, !quiet)
	if err != nil {
		return err
	}
	return output(st, est, func() {
		st.StdOut(used)
		est.Out()
	})
}

func output(st *stats.RallyReport, est *stats.EstimatorPlayers, human func()) error {
	switch cfg.out {
	case "":
		human()
		return nil
	case "json":
		if err := st.WriteWith(os.Stdout, &stats.JsonReportRender{}); err != nil {
			return err
		}
		if est != nil {
			return (&stats.JsonEstimatorRender{}).Write(os.Stdout, est)
		}
		return nil
	case "yaml":
		if err := st.WriteWith(os.Stdout, &stats.YAMLReportRender{}); err != nil {
			return err
		}
		if est != nil {
			os.Stdout.WriteString("---\n")
			return (&stats.YAMLEstimatorRender{}).Write(os.Stdout, est)
		}
		return nil
	}
	return errs.Warnf("unknown output format %q", cfg.out)
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	if cfg.player < 1 {
		return errs.NewWarn("value err : players must > 0")
	}
	// 玩家數量太多 resize
	if cfg.player > 100000 {
		p.Printf("too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if cfg.spins < 1 {
		return errs.NewWarn("value err : spins must > 0")
	}
	// 多玩家時每人轉數上限；預設活動約 1500 轉內集滿
	if cfg.player > 1 && cfg.spins > 20000 {
		p.Printf("too much spins for each players : %d resized to 20k spins for each player\n", cfg.spins)
		cfg.spins = 20000
	}
	switch cfg.out {
	case "", "json", "yaml":
	default:
		return errs.Warnf("value err : unknown output format %q", cfg.out)
	}
	return nil
}
