package main

import (
	"errors"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"

	"github.com/rawbytedev/implptr"
)

type config struct {
	PprofAddr  string        `env:"IMPLPTR_PPROF_ADDR" envDefault:"localhost:6060"`
	Profile    string        `env:"IMPLPTR_PROFILE" envDefault:"mem.prof"`
	Iterations int           `env:"IMPLPTR_ITERATIONS" envDefault:"10000"`
	Hold       time.Duration `env:"IMPLPTR_HOLD" envDefault:"5m"`
	Debug      bool          `env:"IMPLPTR_DEBUG"`
}

type payload struct {
	Val      []string
	Mod      []int8
	Integers []int16
	Float3   []float32
	Float6   []float64
}

type holder struct {
	ID   int
	impl implptr.Ptr[payload]
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("parse config", "err", err)
		os.Exit(1)
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen}))

	go func() {
		if err := http.ListenAndServe(cfg.PprofAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server", "addr", cfg.PprofAddr, "err", err)
		}
	}()
	f, err := os.Create(cfg.Profile)
	if err != nil {
		logger.Error("create profile", "path", cfg.Profile, "err", err)
		os.Exit(1)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	h := holder{ID: 1, impl: implptr.Make(payload{
		Val: []string{"azerty", "hello", "world", "random"},
		Mod: []int8{12, 10, 13, 0}, Integers: []int16{100, 250, 300},
		Float3: []float32{12.13, 16.23, 75.1}, Float6: []float64{100.5, 165.63, 153.5},
	})}
	defer implptr.Release(&h)

	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		c := implptr.Copy(&h)
		m := implptr.Move(&c)
		implptr.AssignMove(&h, &m)
		implptr.Release(&c)
		implptr.Release(&m)
		if i%1000 == 0 {
			logger.Debug("progress", "iteration", i)
		}
	}
	logger.Info("copy/move loop done", "iterations", cfg.Iterations, "elapsed", time.Since(start))

	if err := pprof.WriteHeapProfile(f); err != nil {
		logger.Error("write heap profile", "err", err)
		os.Exit(1)
	}
	logger.Info("heap profile written", "path", cfg.Profile, "pprof", cfg.PprofAddr, "hold", cfg.Hold)
	time.Sleep(cfg.Hold)
}
