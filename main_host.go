package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"

	"axon/app"
	"axon/hal"
	"axon/internal/buildinfo"
	"axon/internal/telemetry"
	"axon/kernel"
)

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envUint(key string, def uint64) uint64 {
	if n, err := strconv.ParseUint(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return def
}

func envBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func main() {
	// A missing .env is fine; flags and the environment still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}

	var cfg hal.HeadlessConfig
	var appCfg app.Config
	var enableTelemetry bool
	var level string
	flag.BoolVar(&cfg.Enabled, "headless", envBool("AXON_HEADLESS", false), "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", envInt("AXON_HZ", 60), "Frame rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", envUint("AXON_TICKS", 0), "Stop after N frames in headless mode (0 = run until the demo ends).")
	flag.StringVar(&appCfg.Demo, "demo", envString("AXON_DEMO", app.DemoPipeline), "Demo graph: pipeline, carousel or backplane.")
	flag.IntVar(&appCfg.RoundsPerFrame, "rounds", envInt("AXON_ROUNDS", 32), "Scheduler rounds per frame.")
	flag.Uint64Var(&appCfg.Every, "every", envUint("AXON_EVERY", 250), "Host ticks between demo values.")
	flag.BoolVar(&enableTelemetry, "telemetry", envBool("AXON_TELEMETRY", false), "Export OpenTelemetry traces, metrics and logs to stderr.")
	flag.StringVar(&level, "log-level", envString("AXON_LOG_LEVEL", "info"), "Log level: debug, info, warn or error.")
	flag.Parse()

	lvl, err := telemetry.ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log, shutdown, err := telemetry.Setup(ctx, telemetry.Config{Enabled: enableTelemetry, Level: lvl})
	if err != nil {
		fmt.Fprintln(os.Stderr, "telemetry:", err)
		os.Exit(1)
	}
	kernel.SetLogger(log)
	appCfg.Logger = log
	log.Info("Starting axon", buildinfo.Attrs()...)

	newApp := func(h hal.HAL) func() error { return app.New(h, appCfg) }
	if cfg.Enabled {
		err = hal.RunHeadless(ctx, newApp, cfg)
	} else {
		err = hal.RunWindow(newApp)
	}

	if serr := shutdown(context.Background()); serr != nil {
		log.Warn("Telemetry shutdown failed", "err", serr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("axon stopped", "err", err)
		os.Exit(1)
	}
}
