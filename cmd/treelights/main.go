package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-treelights/internal/animation"
	"github.com/coreman2200/funtimes-treelights/internal/config"
	"github.com/coreman2200/funtimes-treelights/internal/mirror"
	"github.com/coreman2200/funtimes-treelights/internal/scan"
	"github.com/coreman2200/funtimes-treelights/model"
)

func main() {
	// ---- Flags (config.yaml supplies the rest) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: sim | pins | pca9685 (overrides config)")
		logLevel   = flag.String("log-level", "", "zerolog level (overrides config)")
		selfTest   = flag.Bool("self-test", false, "run the wiring test before the show")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		mirrorKind = flag.String("mirror", "", "mirror the lights: spi | screen")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config ----
	cfg := config.Defaults()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
	} else {
		cfg = c
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *selfTest {
		cfg.SelfTest = true
	}
	if *mirrorKind != "" {
		cfg.Mirror.Enabled = true
		cfg.Mirror.Kind = *mirrorKind
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("unknown log level")
	} else {
		zerolog.SetGlobalLevel(lvl)
	}

	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; hardware drivers unavailable")
	}

	// ---- Driver selection: falls back to sim ----
	be, err := openBackend(cfg)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Driver).Msg("driver init failed; falling back to SIM")
		be = simBackend()
	}
	defer be.Close()

	lights := model.NewLights()
	clk := scan.NewClock(cfg.TicksPerMS(), time.Duration(cfg.StallTimeoutMs)*time.Millisecond)
	drv := scan.NewDriver(lights, be.chans, be.src, clk, cfg.BlankTicks)
	loop := scan.NewLooper(drv, cfg.TickHz)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Start(ctx); err != nil {
		log.Fatal().Err(err).Str("driver", be.name).Msg("scan start failed")
	}
	log.Info().Str("driver", be.name).Int("tick_hz", cfg.TickHz).Msg("tree lights running")

	var m *mirror.Mirror
	if cfg.Mirror.Enabled {
		out, err := mirror.Open(cfg.Mirror.Kind, cfg.Mirror.SPIDev, model.LedCount)
		if err != nil {
			log.Warn().Err(err).Msg("mirror unavailable")
		} else {
			defer out.Close()
			m = mirror.New(lights, out.Drawer, cfg.Mirror.FPS, cfg.Mirror.MaxBrightness)
			m.Start(ctx)
		}
	}

	ctrl := animation.NewController(lights, clk, animationOptions(cfg))
	runErr := ctrl.Run(ctx)
	if runErr == nil && ctx.Err() == nil {
		// a bounded run is over; hold the final frame until signalled
		<-ctx.Done()
	}
	log.Info().Str("phase", string(ctrl.Phase())).Msg("shutting down")

	if m != nil {
		if err := m.Stop(); err != nil {
			log.Warn().Err(err).Msg("mirror halt")
		}
	}
	if err := loop.Stop(); err != nil {
		log.Warn().Err(err).Msg("scan stop")
	}
	if runErr != nil {
		be.Close()
		os.Exit(1)
	}
}
