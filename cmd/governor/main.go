package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mindland/governor/internal/capture"
	"github.com/mindland/governor/internal/config"
	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/data"
	"github.com/mindland/governor/internal/governor"
	"github.com/mindland/governor/internal/input"
	"github.com/mindland/governor/internal/persist"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/scripting"
	"github.com/mindland/governor/internal/system"
	"github.com/mindland/governor/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(mode string, targetFPS float64) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            governor  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      frame budget · thermal governor      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mmode:\033[0m %s \033[90m(target: %.0f fps)\033[0m\n\n", mode, targetFPS)
}

func printSection(title string) {
	lineLen := max(46-utf8.RuneCountInString(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

// numbers groups digits by thousands in the startup stats.
var numbers = message.NewPrinter(language.English)

func printStat(label string, count int) {
	numStr := numbers.Sprintf("%d", count)
	dotsLen := max(42-utf8.RuneCountInString(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Frame loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/governor.toml"
	if p := os.Getenv("GOVERNOR_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Governor.Mode, cfg.Governor.TargetFPS)

	// 3. Quality presets and recovery policy
	printSection("quality")

	presets, err := data.LoadQualityPresetTable(cfg.Quality.PresetsPath)
	if err != nil {
		log.Warn("quality presets unavailable, using built-in", zap.Error(err))
		presets = data.BuiltinQualityPresets()
	}
	printStat("presets", presets.Count())

	preset := presets.Get(cfg.Quality.Preset)
	if preset == nil {
		return fmt.Errorf("unknown quality preset %q (have %s)", cfg.Quality.Preset, strings.Join(presets.Names(), ", "))
	}
	baseline := preset.Settings()
	printOK(fmt.Sprintf("baseline %s: render %.0f, textures %s, shadows %s", preset.Name, baseline.RenderDistance, baseline.Texture, baseline.Shadow))

	var recovery quality.RecoveryPolicy
	if cfg.Quality.Script != "" {
		luaEngine, err := scripting.NewEngine(cfg.Quality.Script, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		recovery = luaEngine
		printOK("Lua recovery policy loaded")
	}
	fmt.Println()

	// 4. Governor
	gov, err := governor.New(cfg, governor.Deps{
		Baseline: &baseline,
		Recovery: recovery,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("governor: %w", err)
	}

	printSection("frame pools")
	printStat("entities", cfg.Pools.MaxEntities)
	printStat("transforms", cfg.Pools.MaxTransforms)
	printStat("render commands", cfg.Pools.MaxRenderCommands)
	printStat("input events", cfg.Pools.MaxInputEvents)
	printStat("history frames", gov.History.Cap())
	fmt.Println()

	// 5. Systems
	heat := telemetry.NewSynthetic(uint64(cfg.Governor.StartTime))
	runner := coresys.NewRunner()
	workload := system.NewWorkloadSystem(gov, heat, cfg.Governor.Workload)
	report := system.NewReportSystem(gov, cfg.Governor.ReportInterval, log)
	runner.Register(system.NewInputSystem(gov, func(ev input.Event) {
		if ev.Kind != input.EventKeyPressed {
			return
		}
		switch ev.Key {
		case '+', '=':
			workload.SetLevel(workload.Level() + 0.1)
		case '-':
			workload.SetLevel(workload.Level() - 0.1)
		case 'r':
			report.Report()
			return
		default:
			return
		}
		log.Info("workload changed", zap.Float64("level", workload.Level()))
	}))
	runner.Register(workload)
	runner.Register(report)
	report.TrackPhases(runner)

	// 6. Optional session persistence
	var persistSys *system.PersistenceSystem
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("schema at version %d", version))

		repo := persist.NewHistoryRepo(db)
		sessionID, err := repo.StartSession(ctx, cfg.Governor.Mode, cfg.Quality.Preset, cfg.Governor.TargetFPS)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		printStat("session", int(sessionID))
		fmt.Println()

		sink := persist.NewSink(repo, sessionID, cfg.Database.QueueSize, log)
		persistSys = system.NewPersistenceSystem(gov, sink, cfg.Database.FlushFrames)
		runner.Register(persistSys)

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sink.Close(ctx); err != nil {
				log.Error("close sink", zap.Error(err))
			}
			if err := repo.EndSession(ctx, sessionID, gov.Frame()); err != nil {
				log.Error("end session", zap.Error(err))
			}
			log.Info("session closed",
				zap.Int64("session", sessionID),
				zap.Int64("frames_written", sink.Written()),
				zap.Uint64("batches_dropped", sink.Dropped()),
				zap.Uint64("batches_failed", sink.Failed()))
		}()
	}

	// 7. Optional terminal capture
	quitCh := make(chan struct{}, 1)
	if cfg.Input.Capture {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		capt := capture.New(screen, gov.Input, log, func() {
			select {
			case quitCh <- struct{}{}:
			default:
			}
		})
		if err := capt.Start(); err != nil {
			return err
		}
		defer capt.Stop()
	}

	// 8. Start frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	frameTime := time.Duration(float64(time.Second) / cfg.Governor.TargetFPS)
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("frame loop started (%s per frame, %d systems)", frameTime, runner.Len()))
	printReady(fmt.Sprintf("workload %.0f%% of %d entities", workload.Level()*100, cfg.Pools.MaxEntities))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			if _, err := system.RunFrame(gov, runner, heat, frameTime); err != nil {
				return fmt.Errorf("frame loop: %w", err)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return shutdown(gov, persistSys, log)
		case <-quitCh:
			log.Info("quit requested from terminal")
			return shutdown(gov, persistSys, log)
		}
	}
}

func shutdown(gov *governor.Governor, persistSys *system.PersistenceSystem, log *zap.Logger) error {
	if persistSys != nil {
		persistSys.Flush()
	}
	if path := os.Getenv("GOVERNOR_HISTORY_OUT"); path != "" {
		if err := exportHistory(gov, path); err != nil {
			log.Error("export history", zap.String("path", path), zap.Error(err))
		} else {
			log.Info("history exported", zap.String("path", path), zap.Int("frames", gov.History.Len()))
		}
	}

	st := gov.Status()
	log.Info("governor stopped",
		zap.Uint64("frames", st.Frame),
		zap.Float64("avg_fps", st.AverageFPS),
		zap.Float64("compliance", st.Compliance),
		zap.Uint64("degradations", gov.Quality.Degradations()),
		zap.Uint64("recoveries", gov.Quality.Recoveries()),
		zap.Uint64("hot_path_allocations", st.Allocations.HotPathAllocations))
	return nil
}

func exportHistory(gov *governor.Governor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gov.History.Export(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
