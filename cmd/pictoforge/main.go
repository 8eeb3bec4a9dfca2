package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/catalog"
	"github.com/pictoforge/server/internal/combat"
	"github.com/pictoforge/server/internal/config"
	"github.com/pictoforge/server/internal/core/event"
	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/handler"
	gonet "github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
	"github.com/pictoforge/server/internal/persist"
	"github.com/pictoforge/server/internal/scripting"
	"github.com/pictoforge/server/internal/skill"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Pictoforge  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       turn-based combat effect server     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(startCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(startCtx, db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("schema at version %d", version))
	fmt.Println()

	// 4. Load data tables
	printSection("data")

	skills, err := data.LoadSkillTable(cfg.Data.SkillsPath)
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	printStat("skills", skills.Count())

	weapons, err := data.LoadWeaponTable(cfg.Data.WeaponsPath)
	if err != nil {
		return fmt.Errorf("load weapons: %w", err)
	}
	printStat("weapons", weapons.Count())

	// 5. Register effects: built-in catalog first, then Lua scripts
	reg := effect.NewRegistry(log)
	if err := catalog.Register(reg); err != nil {
		return fmt.Errorf("register catalog: %w", err)
	}

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer luaEngine.Close()
	if err := luaEngine.Register(reg); err != nil {
		return fmt.Errorf("register scripts: %w", err)
	}
	reg.Seal()

	passives, pictos := reg.Count()
	scriptPictos, scriptWeapons := luaEngine.Count()
	printStat("pictos and luminas", pictos)
	printStat("weapon passives", passives)
	printStat("scripted effects", scriptPictos+scriptWeapons)
	fmt.Println()

	// 6. Combat pipeline
	manager := battle.NewManager(cfg.Battle.QueueSize, cfg.Battle.IdleTimeout, log)
	bus := event.NewBus()
	logEvents(bus, log)

	orch := combat.NewOrchestrator(combat.Deps{
		Manager:        manager,
		Dispatcher:     effect.NewDispatcher(reg, log),
		Resolver:       skill.NewResolver(skills, log),
		Weapons:        weapons,
		Store:          persist.NewBattleRepo(db, log),
		Bus:            bus,
		Log:            log,
		PersistTimeout: cfg.Battle.PersistTimeout,
		ApplyRetries:   cfg.Battle.ApplyRetries,
	})

	// 7. Packet handlers and network server
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, &handler.Deps{
		Combat: orch,
		Config: cfg,
		Log:    log,
	})

	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		InQueueSize:      cfg.Network.InQueueSize,
		OutQueueSize:     cfg.Network.OutQueueSize,
		PacketsPerSecond: cfg.Network.PacketsPerSecond,
		WriteTimeout:     cfg.Network.WriteTimeout,
		ReadTimeout:      cfg.Network.ReadTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	handler.ForwardNotices(bus, netServer.Sessions())

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	fmt.Println()

	// 8. Serve until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return netServer.Serve(gctx, handler.Pump(pktReg, log))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Int("active_battles", manager.ActiveBattles()))
		netServer.Shutdown()
		return manager.Close()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// logEvents mirrors combat events into the server log.
func logEvents(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.EffectActivated) {
		log.Debug("effect activated",
			zap.Int64("battle", e.BattleID),
			zap.Int64("character", e.CharacterID),
			zap.String("trigger", e.Trigger),
			zap.String("key", e.Key),
			zap.String("message", e.Message),
		)
	})
	event.Subscribe(bus, func(e event.EffectFailed) {
		log.Warn("effect failed",
			zap.Int64("battle", e.BattleID),
			zap.String("trigger", e.Trigger),
			zap.String("key", e.Key),
			zap.String("reason", e.Reason),
		)
	})
	event.Subscribe(bus, func(e event.TriggerResolved) {
		log.Debug("trigger resolved",
			zap.Int64("battle", e.BattleID),
			zap.String("trigger", e.Trigger),
			zap.Int("results", e.Results),
			zap.Int("failures", e.Failures),
			zap.Int("intents", e.Intents),
		)
	})
	event.Subscribe(bus, func(e event.BattleEnded) {
		log.Info("battle ended", zap.Int64("battle", e.BattleID))
	})
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
