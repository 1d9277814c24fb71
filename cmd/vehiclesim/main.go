package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schedulemc/vehiclesim/internal/component"
	"github.com/schedulemc/vehiclesim/internal/config"
	"github.com/schedulemc/vehiclesim/internal/control"
	"github.com/schedulemc/vehiclesim/internal/core/event"
	coresys "github.com/schedulemc/vehiclesim/internal/core/system"
	"github.com/schedulemc/vehiclesim/internal/data"
	"github.com/schedulemc/vehiclesim/internal/dealer"
	"github.com/schedulemc/vehiclesim/internal/economy"
	"github.com/schedulemc/vehiclesim/internal/fuelstation"
	"github.com/schedulemc/vehiclesim/internal/handler"
	gonet "github.com/schedulemc/vehiclesim/internal/net"
	"github.com/schedulemc/vehiclesim/internal/net/packet"
	"github.com/schedulemc/vehiclesim/internal/persist"
	"github.com/schedulemc/vehiclesim/internal/scripting"
	"github.com/schedulemc/vehiclesim/internal/system"
	"github.com/schedulemc/vehiclesim/internal/telemetry"
	"github.com/schedulemc/vehiclesim/internal/workshop"
	"github.com/schedulemc/vehiclesim/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
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
	fmt.Println("\033[36;1m  │\033[0m             vehiclesim  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       vehicle simulation server (Go)      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mServer:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
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
	cfgPath := "config/vehiclesim.toml"
	if p := os.Getenv("VEHICLESIM_CONFIG"); p != "" {
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

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("Database")

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
	fmt.Println()

	// 4. Create repositories
	vehicleRepo := persist.NewVehicleRepo(db)
	balanceRepo := persist.NewBalanceRepo(db)
	fuelBillRepo := persist.NewFuelBillRepo(db)

	// 5. Load catalogs and scripts
	printSection("Data")

	registry, err := data.LoadRegistry(filepath.Join(cfg.Server.DataDir, "vehicles.yaml"))
	if err != nil {
		return fmt.Errorf("load vehicle catalog: %w", err)
	}
	engines, tanks, wheels, bodies, models := registry.Count()
	printStat("engines", engines)
	printStat("fuel tanks", tanks)
	printStat("wheel sets", wheels)
	printStat("bodies", bodies)
	printStat("vehicle models", models)

	luaEngine, err := scripting.NewEngine(cfg.Server.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")

	money, err := economy.NewMoney(cfg.Station.Currency, cfg.Station.Locale)
	if err != nil {
		return fmt.Errorf("currency: %w", err)
	}

	// 6. Restore the world from the last save
	w := world.New(coresys.SideServer)
	restored, err := restoreVehicles(ctx, w, vehicleRepo, registry, log)
	if err != nil {
		return fmt.Errorf("restore vehicles: %w", err)
	}
	printStat("vehicles restored", restored)
	fmt.Println()

	// 7. Entity systems
	bus := event.NewBus()
	inbox := control.NewInbox()
	edges := control.NewEdgeDetector()

	manager := coresys.NewManager[*world.Vehicle](log)
	audio := system.NewEngineAudioSystem(bus)
	for _, s := range []coresys.System[*world.Vehicle]{
		system.NewInputSystem(inbox, bus, cfg.Fuel.StartCost, cfg.Battery),
		system.NewBatterySystem(cfg.Battery, cfg.Fuel.StartCost, cfg.Simulation.AmbientTemperature, bus),
		system.NewMovementSystem(cfg.Movement),
		system.NewWheelSystem(cfg.Wheel),
		system.NewFuelSystem(bus),
		system.NewEngineThermalSystem(cfg.Thermal, cfg.Simulation.AmbientTemperature),
		system.NewDamageSystem(cfg.Damage, cfg.Thermal.CriticalTemperature, bus),
		audio,
	} {
		if err := manager.Register(s); err != nil {
			return fmt.Errorf("register %s: %w", s.Name(), err)
		}
	}
	simSys := system.NewSimulationSystem(manager, w)

	// 8. Services and packet handlers
	aging := component.Aging{Distances: cfg.Aging.Distances, MaxHealth: cfg.Aging.MaxHealth}
	sessions := gonet.NewSessionStore()
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		World:    w,
		Inbox:    inbox,
		Edges:    edges,
		Sessions: sessions,
		Log:      log,
		Station: fuelstation.NewStation(registry, luaEngine, fuelBillRepo, simSys, money,
			cfg.Station, cfg.Simulation.TicksPerDay, log),
		Dealer:   dealer.New(registry, balanceRepo, dealer.NewFactory(registry), w, log),
		Workshop: workshop.New(registry, balanceRepo, luaEngine, money, aging, log),
		Saver:    vehicleRepo,
	}
	handler.RegisterAll(pktReg, deps)

	// 9. Create network server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		InQueueSize:      cfg.Network.InQueueSize,
		OutQueueSize:     cfg.Network.OutQueueSize,
		PacketsPerSecond: cfg.Network.PacketsPerSecond,
		WriteTimeout:     cfg.Network.WriteTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 10. Telemetry and persistence
	collector := telemetry.NewCollector(cfg.Telemetry.WindowTicks, coresys.FixedDeltaTime)
	collector.Subscribe(bus)
	csvOut, err := telemetry.NewCSVWriter(cfg.Telemetry.OutputDir)
	if err != nil {
		return fmt.Errorf("telemetry output: %w", err)
	}
	defer csvOut.Close()

	saveWorker := persist.NewSaveWorker(vehicleRepo, cfg.Persistence.QueueSize, log)
	saveWorker.Start()

	// 11. Create phase systems and register with runner
	runner := coresys.NewRunner()
	inputSys := system.NewNetworkInputSystem(netServer, pktReg, deps, cfg.Network.MaxPacketsPerTick, log)
	persistSys := system.NewPersistenceSystem(w, saveWorker, log, cfg.Persistence.SaveIntervalTicks)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(inputSys)
	runner.Register(system.NewCollisionSystem(w, cfg.Damage.ContactRadius))
	runner.Register(simSys)
	runner.Register(system.NewTelemetryOutputSystem(w, sessions, bus, collector, csvOut,
		cfg.Telemetry.SendEvery, cfg.Telemetry.HornRange, log))
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(w,
		inbox.Forget,
		edges.Reset,
		collector.Forget,
		audio.Forget,
		saveWorker.Delete,
	))

	// 12. Start simulation loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("Ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("simulation loop running (tick: %s, phase systems: %d)", cfg.Simulation.TickRate, runner.Len()))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()

			saveWorker.Close()
			saved, failed := saveWorker.Stats()
			sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := persistSys.SaveAll(sctx, vehicleRepo); err != nil {
				log.Error("final save failed", zap.Error(err))
			}
			scancel()

			log.Info("server stopped",
				zap.Uint64("ticks", simSys.Ticks()),
				zap.Uint64("batches_saved", saved),
				zap.Uint64("batches_failed", failed),
				zap.Uint64("vehicles_deleted", saveWorker.Deleted()),
				zap.Uint64("system_faults", manager.Faults()),
			)
			return nil
		}
	}
}

// restoreVehicles rebuilds every saved vehicle under its saved id. Unknown
// component records are logged and dropped; the rest of the vehicle loads.
func restoreVehicles(ctx context.Context, w *world.World, repo *persist.VehicleRepo, specs *data.Registry, log *zap.Logger) (int, error) {
	snaps, err := repo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range snaps {
		v, err := world.FromSnapshot(s, specs)
		if err != nil {
			log.Warn("saved vehicle partially restored", zap.Stringer("vehicle", s.ID), zap.Error(err))
		}
		if err := w.Restore(v); err != nil {
			log.Warn("skipping saved vehicle", zap.Stringer("vehicle", s.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
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
