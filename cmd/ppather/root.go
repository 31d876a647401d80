package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/udisondev/ppather/internal/config"
	"github.com/udisondev/ppather/internal/db"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/kvstore"
	"github.com/udisondev/ppather/internal/pather"
	"github.com/udisondev/ppather/internal/pathgraph"
	"github.com/udisondev/ppather/internal/search"
	"github.com/udisondev/ppather/internal/worldmap"
)

const ConfigPath = "config/ppather.yaml"

// app carries the loaded configuration from the root command to subcommands.
type app struct {
	configPath string
	cfg        config.Pather
}

func newRootCmd() *cobra.Command {
	a := &app{configPath: ConfigPath}
	if p := os.Getenv("PPATHER_CONFIG"); p != "" {
		a.configPath = p
	}

	root := &cobra.Command{
		Use:           "ppather",
		Short:         "Terrain-aware pathfinding engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPather(a.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			a.cfg = cfg

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: parseLogLevel(cfg.LogLevel),
			})))
			slog.Debug("config loaded", "path", a.configPath, "graph_store", cfg.GraphStore, "geometry_dir", cfg.GeometryDir)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", a.configPath, "config file (env PPATHER_CONFIG)")

	root.AddCommand(serveCmd(a), routeCmd(a), migrateCmd(a))
	return root
}

// searchConfig maps the file configuration onto the engine's parameters.
func searchConfig(cfg config.Pather) (search.Config, error) {
	strategy, err := pathgraph.ParseStrategy(cfg.Search.Strategy)
	if err != nil {
		return search.Config{}, err
	}

	sc := search.DefaultConfig()
	sc.Strategy = strategy
	sc.CloseEnough = cfg.Search.CloseEnough
	sc.MaxExpansions = cfg.Search.MaxExpansions
	if cfg.Search.StepLength > 0 {
		sc.Graph.StepLength = cfg.Search.StepLength
	}

	g := cfg.Geo
	sc.Geo.Clearance = g.Clearance
	sc.Geo.CharacterHeight = g.CharacterHeight
	sc.Geo.Radius = g.Radius
	sc.Geo.MaxStepUp = g.MaxStepUp
	sc.Geo.LargeProbe = g.LargeProbe

	if err := sc.Geo.Validate(); err != nil {
		return search.Config{}, err
	}
	if err := sc.Graph.Validate(); err != nil {
		return search.Config{}, err
	}
	return sc, nil
}

// openStore opens the configured graph store. The returned close func is
// never nil.
func openStore(ctx context.Context, cfg config.Pather) (pathgraph.Store, func(), error) {
	switch cfg.GraphStore {
	case config.GraphStoreBadger:
		s, err := kvstore.Open(cfg.BadgerDir)
		if err != nil {
			return nil, func() {}, err
		}
		slog.Info("graph store opened", "backend", "badger", "dir", cfg.BadgerDir)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("closing badger store", "err", err)
			}
		}, nil

	case config.GraphStorePostgres:
		dsn := cfg.Database.DSN()
		database, err := db.New(ctx, dsn)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to database: %w", err)
		}
		if err := db.RunMigrations(ctx, dsn); err != nil {
			database.Close()
			return nil, func() {}, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("graph store opened", "backend", "postgres", "host", cfg.Database.Host, "db", cfg.Database.DBName)
		return db.NewGraphRepository(database.Pool()), database.Close, nil

	default:
		return nil, func() {}, nil
	}
}

// newService wires the facade from configuration. The returned close func
// saves the active graph and releases the store.
func newService(ctx context.Context, cfg config.Pather) (*pather.Service, func(), error) {
	sc, err := searchConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("search config: %w", err)
	}

	areas, err := worldmap.LoadTable(cfg.AreasFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading areas: %w", err)
	}
	slog.Info("world map areas loaded", "file", cfg.AreasFile, "areas", areas.Len())

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening graph store: %w", err)
	}

	svc := pather.New(areas, geo.NewDirSource(cfg.GeometryDir), store, sc)
	return svc, func() {
		// ctx may already be canceled on shutdown; the final save must still run
		if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Error("saving path graph", "err", err)
		}
		closeStore()
	}, nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
