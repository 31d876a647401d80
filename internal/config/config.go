package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Graph store backends.
const (
	GraphStoreNone     = "none"
	GraphStoreBadger   = "badger"
	GraphStorePostgres = "postgres"
)

// Pather holds all configuration of the pathfinding service.
type Pather struct {
	LogLevel string `yaml:"log_level"`

	// Reference data
	GeometryDir string `yaml:"geometry_dir"` // <dir>/<map id>/<gx>_<gy>.tri
	AreasFile   string `yaml:"areas_file"`

	// Graph persistence
	GraphStore string         `yaml:"graph_store"` // none | badger | postgres
	BadgerDir  string         `yaml:"badger_dir"`  // empty = in-memory
	Database   DatabaseConfig `yaml:"database"`

	// HTTP endpoints (serve)
	MetricsAddr string `yaml:"metrics_addr"`
	OverlayAddr string `yaml:"overlay_addr"`

	Search SearchConfig `yaml:"search"`
	Geo    GeoConfig    `yaml:"geo"`
}

// SearchConfig controls route searches and graph sampling.
type SearchConfig struct {
	Strategy      string  `yaml:"strategy"` // astar | greedy | avoid_water
	CloseEnough   float64 `yaml:"close_enough"`
	MaxExpansions int     `yaml:"max_expansions"` // 0 = unlimited
	StepLength    float64 `yaml:"step_length"`
}

// GeoConfig holds character dimensions used by height and obstruction probes.
type GeoConfig struct {
	Clearance       float64 `yaml:"clearance"`
	CharacterHeight float64 `yaml:"character_height"`
	Radius          float64 `yaml:"radius"`
	MaxStepUp       float64 `yaml:"max_step_up"`
	LargeProbe      float64 `yaml:"large_probe"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultPather returns Pather config with sensible defaults.
func DefaultPather() Pather {
	return Pather{
		LogLevel:    "info",
		GeometryDir: "data/geometry",
		AreasFile:   "data/world_map_areas.yaml",
		GraphStore:  GraphStoreNone,
		BadgerDir:   "data/graphs",
		MetricsAddr: ":9100",
		OverlayAddr: ":8089",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "ppather",
			Password: "ppather",
			DBName:   "ppather",
			SSLMode:  "disable",
		},
		Search: SearchConfig{
			Strategy:      "astar",
			CloseEnough:   3,
			MaxExpansions: 20000,
			StepLength:    3,
		},
		Geo: GeoConfig{
			Clearance:       10,
			CharacterHeight: 2,
			Radius:          0.5,
			MaxStepUp:       1,
			LargeProbe:      10000,
		},
	}
}

// Validate checks values the YAML decoder cannot.
func (p Pather) Validate() error {
	switch p.GraphStore {
	case GraphStoreNone, GraphStoreBadger, GraphStorePostgres:
	default:
		return fmt.Errorf("graph_store must be one of none, badger, postgres; got %q", p.GraphStore)
	}
	if p.Search.CloseEnough <= 0 {
		return fmt.Errorf("search.close_enough must be positive, got %v", p.Search.CloseEnough)
	}
	if p.Search.MaxExpansions < 0 {
		return fmt.Errorf("search.max_expansions must not be negative, got %d", p.Search.MaxExpansions)
	}
	return nil
}

// LoadPather loads the service config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadPather(path string) (Pather, error) {
	cfg := DefaultPather()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
