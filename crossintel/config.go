package crossintel

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/tradewind/crossintel/crossintel/database"
	"github.com/tradewind/crossintel/crossintel/intel/audit"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log   LogConfig         `toml:"log"`
	DB    database.DBConfig `toml:"db"`
	Mongo audit.Config      `toml:"mongo"`
	Intel IntelConfig       `toml:"intel"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// IntelConfig tunes the engine stack. Zero values keep the built-in
// defaults.
type IntelConfig struct {
	// RecomputeIntervalHours is the cadence of the scheduled trust score
	// sweep over active sellers.
	RecomputeIntervalHours int `toml:"recompute_interval_hours"`
}
