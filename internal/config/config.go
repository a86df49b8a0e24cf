// Package config loads server configuration from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Match    MatchConfig    `mapstructure:"match"`
	Cards    CardsConfig    `mapstructure:"cards"`
}

// ServerConfig configures the WebSocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig configures the optional Postgres connection for match result
// persistence. An empty DSN disables persistence.
type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// MatchConfig holds the rule parameters applied to every match.
type MatchConfig struct {
	DeckSize         int           `mapstructure:"deck_size"`
	MaxEnergy        int           `mapstructure:"max_energy"`
	TotalTurns       int           `mapstructure:"total_turns"`
	StartingHandSize int           `mapstructure:"starting_hand_size"`
	TurnDuration     time.Duration `mapstructure:"turn_duration"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
}

// CardsConfig points at the card catalog file.
type CardsConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads the configuration file at path and applies DUEL_* environment
// overrides (e.g. DUEL_SERVER_ADDRESS, DUEL_DATABASE_DSN).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("match.deck_size", 20)
	v.SetDefault("match.max_energy", 10)
	v.SetDefault("match.total_turns", 10)
	v.SetDefault("match.starting_hand_size", 3)
	v.SetDefault("match.turn_duration", 30*time.Second)
	v.SetDefault("match.tick_interval", 100*time.Millisecond)
	v.SetDefault("cards.path", "data/cards.yaml")

	v.SetEnvPrefix("DUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Match.DeckSize <= 0 {
		return fmt.Errorf("match.deck_size must be positive, got %d", c.Match.DeckSize)
	}
	if c.Match.TotalTurns <= 0 {
		return fmt.Errorf("match.total_turns must be positive, got %d", c.Match.TotalTurns)
	}
	if c.Match.TurnDuration <= 0 {
		return fmt.Errorf("match.turn_duration must be positive, got %s", c.Match.TurnDuration)
	}
	return nil
}
