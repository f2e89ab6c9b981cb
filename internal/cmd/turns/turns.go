// Package turns parses turn-engine command flags and launches the
// turns service.
package turns

import (
	"context"
	"flag"

	"github.com/riftholm/riftholm/internal/platform/config"
	server "github.com/riftholm/riftholm/internal/services/turns/app"
)

// Config holds turns command configuration.
type Config struct {
	Port int `env:"RIFTHOLM_TURNS_PORT" envDefault:"8090"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The turns HTTP server port")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the turn engine service.
func Run(ctx context.Context, cfg Config) error {
	return server.Run(ctx, cfg.Port)
}
