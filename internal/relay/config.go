package relay

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// ServerConfig describes relay server settings.
type ServerConfig struct {
	Addr            string        `env:"RELAY_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"RELAY_LOG_LEVEL" envDefault:"info"`
	LogPretty       bool          `env:"RELAY_LOG_PRETTY" envDefault:"false"`
	MaxQueue        int           `env:"RELAY_MAX_QUEUE" envDefault:"1000"`
	MaxPreKeys      int           `env:"RELAY_MAX_PREKEYS" envDefault:"1000"`
	ReadTimeout     time.Duration `env:"RELAY_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"RELAY_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"RELAY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadServerConfig reads ServerConfig from the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
