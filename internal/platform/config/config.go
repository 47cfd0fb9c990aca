package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config agrupa toda la configuración del servicio, cargada desde env vars.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	// Postgres. Si viene vacío, el router cae a repos in-memory (modo dev).
	DBDSN string `env:"DB_DSN"`

	// Redis para el cache de listados. Opcional.
	RedisURL string `env:"REDIS_URL"`

	// Firma de tokens. Obligatoria fuera de dev.
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"adopt-meow"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

// Load parsea la configuración desde el entorno.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
