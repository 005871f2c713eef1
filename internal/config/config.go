package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	Port             string `env:"PORT" envDefault:"8080"`
	DBURI            string `env:"DB_URI,required"`
	JWTSecret        string `env:"JWT_SECRET,required"`
	AppEnv           string `env:"APP_ENV" envDefault:"production"`
	TokenTTLMinutes  int    `env:"TOKEN_TTL_MINUTES" envDefault:"60"`
	RememberTTLHours int    `env:"REMEMBER_TTL_HOURS" envDefault:"168"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment indica si el servicio corre en modo desarrollo.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
