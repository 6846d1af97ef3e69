package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Seoul sin depender del tzdata del sistema

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del cliente.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Market  MarketConfig  `yaml:"market"`
	Sync    SyncConfig    `yaml:"sync"`
	Order   OrderConfig   `yaml:"order"`
	History HistoryConfig `yaml:"history"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig contiene el backend y las credenciales.
// Email y Password solo deberían venir del .env.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Timezone       string `yaml:"timezone"` // zona de las fechas sin offset del backend
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
}

// MarketConfig selecciona el mercado y la granularidad del gráfico.
type MarketConfig struct {
	Symbol   string `yaml:"symbol"`   // KRW-BTC
	Interval string `yaml:"interval"` // minutes/10, days, ...
	Count    int    `yaml:"count"`    // 0 = por defecto del intervalo
}

// SyncConfig controla las dos cadencias del dashboard.
type SyncConfig struct {
	QuoteIntervalSeconds int `yaml:"quote_interval_seconds"`
	BoundaryHours        int `yaml:"boundary_hours"` // debe dividir 24
}

// OrderConfig controla la validación de órdenes.
type OrderConfig struct {
	MinNotional float64 `yaml:"min_notional"` // KRW
}

// HistoryConfig controla el informe de P&L.
type HistoryConfig struct {
	Interval string `yaml:"interval"`
	Count    int    `yaml:"count"`
}

// StorageConfig controla el archive local. DSN vacío = deshabilitado.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// MetricsConfig controla el endpoint Prometheus. Addr vacío = deshabilitado.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate rechaza valores que el sincronizador no puede usar.
func (c *Config) Validate() error {
	if h := c.Sync.BoundaryHours; h <= 0 || h > 24 || 24%h != 0 {
		return fmt.Errorf("sync.boundary_hours must divide 24, got %d", h)
	}
	if c.Sync.QuoteIntervalSeconds <= 0 {
		return fmt.Errorf("sync.quote_interval_seconds must be positive, got %d", c.Sync.QuoteIntervalSeconds)
	}
	if !c.ChartInterval().Valid() {
		return fmt.Errorf("market.interval %q is not supported", c.Market.Interval)
	}
	if !c.HistoryInterval().Valid() {
		return fmt.Errorf("history.interval %q is not supported", c.History.Interval)
	}
	if _, err := time.LoadLocation(c.API.Timezone); err != nil {
		return fmt.Errorf("api.timezone: %w", err)
	}
	return nil
}

// QuoteInterval devuelve la cadencia de quotes como time.Duration.
func (c *Config) QuoteInterval() time.Duration {
	return time.Duration(c.Sync.QuoteIntervalSeconds) * time.Second
}

// Timeout devuelve el timeout HTTP.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// ChartInterval devuelve la granularidad de las quotes.
func (c *Config) ChartInterval() domain.Interval {
	return domain.Interval(c.Market.Interval)
}

// HistoryInterval devuelve la granularidad del histórico de P&L.
func (c *Config) HistoryInterval() domain.Interval {
	return domain.Interval(c.History.Interval)
}

// Location devuelve la zona horaria del backend (UTC si no es válida).
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.API.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("NEXBIT_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("NEXBIT_EMAIL"); v != "" {
		cfg.API.Email = v
	}
	if v := os.Getenv("NEXBIT_PASSWORD"); v != "" {
		cfg.API.Password = v
	}
	if v := os.Getenv("NEXBIT_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://nexbit.p-e.kr"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	if cfg.API.Timezone == "" {
		cfg.API.Timezone = "Asia/Seoul"
	}
	cfg.Market.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Market.Symbol))
	if cfg.Market.Symbol == "" {
		cfg.Market.Symbol = "KRW-BTC"
	}
	if cfg.Market.Interval == "" {
		cfg.Market.Interval = string(domain.IntervalMinute10)
	}
	if cfg.Sync.QuoteIntervalSeconds == 0 {
		cfg.Sync.QuoteIntervalSeconds = 10
	}
	if cfg.Sync.BoundaryHours == 0 {
		cfg.Sync.BoundaryHours = 4
	}
	if cfg.Order.MinNotional <= 0 {
		cfg.Order.MinNotional = domain.DefaultMinNotional
	}
	if cfg.History.Interval == "" {
		cfg.History.Interval = string(domain.IntervalDay)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
