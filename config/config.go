package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/reversionbot/internal/domain"
)

// Config es la configuración completa del bot.
type Config struct {
	Strategy  StrategyConfig  `yaml:"strategy"`
	Run       RunConfig       `yaml:"backtest"`
	Kalshi    KalshiConfig    `yaml:"kalshi"`
	Storage   StorageConfig   `yaml:"storage"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Live      LiveConfig      `yaml:"live"`
	Log       LogConfig       `yaml:"log"`
}

// StrategyConfig son los parámetros de la estrategia compartidos por
// backtest y live. Los punteros distinguen "no configurado" de un 0 válido.
type StrategyConfig struct {
	PregameLookbackSec   int64     `yaml:"pregame_lookback_sec"`
	FavoriteThreshold    float64   `yaml:"favorite_threshold"`
	TriggerThreshold     float64   `yaml:"trigger_threshold"`
	MonitorWindowSec     int64     `yaml:"monitor_window_sec"`
	FullGameExtensionSec *int64    `yaml:"full_game_extension_sec"`
	ReversionBands       []float64 `yaml:"reversion_bands"`
	FeeCents             *int      `yaml:"fee_cents"`
	SlippageCents        *int      `yaml:"slippage_cents"`
	AdverseStop          *float64  `yaml:"adverse_stop"` // nil = sin stop
	Timeout              string    `yaml:"timeout"`      // halftime | full
	GraceSec             *int64    `yaml:"grace_sec"`
}

// RunConfig controla qué partidos entran en un backtest.
type RunConfig struct {
	Series   string `yaml:"series"`
	DateFrom string `yaml:"date_from"` // YYYY-MM-DD
	DateTo   string `yaml:"date_to"`
	Workers  int    `yaml:"workers"` // 0 = NumCPU
	UseCache bool   `yaml:"use_cache"`
}

// KalshiConfig contiene el endpoint y el ritmo de la API pública.
type KalshiConfig struct {
	Base              string `yaml:"base"`
	MinIntervalMs     int    `yaml:"min_interval_ms"`
	CandleIntervalMin int    `yaml:"candle_interval_min"` // 1 | 60 | 1440
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// ArtifactsConfig controla los CSV/markdown de cada run y su archivo en S3.
type ArtifactsConfig struct {
	Dir string   `yaml:"dir"` // vacío = no escribir artefactos
	S3  S3Config `yaml:"s3"`
}

// S3Config: bucket vacío desactiva la subida.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"-"` // solo desde entorno
	SecretKey string `yaml:"-"`
}

// LiveConfig controla el poller en vivo.
type LiveConfig struct {
	PollIntervalSec    int    `yaml:"poll_interval_sec"`
	CheckpointsMinutes []int  `yaml:"checkpoints_minutes"` // antes del kickoff
	Contracts          int    `yaml:"contracts"`
	LookaheadDays      int    `yaml:"lookahead_days"`
	MetricsAddr        string `yaml:"metrics_addr"` // vacío = sin /metrics
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
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

	return &cfg, nil
}

// Default devuelve la configuración por defecto, sin archivo.
func Default() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Backtest valida los parámetros y devuelve la config inmutable del engine.
func (c *Config) Backtest() (domain.BacktestConfig, error) {
	s := c.Strategy
	cfg, err := domain.NewBacktestConfig(domain.BacktestParams{
		PregameLookbackSec:   s.PregameLookbackSec,
		FavoriteThreshold:    s.FavoriteThreshold,
		TriggerThreshold:     s.TriggerThreshold,
		MonitorWindowSec:     s.MonitorWindowSec,
		FullGameExtensionSec: deref(s.FullGameExtensionSec),
		ReversionBands:       s.ReversionBands,
		FeeCents:             deref(s.FeeCents),
		SlippageCents:        deref(s.SlippageCents),
		AdverseStop:          s.AdverseStop,
		Timeout:              domain.TimeoutPolicy(s.Timeout),
		GraceSec:             deref(s.GraceSec),
	})
	if err != nil {
		return domain.BacktestConfig{}, fmt.Errorf("config.Backtest: %w", err)
	}
	return cfg, nil
}

// PollInterval devuelve el intervalo del poller como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Live.PollIntervalSec) * time.Second
}

// Checkpoints devuelve los checkpoints pregame como duraciones.
func (c *Config) Checkpoints() []time.Duration {
	out := make([]time.Duration, len(c.Live.CheckpointsMinutes))
	for i, m := range c.Live.CheckpointsMinutes {
		out[i] = time.Duration(m) * time.Minute
	}
	return out
}

// MinInterval devuelve la separación mínima entre requests a Kalshi.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Kalshi.MinIntervalMs) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("KALSHI_BASE"); v != "" {
		cfg.Kalshi.Base = v
	}
	if v := os.Getenv("REVERSION_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REVERSION_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Run.Workers = n
		}
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Artifacts.S3.Bucket = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Artifacts.S3.Endpoint = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.Artifacts.S3.Region = v
	}
	cfg.Artifacts.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.Artifacts.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	s := &cfg.Strategy
	if s.PregameLookbackSec <= 0 {
		s.PregameLookbackSec = 900
	}
	if s.FavoriteThreshold <= 0 {
		s.FavoriteThreshold = 0.60
	}
	if s.TriggerThreshold <= 0 {
		s.TriggerThreshold = 0.50
	}
	if s.MonitorWindowSec <= 0 {
		s.MonitorWindowSec = 5400 // primera mitad
	}
	if s.FullGameExtensionSec == nil {
		s.FullGameExtensionSec = ptr[int64](6000)
	}
	if len(s.ReversionBands) == 0 {
		s.ReversionBands = []float64{0.55, 0.60, 0.65, 0.70}
	}
	if s.FeeCents == nil {
		s.FeeCents = ptr(1)
	}
	if s.SlippageCents == nil {
		s.SlippageCents = ptr(1)
	}
	if s.Timeout == "" {
		s.Timeout = string(domain.TimeoutHalftime)
	}
	if s.GraceSec == nil {
		s.GraceSec = ptr[int64](15)
	}

	if cfg.Run.Series == "" {
		cfg.Run.Series = "KXNFLGAME"
	}
	if cfg.Kalshi.MinIntervalMs <= 0 {
		cfg.Kalshi.MinIntervalMs = 200
	}
	if cfg.Kalshi.CandleIntervalMin <= 0 {
		cfg.Kalshi.CandleIntervalMin = 1
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "reversion.db"
	}
	if cfg.Live.PollIntervalSec <= 0 {
		cfg.Live.PollIntervalSec = 30
	}
	if len(cfg.Live.CheckpointsMinutes) == 0 {
		cfg.Live.CheckpointsMinutes = []int{360, 180, 30}
	}
	if cfg.Live.Contracts <= 0 {
		cfg.Live.Contracts = 1
	}
	if cfg.Live.LookaheadDays <= 0 {
		cfg.Live.LookaheadDays = 2
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func ptr[T any](v T) *T { return &v }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
