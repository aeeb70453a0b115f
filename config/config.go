package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del analizador.
type Config struct {
	Trading TradingConfig       `yaml:"trading"`
	Kalshi  KalshiConfig        `yaml:"kalshi"`
	Reddit  RedditConfig        `yaml:"reddit"`
	LLM     LLMConfig           `yaml:"llm"`
	Web     WebConfig           `yaml:"web"`
	Dedup   DedupConfig         `yaml:"dedup"`
	Storage StorageConfig       `yaml:"storage"`
	Log     LogConfig           `yaml:"log"`
	Metrics MetricsConfig       `yaml:"metrics"`
	Matcher MatcherConfig       `yaml:"matcher"`
	Sources map[string][]string `yaml:"sources"` // keyword → subreddits; vacío = tabla por defecto
}

// TradingConfig controla el loop, la política de decisión y el sizing.
type TradingConfig struct {
	DryRun              bool    `yaml:"dry_run" default:"true"`
	PollIntervalSec     int     `yaml:"poll_interval_sec" default:"120" validate:"gte=1"`
	CallTimeoutSec      int     `yaml:"call_timeout_sec" default:"60" validate:"gte=1"`
	MinDelta            float64 `yaml:"min_delta" default:"0.10" validate:"gte=0,lte=1"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" default:"0.75" validate:"gte=0,lte=1"`
	MaxContracts        int     `yaml:"max_contracts_per_trade" default:"100" validate:"gte=0"`
	MaxBalanceFraction  float64 `yaml:"max_balance_fraction" default:"0.05" validate:"gte=0,lte=1"`
	MaxOpenPerTicker    int     `yaml:"max_open_per_ticker" validate:"gte=0"` // 0 = sin límite
}

// KalshiConfig contiene la URL del venue y las credenciales de firma.
type KalshiConfig struct {
	BaseURL        string `yaml:"base_url" default:"https://api.elections.kalshi.com/trade-api/v2" validate:"url"`
	APIKeyID       string `yaml:"api_key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	PrivateKey     string `yaml:"-"` // solo por env: KALSHI_PRIVATE_KEY
}

// RedditConfig controla el scraper de Reddit (OAuth app-only).
type RedditConfig struct {
	ClientID          string  `yaml:"client_id"`
	ClientSecret      string  `yaml:"client_secret"`
	UserAgent         string  `yaml:"user_agent" default:"kalshibot/1.0"`
	RatePerSec        float64 `yaml:"rate_per_sec" default:"1" validate:"gt=0"`
	TimeFilter        string  `yaml:"time_filter" default:"day" validate:"oneof=hour day week month year all"`
	SearchLimit       int     `yaml:"search_limit" default:"100" validate:"gte=1,lte=100"`
	CommentsLimit     int     `yaml:"comments_limit" default:"50" validate:"gte=0"`
	SubredditDelaySec float64 `yaml:"subreddit_delay_sec" default:"1.5" validate:"gte=0"`
	MaxKeywords       int     `yaml:"max_keywords" default:"8" validate:"gte=0"` // por grupo; 0 = todas
}

// LLMConfig controla el estimador de probabilidad.
type LLMConfig struct {
	APIKey             string `yaml:"-"` // solo por env: OPENAI_API_KEY
	Model              string `yaml:"model" default:"gpt-4o-mini"`
	BaseURL            string `yaml:"base_url" validate:"omitempty,url"`
	BreakerMaxFailures uint32 `yaml:"breaker_max_failures" default:"5" validate:"gte=1"`
	BreakerCooldownSec int    `yaml:"breaker_cooldown_sec" default:"300" validate:"gte=1"`
}

// WebConfig controla el fetcher de URLs fijas. Sin URLs queda desactivado.
type WebConfig struct {
	URLs           []string `yaml:"urls" validate:"dive,url"`
	DomainDelaySec float64  `yaml:"domain_delay_sec" default:"1" validate:"gte=0"`
	TimeoutSec     int      `yaml:"timeout_sec" default:"30" validate:"gte=1"`
}

// DedupConfig elige el backend del ledger de idempotencia.
type DedupConfig struct {
	Backend       string `yaml:"backend" default:"sqlite" validate:"oneof=sqlite redis"`
	RedisAddr     string `yaml:"redis_addr" default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn" default:"kalshi_bot.sqlite" validate:"required"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// MatcherConfig controla la extracción de keywords de los mercados.
type MatcherConfig struct {
	MinKeywordLen int `yaml:"min_keyword_len" default:"2" validate:"gte=1"`
}

// MetricsConfig controla el endpoint de Prometheus. Addr vacío = desactivado.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var validate = validator.New()

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Orden de precedencia: env > YAML > defaults. Un path vacío usa solo defaults + env.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validate: %w", err)
	}
	return &cfg, nil
}

// PollInterval devuelve la pausa entre pasadas.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trading.PollIntervalSec) * time.Second
}

// CallTimeout devuelve el límite de cada llamada a un colaborador.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Trading.CallTimeoutSec) * time.Second
}

// SubredditDelay devuelve la pausa entre subreddits.
func (c *Config) SubredditDelay() time.Duration {
	return time.Duration(c.Reddit.SubredditDelaySec * float64(time.Second))
}

// DomainDelay devuelve la pausa mínima entre requests al mismo host.
func (c *Config) DomainDelay() time.Duration {
	return time.Duration(c.Web.DomainDelaySec * float64(time.Second))
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
// Un número o booleano que no parsea es un error de configuración.
func applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"KALSHI_API_KEY_ID", &cfg.Kalshi.APIKeyID},
		{"KALSHI_PRIVATE_KEY_PATH", &cfg.Kalshi.PrivateKeyPath},
		{"KALSHI_PRIVATE_KEY", &cfg.Kalshi.PrivateKey},
		{"KALSHI_BASE_URL", &cfg.Kalshi.BaseURL},
		{"REDDIT_CLIENT_ID", &cfg.Reddit.ClientID},
		{"REDDIT_CLIENT_SECRET", &cfg.Reddit.ClientSecret},
		{"REDDIT_USER_AGENT", &cfg.Reddit.UserAgent},
		{"OPENAI_API_KEY", &cfg.LLM.APIKey},
		{"KALSHI_BOT_DB", &cfg.Storage.DSN},
		{"REDIS_ADDR", &cfg.Dedup.RedisAddr},
		{"REDIS_PASSWORD", &cfg.Dedup.RedisPassword},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv("DRY_RUN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env DRY_RUN=%q: %w", v, err)
		}
		cfg.Trading.DryRun = b
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"POLL_INTERVAL_SEC", &cfg.Trading.PollIntervalSec},
		{"MAX_CONTRACTS_PER_TRADE", &cfg.Trading.MaxContracts},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s=%q: %w", i.env, v, err)
		}
		*i.dst = n
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{"MIN_DELTA", &cfg.Trading.MinDelta},
		{"CONFIDENCE_THRESHOLD", &cfg.Trading.ConfidenceThreshold},
		{"MAX_BALANCE_FRACTION", &cfg.Trading.MaxBalanceFraction},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env %s=%q: %w", f.env, v, err)
		}
		*f.dst = x
	}
	return nil
}
