package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Fees         FeesConfig
	PaymentLinks PaymentLinksConfig
	Cron         CronConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Fees.Amounts(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INVOICEDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"INVOICEDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INVOICEDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INVOICEDESK_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"INVOICEDESK_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INVOICEDESK_DB_DSN"`
	Driver string `envconfig:"INVOICEDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"INVOICEDESK_DB_HOST"`
	Port     int    `envconfig:"INVOICEDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"INVOICEDESK_DB_USER"`
	Password string `envconfig:"INVOICEDESK_DB_PASSWORD"`
	Name     string `envconfig:"INVOICEDESK_DB_NAME"`
	SSLMode  string `envconfig:"INVOICEDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INVOICEDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INVOICEDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INVOICEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INVOICEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INVOICEDESK_REDIS_URL"`
	Address      string        `envconfig:"INVOICEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"INVOICEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"INVOICEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INVOICEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INVOICEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INVOICEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INVOICEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INVOICEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INVOICEDESK_AUTO_MIGRATE" default:"false"`
}

// FeesConfig drives the fee calculator preview and the quote cache.
type FeesConfig struct {
	PreviewAmounts []string      `envconfig:"INVOICEDESK_FEES_PREVIEW_AMOUNTS" default:"50,100,500,1000,5000"`
	CacheTTL       time.Duration `envconfig:"INVOICEDESK_FEES_CACHE_TTL" default:"10m"`
	Currency       string        `envconfig:"INVOICEDESK_FEES_DEFAULT_CURRENCY" default:"INR"`
}

// Amounts parses the configured preview sample amounts.
func (f FeesConfig) Amounts() ([]decimal.Decimal, error) {
	amounts := make([]decimal.Decimal, 0, len(f.PreviewAmounts))
	for _, raw := range f.PreviewAmounts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvFeesPreviewAmounts, raw, err)
		}
		amounts = append(amounts, value)
	}
	return amounts, nil
}

type PaymentLinksConfig struct {
	BaseURL   string        `envconfig:"INVOICEDESK_PAYMENT_LINKS_BASE_URL" default:"http://localhost:5173/pay"`
	MaxExpiry time.Duration `envconfig:"INVOICEDESK_PAYMENT_LINKS_MAX_EXPIRY" default:"2160h"`
	Retention time.Duration `envconfig:"INVOICEDESK_PAYMENT_LINKS_RETENTION" default:"4320h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"INVOICEDESK_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"INVOICEDESK_CRON_LOCK_TTL" default:"10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"INVOICEDESK_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
