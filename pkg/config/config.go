package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PETALWORKS_DB_DSN"
	EnvDBHost = "PETALWORKS_DB_HOST"
	EnvDBUser = "PETALWORKS_DB_USER"
	EnvDBName = "PETALWORKS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Mail         MailConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PETALWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"PETALWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PETALWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PETALWORKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PETALWORKS_DB_DSN"`
	Driver string `envconfig:"PETALWORKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PETALWORKS_DB_HOST"`
	LegacyPort     int    `envconfig:"PETALWORKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PETALWORKS_DB_USER"`
	LegacyPassword string `envconfig:"PETALWORKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PETALWORKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PETALWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PETALWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PETALWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PETALWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PETALWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PETALWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PETALWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"PETALWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PETALWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PETALWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PETALWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PETALWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PETALWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PETALWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PETALWORKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PETALWORKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PETALWORKS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig carries the checkout pricing constants. The free-delivery
// threshold and flat fee must match what the storefront displays.
type PricingConfig struct {
	FreeDeliveryAbove string `envconfig:"PETALWORKS_PRICING_FREE_DELIVERY_ABOVE" default:"199"`
	DeliveryFee       string `envconfig:"PETALWORKS_PRICING_DELIVERY_FEE" default:"40"`
	TaxRate           string `envconfig:"PETALWORKS_PRICING_TAX_RATE" default:"0.05"`
}

type MailConfig struct {
	Enabled  bool   `envconfig:"PETALWORKS_MAIL_ENABLED" default:"false"`
	SMTPHost string `envconfig:"PETALWORKS_MAIL_SMTP_HOST"`
	SMTPPort int    `envconfig:"PETALWORKS_MAIL_SMTP_PORT" default:"587"`
	Username string `envconfig:"PETALWORKS_MAIL_USERNAME"`
	Password string `envconfig:"PETALWORKS_MAIL_PASSWORD"`
	From     string `envconfig:"PETALWORKS_MAIL_FROM" default:"orders@petalworks.example"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"PETALWORKS_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"PETALWORKS_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PETALWORKS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PETALWORKS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PETALWORKS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PETALWORKS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"PETALWORKS_PUBSUB_ORDERS_TOPIC" default:"pw-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PETALWORKS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PETALWORKS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PETALWORKS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
