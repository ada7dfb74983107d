package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Mobile       MobileConfig `envconfig:"MOBILE"`
	Stripe       StripeConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.App.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"LIVEBUYNOW_APP_ENV" required:"true"`
	Port         string   `envconfig:"LIVEBUYNOW_APP_PORT" required:"true"`
	BaseURL      string   `envconfig:"LIVEBUYNOW_APP_BASE_URL" default:"http://localhost:5173"`
	Currency     string   `envconfig:"LIVEBUYNOW_APP_CURRENCY" default:"TZS"`
	LogLevel     string   `envconfig:"LIVEBUYNOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"LIVEBUYNOW_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"LIVEBUYNOW_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CurrencyCode returns the upper-cased ISO code used for display.
func (a AppConfig) CurrencyCode() string {
	code := strings.ToUpper(strings.TrimSpace(a.Currency))
	if code == "" {
		return DefaultCurrency
	}
	return code
}

func (a AppConfig) validate() error {
	if len(strings.TrimSpace(a.Currency)) != 3 {
		return fmt.Errorf("%s must be a 3-letter ISO code, got %q", EnvCurrency, a.Currency)
	}
	return nil
}

type DBConfig struct {
	DSN string `envconfig:"LIVEBUYNOW_DB_DSN"`

	Host     string `envconfig:"LIVEBUYNOW_DB_HOST"`
	Port     int    `envconfig:"LIVEBUYNOW_DB_PORT" default:"5432"`
	User     string `envconfig:"LIVEBUYNOW_DB_USER"`
	Password string `envconfig:"LIVEBUYNOW_DB_PASSWORD"`
	Name     string `envconfig:"LIVEBUYNOW_DB_NAME"`
	SSLMode  string `envconfig:"LIVEBUYNOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LIVEBUYNOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LIVEBUYNOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LIVEBUYNOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LIVEBUYNOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LIVEBUYNOW_REDIS_URL"`
	Address      string        `envconfig:"LIVEBUYNOW_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"LIVEBUYNOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIVEBUYNOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIVEBUYNOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LIVEBUYNOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LIVEBUYNOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIVEBUYNOW_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"LIVEBUYNOW_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// JWTConfig verifies tokens minted by the identity service. Only the
// principal id is consumed here.
type JWTConfig struct {
	Secret string `envconfig:"LIVEBUYNOW_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"LIVEBUYNOW_JWT_ISSUER" required:"true"`
}

type CheckoutConfig struct {
	IdempotencyTTL        time.Duration `envconfig:"LIVEBUYNOW_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	CallbackDedupeTTL     time.Duration `envconfig:"LIVEBUYNOW_CALLBACK_DEDUPE_TTL" default:"10m"`
	CallbackRateLimit     int           `envconfig:"LIVEBUYNOW_CALLBACK_RATE_LIMIT" default:"120"`
	CallbackRateWindow    time.Duration `envconfig:"LIVEBUYNOW_CALLBACK_RATE_WINDOW" default:"1m"`
	InitiateTimeout       time.Duration `envconfig:"LIVEBUYNOW_PAYMENT_INITIATE_TIMEOUT" default:"10s"`
	OrderHistoryPageLimit int           `envconfig:"LIVEBUYNOW_ORDER_HISTORY_LIMIT" default:"50"`
}

// MobileConfig holds one block per mobile-money network. Keys resolve as
// LIVEBUYNOW_MOBILE_<NETWORK>_<SETTING>, e.g. LIVEBUYNOW_MOBILE_TIGO_API_URL.
type MobileConfig struct {
	Tigo    MobileChannelConfig `envconfig:"TIGO"`
	Airtel  MobileChannelConfig `envconfig:"AIRTEL"`
	Vodacom MobileChannelConfig `envconfig:"VODACOM"`
	Halo    MobileChannelConfig `envconfig:"HALO"`
}

type MobileChannelConfig struct {
	Enabled        bool          `split_words:"true" default:"true"`
	MerchantNumber string        `split_words:"true"`
	Sandbox        bool          `split_words:"true" default:"true"`
	APIURL         string        `envconfig:"API_URL"`
	APIKey         string        `envconfig:"API_KEY"`
	CallbackSecret string        `split_words:"true"`
	Timeout        time.Duration `split_words:"true" default:"8s"`
}

// Live reports whether a provider endpoint is configured.
func (m MobileChannelConfig) Live() bool {
	return strings.TrimSpace(m.APIURL) != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"LIVEBUYNOW_STRIPE_API_KEY"`
	Secret string `envconfig:"LIVEBUYNOW_STRIPE_SECRET"`
	Env    string `envconfig:"LIVEBUYNOW_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether the card flow can be wired.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"LIVEBUYNOW_USE_SQLITE" default:"false"`
	AutoMigrate bool   `envconfig:"LIVEBUYNOW_AUTO_MIGRATE" default:"false"`
	SQLitePath  string `envconfig:"LIVEBUYNOW_SQLITE_PATH" default:"file:livebuynow.db?_foreign_keys=on"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LIVEBUYNOW_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LIVEBUYNOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LIVEBUYNOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PaymentsTopic         string `envconfig:"LIVEBUYNOW_PUBSUB_PAYMENTS_TOPIC" default:"lbn-payment-events"`
	AnalyticsSubscription string `envconfig:"LIVEBUYNOW_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"lbn-payment-events-analytics"`
}

type BigQueryConfig struct {
	Dataset       string `envconfig:"LIVEBUYNOW_BIGQUERY_DATASET" default:"livebuynow"`
	PaymentsTable string `envconfig:"LIVEBUYNOW_BIGQUERY_PAYMENTS_TABLE" default:"payment_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"LIVEBUYNOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"LIVEBUYNOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"LIVEBUYNOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"LIVEBUYNOW_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"LIVEBUYNOW_CRON_INTERVAL" default:"1m"`
	LockTTL         time.Duration `envconfig:"LIVEBUYNOW_CRON_LOCK_TTL" default:"55s"`
	StalePaymentTTL time.Duration `envconfig:"LIVEBUYNOW_STALE_PAYMENT_TTL" default:"48h"`
	OutboxRetention time.Duration `envconfig:"LIVEBUYNOW_OUTBOX_RETENTION" default:"720h"`
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
	for _, env := range dbPartEnvVars {
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
