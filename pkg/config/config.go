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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Sweeper      SweeperConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// CheckoutConfig carries the pricing knobs applied when a cart is converted
// into an order. Rates and amounts are decimal strings so totals stay exact.
type CheckoutConfig struct {
	TaxRate               string `envconfig:"STOREFRONT_CHECKOUT_TAX_RATE" default:"0.10"`
	ShippingFlat          string `envconfig:"STOREFRONT_CHECKOUT_SHIPPING_FLAT" default:"10.00"`
	FreeShippingThreshold string `envconfig:"STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"100.00"`
	OrderNumberAttempts   int    `envconfig:"STOREFRONT_CHECKOUT_ORDER_NUMBER_ATTEMPTS" default:"5"`
}

func (c CheckoutConfig) validate() error {
	for env, raw := range map[string]string{
		"STOREFRONT_CHECKOUT_TAX_RATE":                c.TaxRate,
		"STOREFRONT_CHECKOUT_SHIPPING_FLAT":           c.ShippingFlat,
		"STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD": c.FreeShippingThreshold,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("%s: invalid decimal %q: %w", env, raw, err)
		}
	}
	if c.OrderNumberAttempts < 1 {
		return fmt.Errorf("STOREFRONT_CHECKOUT_ORDER_NUMBER_ATTEMPTS must be at least 1")
	}
	return nil
}

// TaxRateDecimal parses the configured tax rate. validate() guarantees the
// string is well formed, so the error path only trips on a zero-value config.
func (c CheckoutConfig) TaxRateDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.TaxRate)
}

func (c CheckoutConfig) ShippingFlatDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.ShippingFlat)
}

func (c CheckoutConfig) FreeShippingThresholdDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.FreeShippingThreshold)
}

// SweeperConfig controls the abandoned-cart sweep job.
type SweeperConfig struct {
	CutoffHours int           `envconfig:"STOREFRONT_SWEEPER_CUTOFF_HOURS" default:"720"`
	Interval    time.Duration `envconfig:"STOREFRONT_SWEEPER_INTERVAL" default:"1h"`
	LockTTL     time.Duration `envconfig:"STOREFRONT_SWEEPER_LOCK_TTL" default:"5m"`
}

// Cutoff returns the idle window after which an active cart is abandoned.
func (s SweeperConfig) Cutoff() time.Duration {
	return time.Duration(s.CutoffHours) * time.Hour
}

// RateLimitConfig throttles the public API per caller via a redis-backed
// fixed window.
type RateLimitConfig struct {
	Enabled  bool          `envconfig:"STOREFRONT_RATE_LIMIT_ENABLED" default:"false"`
	Requests int64         `envconfig:"STOREFRONT_RATE_LIMIT_REQUESTS" default:"120"`
	Window   time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
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
