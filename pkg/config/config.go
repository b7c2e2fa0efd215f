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
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Orders  OrdersConfig
	PayFast PayFastConfig
	Cron    CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.TaxRate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.ShippingFee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PARTSHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTSHUB_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"PARTSHUB_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"PARTSHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARTSHUB_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"PARTSHUB_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PARTSHUB_DB_DSN"`
	Driver string `envconfig:"PARTSHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PARTSHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PARTSHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARTSHUB_DB_USER"`
	LegacyPassword string `envconfig:"PARTSHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARTSHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARTSHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTSHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARTSHUB_REDIS_ADDR"`
	Password     string        `envconfig:"PARTSHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTSHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTSHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTSHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTSHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTSHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTSHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PARTSHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PARTSHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PARTSHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// OrdersConfig carries the money knobs applied at order placement.
type OrdersConfig struct {
	TaxRateValue      string        `envconfig:"PARTSHUB_ORDERS_TAX_RATE" default:"0.15"`
	ShippingFeeValue  string        `envconfig:"PARTSHUB_ORDERS_SHIPPING_FEE" default:"100.00"`
	PendingPaymentTTL time.Duration `envconfig:"PARTSHUB_ORDERS_PENDING_PAYMENT_TTL" default:"72h"`
}

// TaxRate parses the configured tax rate into a decimal.
func (o OrdersConfig) TaxRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(o.TaxRateValue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", o.TaxRateValue, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must be non-negative, got %s", rate)
	}
	return rate, nil
}

// ShippingFee parses the configured flat shipping fee into a decimal.
func (o OrdersConfig) ShippingFee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(o.ShippingFeeValue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing shipping fee %q: %w", o.ShippingFeeValue, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("shipping fee must be non-negative, got %s", fee)
	}
	return fee, nil
}

// PayFastConfig holds the payment gateway credentials and endpoints.
type PayFastConfig struct {
	MerchantID    string        `envconfig:"PARTSHUB_PAYFAST_MERCHANT_ID" required:"true"`
	MerchantKey   string        `envconfig:"PARTSHUB_PAYFAST_MERCHANT_KEY" required:"true"`
	Passphrase    string        `envconfig:"PARTSHUB_PAYFAST_PASSPHRASE"`
	ProcessURL    string        `envconfig:"PARTSHUB_PAYFAST_PROCESS_URL" default:"https://www.payfast.co.za/eng/process"`
	ValidateURL   string        `envconfig:"PARTSHUB_PAYFAST_VALIDATE_URL" default:"https://www.payfast.co.za/eng/query/validate"`
	AllowedIPs    []string      `envconfig:"PARTSHUB_PAYFAST_ALLOWED_IPS"`
	VerifyTimeout time.Duration `envconfig:"PARTSHUB_PAYFAST_VERIFY_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PARTSHUB_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"PARTSHUB_CRON_LOCK_TTL" default:"55m"`
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
