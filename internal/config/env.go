package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env struct {
	AppAddr   string `mapstructure:"app_addr"`
	GinMode   string `mapstructure:"gin_mode"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	CORSOrigins []string `mapstructure:"cors_origins"`
	JWTSecret   string   `mapstructure:"jwt_secret"`

	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Badger  BadgerConfig  `mapstructure:"badger"`
	Backend BackendConfig `mapstructure:"backend"`
	Payment PaymentConfig `mapstructure:"payment"`
	Pricing PricingConfig `mapstructure:"pricing"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	ItemTTL  time.Duration `mapstructure:"item_ttl"`
}

type BadgerConfig struct {
	Dir      string `mapstructure:"dir"`
	InMemory bool   `mapstructure:"in_memory"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PaymentConfig struct {
	// AttemptStore is "badger" or "redis".
	AttemptStore    string        `mapstructure:"attempt_store"`
	Freshness       time.Duration `mapstructure:"freshness"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RedirectDelay   time.Duration `mapstructure:"redirect_delay"`
	BookingViewPath string        `mapstructure:"booking_view_path"`
	PollMaxRetries  int           `mapstructure:"poll_max_retries"`
	PollBaseDelay   time.Duration `mapstructure:"poll_base_delay"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	Currency        string        `mapstructure:"currency"`
}

type PricingConfig struct {
	WeekendPolicy string `mapstructure:"weekend_policy"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_addr", ":8080")
	v.SetDefault("gin_mode", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("jwt_secret", "")

	v.SetDefault("mysql.dsn", "root:@tcp(127.0.0.1:3306)/storefront?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 25)
	v.SetDefault("mysql.conn_max_lifetime", 10*time.Minute)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.item_ttl", 5*time.Minute)

	v.SetDefault("badger.dir", "./data/attempts")
	v.SetDefault("badger.in_memory", false)

	v.SetDefault("backend.base_url", "http://127.0.0.1:5000/api")
	v.SetDefault("backend.timeout", 15*time.Second)

	v.SetDefault("payment.attempt_store", "badger")
	v.SetDefault("payment.freshness", 10*time.Minute)
	v.SetDefault("payment.request_timeout", 15*time.Second)
	v.SetDefault("payment.redirect_delay", 2*time.Second)
	v.SetDefault("payment.booking_view_path", "/booking/")
	v.SetDefault("payment.poll_max_retries", 10)
	v.SetDefault("payment.poll_base_delay", 3*time.Second)
	v.SetDefault("payment.sweep_interval", time.Minute)
	v.SetDefault("payment.currency", "INR")

	v.SetDefault("pricing.weekend_policy", "non_zero")
}

// LoadEnv reads defaults, then ./config/config.yaml when present, then
// environment variables (APP_ADDR, MYSQL_DSN, PAYMENT_FRESHNESS, ...).
func LoadEnv() (Env, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Env{}, err
		}
	}
	return ParseEnv(v)
}

// ParseEnv decodes an already loaded viper instance.
func ParseEnv(v *viper.Viper) (Env, error) {
	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return Env{}, err
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	if env.AppAddr == "" {
		env.AppAddr = ":8080"
	}
	env.GinMode = strings.TrimSpace(env.GinMode)
	env.Payment.AttemptStore = strings.ToLower(strings.TrimSpace(env.Payment.AttemptStore))
	return env, nil
}
