package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置，来自 config.yaml + 环境变量覆盖
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Mode         string        `mapstructure:"mode"` // debug / release
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"` // 每秒请求数，0 表示不限流
	RateBurst    int           `mapstructure:"rate_burst"`
}

type DatabaseConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifeMins int    `mapstructure:"conn_max_life_mins"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

type QueueConfig struct {
	Workers     int           `mapstructure:"workers"`      // 每个 topic 的 worker 数
	MaxAttempts int           `mapstructure:"max_attempts"` // 重试上限
	Backoff     time.Duration `mapstructure:"backoff"`      // 指数退避基数
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

// Load 读取配置；环境变量形如 BOOKING_REDIS_ADDR 覆盖同名配置项
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 50)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_life_mins", 30)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.backoff", "1s")
	v.SetDefault("telemetry.service", "booking-platform")

	if err := v.ReadInConfig(); err != nil {
		// 允许无配置文件，全部走默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
