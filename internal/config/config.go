package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Telegram   Telegram   `mapstructure:"telegram"`
	Simulation Simulation `mapstructure:"simulation"`
	Callbacks  Callbacks  `mapstructure:"callbacks"`
	Redis      Redis      `mapstructure:"redis"`
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Directory  Directory  `mapstructure:"directory"`
}

// Telegram holds the configuration for the Telegram Bot API.
type Telegram struct {
	BotToken         string  `mapstructure:"bot_token"`
	ApiURL           string  `mapstructure:"api_url"`
	Mode             string  `mapstructure:"mode"` // "polling" or "webhook"
	WebhookPath      string  `mapstructure:"webhook_path"`
	PollTimeout      int     `mapstructure:"poll_timeout"`      // seconds, long-poll hold time
	ProgressInterval int     `mapstructure:"progress_interval"` // seconds between "processing" refreshes
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
}

// Simulation holds the configuration for the remote trade-simulation API.
type Simulation struct {
	Endpoint string `mapstructure:"endpoint"`
	Timeout  int    `mapstructure:"timeout"` // seconds
	Network  string `mapstructure:"network"`
}

// Callbacks controls how inline-button callbacks are consumed.
type Callbacks struct {
	Dedupe bool   `mapstructure:"dedupe"`
	Store  string `mapstructure:"store"` // "memory" or "redis"
	TTL    int    `mapstructure:"ttl"`   // seconds a consumed token is remembered
}

// Redis holds the connection settings used by the redis callback guard.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Directory seeds user links for local runs.
type Directory struct {
	Users []SeedUser `mapstructure:"users"`
}

// SeedUser links a Telegram handle to a trading identity and its custodial address.
type SeedUser struct {
	Username        string `mapstructure:"username"`
	ChatID          int64  `mapstructure:"chat_id"`
	TradingIdentity string `mapstructure:"trading_identity"`
	SafeAddress     string `mapstructure:"safe_address"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// Environment-only deployments have no config file.
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.mode", "polling")
	v.SetDefault("telegram.webhook_path", "/telegram/webhook")
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.progress_interval", 3)
	v.SetDefault("telegram.rate_limit", 25) // Bot API allows ~30 messages per second
	v.SetDefault("telegram.rate_limit_burst", 5)

	v.SetDefault("simulation.endpoint", "")
	v.SetDefault("simulation.timeout", 60)
	v.SetDefault("simulation.network", "arbitrum")

	v.SetDefault("callbacks.dedupe", false)
	v.SetDefault("callbacks.store", "memory")
	v.SetDefault("callbacks.ttl", 86400)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("server.port", 3000)
	v.SetDefault("database.dsn", "relay.db")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}
