package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
type Config struct {
	Env            string         // Env is the current environment: local, development, production.
	HTTPPort       int            // HTTPPort is the port of the REST API.
	MonitoringPort int            // MonitoringPort is the port of the /healthz and /metrics listener.
	Database       PostgresConfig // Database holds the postgres database configuration
	Redis          RedisConfig    // Redis holds the stats cache configuration
	Provider       ProviderConfig // Provider holds the upstream number provider settings
	Admin          AdminConfig    // Admin holds the default admin credentials
	Telegram       TelegramConfig // Telegram holds the employee bot settings
	Location       *time.Location // Location is the canonical timezone for order dates and statistics
	StatsCacheTTL  time.Duration  // StatsCacheTTL is how long computed statistics stay in redis
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderConfig holds the parameters sent with every provider request.
type ProviderConfig struct {
	URL      string
	APIKey   string
	Service  string
	Operator string
	Country  string
	MaxPrice int
	Timeout  time.Duration
}

// AdminConfig holds the credentials used to provision the admin account.
type AdminConfig struct {
	Username string
	Password string
}

// TelegramConfig holds the bot token and long-polling timeout. The bot is disabled when Token is empty.
type TelegramConfig struct {
	Token         string
	PollerTimeout time.Duration
}

const envPrefix = "NUMERA"

// MustLoad reads an optional .env file, an optional YAML file from CONFIG_PATH
// and NUMERA_* environment variables, in increasing priority. It panics on invalid values.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			panic("config error: " + err.Error())
		}
	}

	location, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		panic("failed to load timezone: " + err.Error())
	}

	return &Config{
		Env:            v.GetString("env"),
		HTTPPort:       mustInt(v, "http.port"),
		MonitoringPort: mustInt(v, "monitoring.port"),
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       mustInt(v, "redis.db"),
		},
		Provider: ProviderConfig{
			URL:      v.GetString("provider.url"),
			APIKey:   v.GetString("provider.api_key"),
			Service:  v.GetString("provider.service"),
			Operator: v.GetString("provider.operator"),
			Country:  v.GetString("provider.country"),
			MaxPrice: mustInt(v, "provider.max_price"),
			Timeout:  mustDuration(v, "provider.timeout"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		Telegram: TelegramConfig{
			Token:         v.GetString("telegram.token"),
			PollerTimeout: mustDuration(v, "telegram.timeout"),
		},
		Location:      location,
		StatsCacheTTL: mustDuration(v, "stats.cache_ttl"),
	}
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"env":                "production",
		"http.port":          "3000",
		"monitoring.port":    "8080",
		"postgres.host":      "localhost",
		"postgres.port":      "5432",
		"postgres.user":      "",
		"postgres.password":  "",
		"postgres.db_name":   "numera",
		"redis.addr":         "localhost:6379",
		"redis.password":     "",
		"redis.db":           "0",
		"provider.url":       "",
		"provider.api_key":   "",
		"provider.service":   "tpgs",
		"provider.operator":  "9",
		"provider.country":   "4",
		"provider.max_price": "37",
		"provider.timeout":   "15s",
		"admin.username":     "admin",
		"admin.password":     "admin123",
		"telegram.token":     "",
		"telegram.timeout":   "10s",
		"timezone":           "Local",
		"stats.cache_ttl":    "30s",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func mustInt(v *viper.Viper, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic("failed to parse " + key + " from configuration")
	}
	return value
}

func mustDuration(v *viper.Viper, key string) time.Duration {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		panic("failed to parse " + key + " from configuration")
	}
	return value
}
