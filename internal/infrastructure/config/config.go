package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/opensox/paygate/internal/shared/config"
)

type Config struct {
	Server         sharedConfig.ServerConfig         `mapstructure:"server"`
	Database       sharedConfig.DatabaseConfig       `mapstructure:"database"`
	Logger         sharedConfig.LoggerConfig         `mapstructure:"logger"`
	Auth           sharedConfig.AuthConfig           `mapstructure:"auth"`
	Redis          sharedConfig.RedisConfig          `mapstructure:"redis"`
	Webhook        sharedConfig.WebhookConfig        `mapstructure:"webhook"`
	Guard          sharedConfig.GuardConfig          `mapstructure:"guard"`
	RateLimit      sharedConfig.RateLimitConfig      `mapstructure:"ratelimit"`
	Subscription   sharedConfig.SubscriptionConfig   `mapstructure:"subscription"`
	Reconciliation sharedConfig.ReconciliationConfig `mapstructure:"reconciliation"`
	Community      sharedConfig.CommunityConfig      `mapstructure:"community"`
	Admin          sharedConfig.AdminConfig          `mapstructure:"admin"`
	Kafka          sharedConfig.KafkaConfig          `mapstructure:"kafka"`
	Events         sharedConfig.EventsConfig         `mapstructure:"events"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// configPath overrides the default search locations when non-empty.
func Load(env string, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("PAYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Running purely from env vars is allowed; only a broken file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5000"})
	v.SetDefault("server.max_body_bytes", 10*1024)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "paygate_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.storage_timeout_ms", 5000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.signature_header", "X-Razorpay-Signature")
	v.SetDefault("webhook.max_body_bytes", 1024*1024)
	v.SetDefault("webhook.processing_timeout_ms", 10000)

	v.SetDefault("guard.threshold", 5)
	v.SetDefault("guard.base_ban", 15*time.Minute)
	v.SetDefault("guard.max_ban", 24*time.Hour)
	v.SetDefault("guard.violation_window", 15*time.Minute)
	v.SetDefault("guard.shards", 32)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.auth.limit", 5)
	v.SetDefault("ratelimit.auth.window", 15*time.Minute)
	v.SetDefault("ratelimit.api.limit", 100)
	v.SetDefault("ratelimit.api.window", 15*time.Minute)
	v.SetDefault("ratelimit.report_denials_as_violations", false)

	v.SetDefault("subscription.plan_conflict_policy", "supersede")

	v.SetDefault("reconciliation.interval", 5*time.Minute)
	v.SetDefault("reconciliation.batch_size", 50)
	v.SetDefault("reconciliation.max_attempts", 10)

	v.SetDefault("community.invite_url", "")

	v.SetDefault("kafka.topic", "")

	v.SetDefault("events.backend", "log")
	v.SetDefault("events.redis_channel", "paygate:events")
}
