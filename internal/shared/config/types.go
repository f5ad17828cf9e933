package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// MaxBodyBytes caps request bodies on every route except the webhook.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	// TrustedProxies is handed to gin so ClientIP honours X-Forwarded-For only from these hops.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	// StorageTimeoutMs bounds every ledger/activator storage call.
	StorageTimeoutMs int `mapstructure:"storage_timeout_ms"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

func (d *DatabaseConfig) StorageTimeout() time.Duration {
	if d.StorageTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.StorageTimeoutMs) * time.Millisecond
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// WebhookConfig holds the payment provider webhook settings. Secret is never logged.
type WebhookConfig struct {
	Secret              string `mapstructure:"secret"`
	SignatureHeader     string `mapstructure:"signature_header"`
	MaxBodyBytes        int64  `mapstructure:"max_body_bytes"`
	ProcessingTimeoutMs int    `mapstructure:"processing_timeout_ms"`
}

func (w *WebhookConfig) ProcessingTimeout() time.Duration {
	if w.ProcessingTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(w.ProcessingTimeoutMs) * time.Millisecond
}

type GuardConfig struct {
	Threshold       int           `mapstructure:"threshold"`
	BaseBan         time.Duration `mapstructure:"base_ban"`
	MaxBan          time.Duration `mapstructure:"max_ban"`
	ViolationWindow time.Duration `mapstructure:"violation_window"`
	Shards          int           `mapstructure:"shards"`
}

type RouteLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend                   string           `mapstructure:"backend"`
	Auth                      RouteLimitConfig `mapstructure:"auth"`
	API                       RouteLimitConfig `mapstructure:"api"`
	ReportDenialsAsViolations bool             `mapstructure:"report_denials_as_violations"`
}

type PlanConfig struct {
	ID         string        `mapstructure:"id"`
	Name       string        `mapstructure:"name"`
	Duration   time.Duration `mapstructure:"duration"`
	PriceMinor int64         `mapstructure:"price_minor"`
	Currency   string        `mapstructure:"currency"`
}

type SubscriptionConfig struct {
	// PlanConflictPolicy is "supersede" or "reject".
	PlanConflictPolicy string       `mapstructure:"plan_conflict_policy"`
	Plans              []PlanConfig `mapstructure:"plans"`
}

type ReconciliationConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type CommunityConfig struct {
	InviteURL string `mapstructure:"invite_url"`
}

type PolicyRule struct {
	Role   string `mapstructure:"role"`
	Path   string `mapstructure:"path"`
	Method string `mapstructure:"method"`
}

type AdminConfig struct {
	Policies []PolicyRule `mapstructure:"policies"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type EventsConfig struct {
	// Backend is "log", "redis" or "kafka".
	Backend      string `mapstructure:"backend"`
	RedisChannel string `mapstructure:"redis_channel"`
}
