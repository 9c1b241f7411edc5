// Package config loads and validates the archive configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the DEA_ prefix (e.g., DEA_DYNAMODB_TABLE_NAME
// overrides dynamodb.table_name in the YAML). The same binary runs as a long-lived
// HTTP server during local development and as a Lambda function behind API Gateway;
// in Lambda everything usually arrives through environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AWS       AWSConfig       `mapstructure:"aws"`
	DynamoDB  DynamoDBConfig  `mapstructure:"dynamodb"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Roles     []RoleConfig    `mapstructure:"roles"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AllowedOrigins lists browser origins allowed by CORS; "*" allows any
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AWSConfig holds the credentials and region shared by every AWS client
type AWSConfig struct {
	Region string `mapstructure:"region"`
	// Endpoint overrides every service endpoint (LocalStack and similar emulators)
	Endpoint string `mapstructure:"endpoint"`

	// Authentication method: "default", "static", "oidc", "assume_role"
	// - "default": Use AWS default credential chain (env vars, shared config, Lambda role, etc.)
	// - "static": Use explicit access key and secret key
	// - "oidc": Use Web Identity/OIDC token for authentication
	// - "assume_role": Assume an IAM role (optionally with external ID for cross-account)
	AuthMethod string `mapstructure:"auth_method"`

	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	RoleARN              string `mapstructure:"role_arn"`
	RoleSessionName      string `mapstructure:"role_session_name"`
	ExternalID           string `mapstructure:"external_id"`
	WebIdentityTokenFile string `mapstructure:"web_identity_token_file"`
}

// DynamoDBConfig holds the single-table configuration
type DynamoDBConfig struct {
	TableName string `mapstructure:"table_name"`
	// GSI1Name is the index used for reverse lookups (user -> cases, token id -> user)
	GSI1Name string `mapstructure:"gsi1_name"`
}

// StorageConfig holds evidence storage configuration
type StorageConfig struct {
	S3 S3StorageConfig `mapstructure:"s3"`
}

// S3StorageConfig holds the datasets bucket configuration
type S3StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
	// UsePathStyle is needed for S3-compatible emulators
	UsePathStyle bool `mapstructure:"use_path_style"`
	// PartSizeMB is the multipart chunk size handed to clients
	PartSizeMB int `mapstructure:"part_size_mb"`
	// PresignTTL bounds how long upload and download URLs stay valid
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// AuditConfig holds audit logging and audit query configuration
type AuditConfig struct {
	// LogGroupName is the application audit log group queried for DEA events
	LogGroupName string `mapstructure:"log_group_name"`
	// TrailLogGroupName is the CloudTrail log group queried for data-store events
	TrailLogGroupName string `mapstructure:"trail_log_group_name"`
	// LookbackDays bounds the query time range
	LookbackDays int `mapstructure:"lookback_days"`
	// QueryLimit caps rows returned by one query (CloudWatch maximum 10000)
	QueryLimit int `mapstructure:"query_limit"`
	// ExcludeAuditEvents drops REQUEST_*_AUDIT / GET_*_AUDIT rows from exports
	ExcludeAuditEvents bool `mapstructure:"exclude_audit_events"`
	// LogReadOperations records GET requests as audit events too
	LogReadOperations bool `mapstructure:"log_read_operations"`
	// Shipper selects where audit events are written: "stdout" or "cloudwatch"
	Shipper string `mapstructure:"shipper"`
	// LogStreamName is the stream used by the cloudwatch shipper
	LogStreamName string `mapstructure:"log_stream_name"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// Mode is "oidc" (Cognito or another OIDC provider) or "jwt" (locally signed HS256 tokens)
	Mode string     `mapstructure:"mode"`
	OIDC OIDCConfig `mapstructure:"oidc"`
}

// OIDCConfig holds OIDC provider configuration
type OIDCConfig struct {
	IssuerURL    string   `mapstructure:"issuer_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
	// RoleClaim names the id token claim carrying the DEA role
	RoleClaim string `mapstructure:"role_claim"`
	// UsernameClaim names the id token claim carrying the login name
	UsernameClaim string `mapstructure:"username_claim"`
}

// RoleConfig maps a role name (from the identity token) to the scopes it grants
type RoleConfig struct {
	Name   string   `mapstructure:"name"`
	Scopes []string `mapstructure:"scopes"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	ServiceName string        `mapstructure:"service_name"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// bindEnvVars explicitly binds environment variables to config keys.
// This is necessary because AutomaticEnv() doesn't work well with nested structs during Unmarshal.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.read_timeout",
		"server.write_timeout",
		"server.allowed_origins",

		// AWS
		"aws.region",
		"aws.endpoint",
		"aws.auth_method",
		"aws.access_key_id",
		"aws.secret_access_key",
		"aws.role_arn",
		"aws.role_session_name",
		"aws.external_id",
		"aws.web_identity_token_file",

		// DynamoDB
		"dynamodb.table_name",
		"dynamodb.gsi1_name",

		// Storage
		"storage.s3.bucket",
		"storage.s3.use_path_style",
		"storage.s3.part_size_mb",
		"storage.s3.presign_ttl",

		// Audit
		"audit.log_group_name",
		"audit.trail_log_group_name",
		"audit.lookback_days",
		"audit.query_limit",
		"audit.exclude_audit_events",
		"audit.log_read_operations",
		"audit.shipper",
		"audit.log_stream_name",

		// Auth
		"auth.mode",
		"auth.oidc.issuer_url",
		"auth.oidc.client_id",
		"auth.oidc.client_secret",
		"auth.oidc.redirect_url",
		"auth.oidc.scopes",
		"auth.oidc.role_claim",
		"auth.oidc.username_claim",

		// Logging
		"logging.level",
		"logging.format",

		// Telemetry
		"telemetry.service_name",
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dea")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	v.SetEnvPrefix("DEA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in sensitive fields
	cfg.AWS.AccessKeyID = expandEnv(cfg.AWS.AccessKeyID)
	cfg.AWS.SecretAccessKey = expandEnv(cfg.AWS.SecretAccessKey)
	cfg.Auth.OIDC.ClientSecret = expandEnv(cfg.Auth.OIDC.ClientSecret)

	if len(cfg.Roles) == 0 {
		cfg.Roles = DefaultRoles()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.auth_method", "default")

	// DynamoDB defaults
	v.SetDefault("dynamodb.table_name", "dea-main")
	v.SetDefault("dynamodb.gsi1_name", "GSI1")

	// Storage defaults
	v.SetDefault("storage.s3.bucket", "dea-datasets")
	v.SetDefault("storage.s3.part_size_mb", 500)
	v.SetDefault("storage.s3.presign_ttl", "1h")

	// Audit defaults
	v.SetDefault("audit.log_group_name", "/dea/audit")
	v.SetDefault("audit.trail_log_group_name", "/dea/trail")
	v.SetDefault("audit.lookback_days", 365)
	v.SetDefault("audit.query_limit", 10000)
	v.SetDefault("audit.exclude_audit_events", false)
	v.SetDefault("audit.log_read_operations", true)
	v.SetDefault("audit.shipper", "stdout")
	v.SetDefault("audit.log_stream_name", "dea-api")

	// Auth defaults
	v.SetDefault("auth.mode", "oidc")
	v.SetDefault("auth.oidc.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("auth.oidc.role_claim", "custom:DEARole")
	v.SetDefault("auth.oidc.username_claim", "cognito:username")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.service_name", "dea-backend")
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
}

// DefaultRoles returns the built-in role definitions used when none are configured
func DefaultRoles() []RoleConfig {
	return []RoleConfig{
		{
			Name:   "CaseWorker",
			Scopes: []string{"cases:read", "cases:write", "files:read", "files:write", "audit:case"},
		},
		{
			Name:   "EvidenceManager",
			Scopes: []string{"cases:read", "cases:write", "files:read", "files:write", "audit:case", "audit:user", "audit:system"},
		},
		{
			Name:   "Auditor",
			Scopes: []string{"cases:read", "audit:case", "audit:user", "audit:system"},
		},
		{
			Name:   "Admin",
			Scopes: []string{"admin"},
		},
	}
}

// expandEnv expands environment variables in the format ${VAR_NAME}
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}
	validAuthMethods := map[string]bool{"": true, "default": true, "static": true, "oidc": true, "assume_role": true}
	if !validAuthMethods[c.AWS.AuthMethod] {
		return fmt.Errorf("invalid aws.auth_method: %s (must be default, static, oidc, or assume_role)", c.AWS.AuthMethod)
	}

	if c.DynamoDB.TableName == "" {
		return fmt.Errorf("dynamodb.table_name is required")
	}
	if c.DynamoDB.GSI1Name == "" {
		return fmt.Errorf("dynamodb.gsi1_name is required")
	}

	if c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required")
	}
	if c.Storage.S3.PartSizeMB < 5 {
		// S3 rejects multipart parts below 5 MiB (except the last one)
		return fmt.Errorf("storage.s3.part_size_mb must be at least 5, got %d", c.Storage.S3.PartSizeMB)
	}

	if c.Audit.LogGroupName == "" {
		return fmt.Errorf("audit.log_group_name is required")
	}
	if c.Audit.TrailLogGroupName == "" {
		return fmt.Errorf("audit.trail_log_group_name is required")
	}
	if c.Audit.LookbackDays < 1 {
		return fmt.Errorf("audit.lookback_days must be positive, got %d", c.Audit.LookbackDays)
	}
	if c.Audit.QueryLimit < 1 || c.Audit.QueryLimit > 10000 {
		return fmt.Errorf("audit.query_limit must be between 1 and 10000, got %d", c.Audit.QueryLimit)
	}
	switch c.Audit.Shipper {
	case "stdout", "cloudwatch":
	default:
		return fmt.Errorf("invalid audit.shipper: %s (must be stdout or cloudwatch)", c.Audit.Shipper)
	}

	switch c.Auth.Mode {
	case "jwt":
	case "oidc":
		if c.Auth.OIDC.IssuerURL == "" {
			return fmt.Errorf("auth.oidc.issuer_url is required when auth.mode is oidc")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("auth.oidc.client_id is required when auth.mode is oidc")
		}
	default:
		return fmt.Errorf("invalid auth.mode: %s (must be oidc or jwt)", c.Auth.Mode)
	}

	seen := make(map[string]bool)
	for _, r := range c.Roles {
		if r.Name == "" {
			return fmt.Errorf("roles: every role needs a name")
		}
		if seen[r.Name] {
			return fmt.Errorf("roles: duplicate role %q", r.Name)
		}
		seen[r.Name] = true
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PartSizeBytes returns the multipart chunk size in bytes
func (c *S3StorageConfig) PartSizeBytes() int64 {
	return int64(c.PartSizeMB) * 1024 * 1024
}

// Lookback returns the audit query time window
func (c *AuditConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// ScopesForRole returns the scopes granted to a role, or nil for unknown roles
func (c *Config) ScopesForRole(role string) []string {
	for _, r := range c.Roles {
		if r.Name == role {
			return r.Scopes
		}
	}
	return nil
}
