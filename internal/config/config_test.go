package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// ServerConfig.GetAddress
// ---------------------------------------------------------------------------

func TestGetAddress(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{"default", ServerConfig{Host: "0.0.0.0", Port: 8080}, "0.0.0.0:8080"},
		{"localhost", ServerConfig{Host: "localhost", Port: 3000}, "localhost:3000"},
		{"empty host", ServerConfig{Host: "", Port: 8080}, ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetAddress()
			if got != tt.want {
				t.Errorf("GetAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Config.Validate
// ---------------------------------------------------------------------------

func minimalValidConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		AWS:      AWSConfig{Region: "us-east-1", AuthMethod: "default"},
		DynamoDB: DynamoDBConfig{TableName: "dea-main", GSI1Name: "GSI1"},
		Storage:  StorageConfig{S3: S3StorageConfig{Bucket: "dea-datasets", PartSizeMB: 500}},
		Audit: AuditConfig{
			LogGroupName:      "/dea/audit",
			TrailLogGroupName: "/dea/trail",
			LookbackDays:      365,
			QueryLimit:        10000,
			Shipper:           "stdout",
		},
		Auth:    AuthConfig{Mode: "jwt"},
		Roles:   DefaultRoles(),
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid minimal config passes", func(t *testing.T) {
		if err := minimalValidConfig().Validate(); err != nil {
			t.Errorf("Validate() unexpected error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"missing region", func(c *Config) { c.AWS.Region = "" }, "aws.region is required"},
		{"bad aws auth", func(c *Config) { c.AWS.AuthMethod = "magic" }, "invalid aws.auth_method"},
		{"missing table", func(c *Config) { c.DynamoDB.TableName = "" }, "dynamodb.table_name is required"},
		{"missing gsi", func(c *Config) { c.DynamoDB.GSI1Name = "" }, "dynamodb.gsi1_name is required"},
		{"missing bucket", func(c *Config) { c.Storage.S3.Bucket = "" }, "storage.s3.bucket is required"},
		{"part too small", func(c *Config) { c.Storage.S3.PartSizeMB = 4 }, "part_size_mb must be at least 5"},
		{"missing audit group", func(c *Config) { c.Audit.LogGroupName = "" }, "audit.log_group_name is required"},
		{"missing trail group", func(c *Config) { c.Audit.TrailLogGroupName = "" }, "audit.trail_log_group_name is required"},
		{"zero lookback", func(c *Config) { c.Audit.LookbackDays = 0 }, "lookback_days must be positive"},
		{"query limit too large", func(c *Config) { c.Audit.QueryLimit = 10001 }, "query_limit must be between"},
		{"bad shipper", func(c *Config) { c.Audit.Shipper = "kafka" }, "invalid audit.shipper"},
		{"bad auth mode", func(c *Config) { c.Auth.Mode = "saml" }, "invalid auth.mode"},
		{"oidc without issuer", func(c *Config) {
			c.Auth.Mode = "oidc"
			c.Auth.OIDC.ClientID = "client"
		}, "issuer_url is required"},
		{"oidc without client", func(c *Config) {
			c.Auth.Mode = "oidc"
			c.Auth.OIDC.IssuerURL = "https://cognito-idp.us-east-1.amazonaws.com/pool"
		}, "client_id is required"},
		{"unnamed role", func(c *Config) { c.Roles = append(c.Roles, RoleConfig{}) }, "every role needs a name"},
		{"duplicate role", func(c *Config) { c.Roles = append(c.Roles, RoleConfig{Name: "Admin"}) }, "duplicate role"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid logging level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalValidConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestScopesForRole(t *testing.T) {
	cfg := minimalValidConfig()
	if got := cfg.ScopesForRole("Admin"); len(got) != 1 || got[0] != "admin" {
		t.Errorf("ScopesForRole(Admin) = %v", got)
	}
	if got := cfg.ScopesForRole("Nobody"); got != nil {
		t.Errorf("ScopesForRole(Nobody) = %v, want nil", got)
	}
}

func TestDerivedValues(t *testing.T) {
	s3 := S3StorageConfig{PartSizeMB: 5}
	if got := s3.PartSizeBytes(); got != 5*1024*1024 {
		t.Errorf("PartSizeBytes() = %d", got)
	}
	audit := AuditConfig{LookbackDays: 2}
	if got := audit.Lookback(); got != 48*time.Hour {
		t.Errorf("Lookback() = %v", got)
	}
}

// ---------------------------------------------------------------------------
// expandEnv
// ---------------------------------------------------------------------------

func TestExpandEnv(t *testing.T) {
	t.Run("expands ${VAR} syntax", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_SECRET", "super-secret")
		if got := expandEnv("${CONFIG_TEST_SECRET}"); got != "super-secret" {
			t.Errorf("expandEnv() = %q, want %q", got, "super-secret")
		}
	})

	t.Run("plain string passthrough", func(t *testing.T) {
		if got := expandEnv("no-vars-here"); got != "no-vars-here" {
			t.Errorf("expandEnv() = %q, want %q", got, "no-vars-here")
		}
	})

	t.Run("unset variable expands to empty string", func(t *testing.T) {
		os.Unsetenv("CONFIG_TEST_DEFINITELY_UNSET_12345")
		if got := expandEnv("${CONFIG_TEST_DEFINITELY_UNSET_12345}"); got != "" {
			t.Errorf("expandEnv() = %q, want empty string", got)
		}
	})
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// writeTempConfig creates a temp YAML file and registers a cleanup to remove it.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "config-test-*.yaml")
	if err != nil {
		t.Fatal("CreateTemp:", err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	if _, err := f.WriteString(content); err != nil {
		t.Fatal("WriteString:", err)
	}
	f.Close()
	return f.Name()
}

func TestLoad_WithConfigFile(t *testing.T) {
	const content = `
server:
  port: 9999
dynamodb:
  table_name: "dea-test"
audit:
  log_group_name: "/test/audit"
  lookback_days: 30
  exclude_audit_events: true
auth:
  mode: "jwt"
roles:
  - name: "Investigator"
    scopes: ["cases:read", "audit:case"]
logging:
  level: "debug"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.DynamoDB.TableName != "dea-test" {
		t.Errorf("DynamoDB.TableName = %q", cfg.DynamoDB.TableName)
	}
	if cfg.Audit.LogGroupName != "/test/audit" || cfg.Audit.LookbackDays != 30 || !cfg.Audit.ExcludeAuditEvents {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if len(cfg.Roles) != 1 || cfg.Roles[0].Name != "Investigator" {
		t.Errorf("Roles = %+v", cfg.Roles)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "auth:\n  mode: jwt\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.DynamoDB.GSI1Name != "GSI1" {
		t.Errorf("DynamoDB.GSI1Name = %q, want GSI1", cfg.DynamoDB.GSI1Name)
	}
	if cfg.Audit.TrailLogGroupName != "/dea/trail" {
		t.Errorf("Audit.TrailLogGroupName = %q", cfg.Audit.TrailLogGroupName)
	}
	if cfg.Storage.S3.PresignTTL != time.Hour {
		t.Errorf("Storage.S3.PresignTTL = %v, want 1h", cfg.Storage.S3.PresignTTL)
	}
	if len(cfg.Roles) != len(DefaultRoles()) {
		t.Errorf("Roles = %d entries, want defaults", len(cfg.Roles))
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEA_DYNAMODB_TABLE_NAME", "from-env")
	t.Setenv("DEA_AUDIT_LOOKBACK_DAYS", "7")
	cfg, err := Load(writeTempConfig(t, "auth:\n  mode: jwt\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DynamoDB.TableName != "from-env" {
		t.Errorf("DynamoDB.TableName = %q, want from-env", cfg.DynamoDB.TableName)
	}
	if cfg.Audit.LookbackDays != 7 {
		t.Errorf("Audit.LookbackDays = %d, want 7", cfg.Audit.LookbackDays)
	}
}

func TestLoad_SecretExpansion(t *testing.T) {
	t.Setenv("DEA_TEST_SECRET_KEY", "expanded")
	const content = `
auth:
  mode: jwt
aws:
  auth_method: static
  access_key_id: "AKIA"
  secret_access_key: "${DEA_TEST_SECRET_KEY}"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AWS.SecretAccessKey != "expanded" {
		t.Errorf("AWS.SecretAccessKey = %q, want expanded", cfg.AWS.SecretAccessKey)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	_, err := Load(writeTempConfig(t, "auth:\n  mode: oidc\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Load() error = %v, want invalid configuration", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "server: [unterminated"))
	if err == nil {
		t.Error("Load() = nil error, want error for malformed YAML")
	}
}
