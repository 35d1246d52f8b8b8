package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Gin      *GinConfig      `mapstructure:"gin"`
	API      *APIConfig      `mapstructure:"api"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Remote   *RemoteConfig   `mapstructure:"remote"`
	Intake   *IntakeConfig   `mapstructure:"intake"`
	Sync     *SyncConfig     `mapstructure:"sync"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type APIConfig struct {
	Environment        string `mapstructure:"environment"`
	Port               string `mapstructure:"port"`
	BaseURL            string `mapstructure:"base_url"`
	JWTSigningKey      string `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains string `mapstructure:"allowed_cors_domains"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

// RemoteConfig points at the GitHub-backed store and the submission
// dispatcher.
type RemoteConfig struct {
	GitHubToken      string `mapstructure:"github_token"`
	GitHubOwner      string `mapstructure:"github_owner"`
	GitHubRepo       string `mapstructure:"github_repo"`
	GitHubBranch     string `mapstructure:"github_branch"`
	DispatchEndpoint string `mapstructure:"dispatch_endpoint"`
	DispatchAPIKey   string `mapstructure:"dispatch_api_key"`
	EditBaseURL      string `mapstructure:"edit_base_url"`
	Attempts         int    `mapstructure:"attempts"`
	BackoffSeconds   int    `mapstructure:"backoff_seconds"`
}

func (c *RemoteConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

// IntakeConfig selects where queued offline submissions are read from.
// Kind is "github" or "redis".
type IntakeConfig struct {
	Kind          string `mapstructure:"kind"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type SyncConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

func (c *SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load reads the YAML config at path. Every key can be overridden by a
// MUSTER_ environment variable, e.g. MUSTER_POSTGRES_PASSWORD.
func Load(path string) (*AppConfig, error) {
	viper.SetConfigFile(path)

	viper.SetEnvPrefix("MUSTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := viper.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal -> %w", err)
	}

	return conf, nil
}
