// Package config loads deployment configuration from VESPA_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyrag/nyrag/internal/core/vespa"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// DeployConfig holds everything needed to reach a Vespa deployment.
type DeployConfig struct {
	Mode  string      `mapstructure:"deploy_mode"`
	Local LocalConfig `mapstructure:"local"`
	Cloud CloudConfig `mapstructure:"cloud"`
	TLS   TLSConfig   `mapstructure:"tls"`
	Log   LogConfig   `mapstructure:"log"`
}

// LocalConfig holds settings for a locally run Vespa.
type LocalConfig struct {
	URL             string `mapstructure:"url"`
	Port            int    `mapstructure:"port"` // 0 means mode default
	ConfigServerURL string `mapstructure:"configserver_url"`
	ComposeFile     string `mapstructure:"compose_file"`
	DockerImage     string `mapstructure:"docker_image"`
	DockerHost      string `mapstructure:"docker_host"`
}

// CloudConfig holds Vespa Cloud coordinates and API key material.
type CloudConfig struct {
	Tenant      string `mapstructure:"tenant"`
	Application string `mapstructure:"application"`
	Instance    string `mapstructure:"instance"`
	APIKeyPath  string `mapstructure:"api_key_path"`
	APIKey      string `mapstructure:"api_key"`
	APIURL      string `mapstructure:"api_url"`
}

// TLSConfig holds data-plane TLS settings.
type TLSConfig struct {
	ClientCert string `mapstructure:"client_cert"`
	ClientKey  string `mapstructure:"client_key"`
	CACert     string `mapstructure:"ca_cert"`
	Verify     string `mapstructure:"verify"` // "1", "true", "yes" enable; empty means default
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultTLSVerify is used when VESPA_TLS_VERIFY is unset.
const DefaultTLSVerify = true

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"deploy_mode":            "VESPA_DEPLOY_MODE",
	"local.url":              "VESPA_URL",
	"local.port":             "VESPA_PORT",
	"local.configserver_url": "VESPA_CONFIGSERVER_URL",
	"local.compose_file":     "VESPA_COMPOSE_FILE",
	"local.docker_image":     "VESPA_DOCKER_IMAGE",
	"local.docker_host":      "VESPA_DOCKER_HOST",
	"cloud.tenant":           "VESPA_CLOUD_TENANT",
	"cloud.application":      "VESPA_CLOUD_APPLICATION",
	"cloud.instance":         "VESPA_CLOUD_INSTANCE",
	"cloud.api_key_path":     "VESPA_CLOUD_API_KEY_PATH",
	"cloud.api_key":          "VESPA_CLOUD_API_KEY",
	"cloud.api_url":          "VESPA_CLOUD_API_URL",
	"tls.client_cert":        "VESPA_CLIENT_CERT",
	"tls.client_key":         "VESPA_CLIENT_KEY",
	"tls.ca_cert":            "VESPA_CA_CERT",
	"tls.verify":             "VESPA_TLS_VERIFY",
	"log.level":              "NYRAG_LOG_LEVEL",
	"log.format":             "NYRAG_LOG_FORMAT",
}

// =============================================================================
// Config Loading
// =============================================================================

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("deploy_mode", string(vespa.ModeLocal))
	v.SetDefault("local.url", vespa.DefaultURL)
	v.SetDefault("local.port", 0)
	v.SetDefault("local.configserver_url", "")
	v.SetDefault("local.compose_file", "")
	v.SetDefault("local.docker_image", vespa.DefaultDockerImage)
	v.SetDefault("local.docker_host", "")
	v.SetDefault("cloud.tenant", "")
	v.SetDefault("cloud.application", "")
	v.SetDefault("cloud.instance", vespa.DefaultCloudInstance)
	v.SetDefault("cloud.api_key_path", "")
	v.SetDefault("cloud.api_key", "")
	v.SetDefault("cloud.api_url", vespa.DefaultCloudAPIURL)
	v.SetDefault("tls.client_cert", "")
	v.SetDefault("tls.client_key", "")
	v.SetDefault("tls.ca_cert", "")
	v.SetDefault("tls.verify", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	for key, env := range envBindings {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, env)
	}

	return v
}

// Load reads configuration from v, merging configPath when given.
func Load(v *viper.Viper, configPath string) (*DeployConfig, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	var cfg DeployConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default loads configuration from the environment alone. Invalid values
// fall back to the defaults.
func Default() *DeployConfig {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		return &DeployConfig{
			Mode:  string(vespa.ModeLocal),
			Local: LocalConfig{URL: vespa.DefaultURL, DockerImage: vespa.DefaultDockerImage},
			Cloud: CloudConfig{Instance: vespa.DefaultCloudInstance, APIURL: vespa.DefaultCloudAPIURL},
		}
	}
	return cfg
}

// Validate checks the deploy mode.
func (c *DeployConfig) Validate() error {
	switch vespa.Mode(strings.ToLower(c.Mode)) {
	case vespa.ModeLocal, vespa.ModeCloud:
		return nil
	default:
		return fmt.Errorf("%w: %q", vespa.ErrUnknownMode, c.Mode)
	}
}

// =============================================================================
// Accessors
// =============================================================================

// IsLocalMode reports whether the deployment targets a local Vespa.
func (c *DeployConfig) IsLocalMode() bool {
	return vespa.Mode(strings.ToLower(c.Mode)) != vespa.ModeCloud
}

// IsCloudMode reports whether the deployment targets Vespa Cloud.
func (c *DeployConfig) IsCloudMode() bool {
	return !c.IsLocalMode()
}

func (c *DeployConfig) ConfigServerURL() string  { return c.Local.ConfigServerURL }
func (c *DeployConfig) CloudTenant() string      { return c.Cloud.Tenant }
func (c *DeployConfig) CloudApplication() string { return c.Cloud.Application }
func (c *DeployConfig) CloudInstance() string    { return c.Cloud.Instance }
func (c *DeployConfig) CloudAPIKeyPath() string  { return c.Cloud.APIKeyPath }
func (c *DeployConfig) CloudAPIKey() string      { return c.Cloud.APIKey }

// VespaURL returns the query endpoint URL.
func (c *DeployConfig) VespaURL() string {
	if c.Local.URL == "" {
		return vespa.DefaultURL
	}
	return c.Local.URL
}

// VespaPort returns the configured port or the default for the mode.
func (c *DeployConfig) VespaPort() int {
	if c.Local.Port > 0 {
		return c.Local.Port
	}
	if c.IsCloudMode() {
		return vespa.DefaultPort(vespa.ModeCloud)
	}
	return vespa.DefaultPort(vespa.ModeLocal)
}

// TLSVerify reports whether server certificates are verified.
func (c *DeployConfig) TLSVerify() bool {
	return parseVerify(c.TLS.Verify)
}

// DataPlaneParams returns the endpoint and TLS material for a data-plane
// client.
func (c *DeployConfig) DataPlaneParams() vespa.DataPlaneParams {
	return vespa.DataPlaneParams{
		URL:    c.VespaURL(),
		Port:   c.VespaPort(),
		Cert:   c.TLS.ClientCert,
		Key:    c.TLS.ClientKey,
		CACert: c.TLS.CACert,
		Verify: c.TLSVerify(),
	}
}

func parseVerify(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTLSVerify
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

var _ vespa.DeployConfig = (*DeployConfig)(nil)
