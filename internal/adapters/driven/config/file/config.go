// Package file loads server configuration from a TOML file with
// environment variable overrides.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/yugasun/Feishu-MCP/internal/core/domain"
)

// Config holds everything the server needs at startup. The auth mode is
// fixed per deployment here, never per request.
type Config struct {
	// AppID is the Feishu application identity.
	AppID string `toml:"app_id"`
	// AppSecret is the static application secret.
	AppSecret string `toml:"app_secret"`
	// AuthMode is "tenant" or "user".
	AuthMode string `toml:"auth_mode"`
	// RedirectURI receives OAuth callbacks in user mode.
	RedirectURI string `toml:"redirect_uri"`
	// BaseURL overrides the Feishu OpenAPI base (Lark deployments).
	BaseURL string `toml:"base_url"`
	// UserKey identifies the default caller in user mode.
	UserKey string `toml:"user_key"`
	// CallbackPort is where the local OAuth callback server listens.
	CallbackPort int `toml:"callback_port"`
	// DisableScopeValidation skips the granted-scope check entirely.
	DisableScopeValidation bool `toml:"disable_scope_validation"`
}

// Load reads config.toml from configPath (or ~/.feishu-mcp/config.toml
// when empty), then applies FEISHU_* environment overrides. A missing
// file is not an error; env-only configuration is common in MCP host
// setups.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(home, ".feishu-mcp", "config.toml")
	}

	cfg := &Config{
		AuthMode:     string(domain.AuthModeTenant),
		RedirectURI:  "http://localhost:3333/callback",
		CallbackPort: 3333,
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only configuration
	default:
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.AppID, "FEISHU_APP_ID")
	setString(&cfg.AppSecret, "FEISHU_APP_SECRET")
	setString(&cfg.AuthMode, "FEISHU_AUTH_MODE")
	setString(&cfg.RedirectURI, "FEISHU_REDIRECT_URI")
	setString(&cfg.BaseURL, "FEISHU_API_BASE_URL")
	setString(&cfg.UserKey, "FEISHU_USER_KEY")
	if v, ok := os.LookupEnv("FEISHU_CALLBACK_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.CallbackPort = port
		}
	}
	if v, ok := os.LookupEnv("FEISHU_DISABLE_SCOPE_VALIDATION"); ok {
		cfg.DisableScopeValidation = v == "1" || v == "true"
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate checks the fields every deployment needs.
func (c *Config) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("%w: app_id is required", domain.ErrInvalidInput)
	}
	if c.AppSecret == "" {
		return fmt.Errorf("%w: app_secret is required", domain.ErrInvalidInput)
	}
	if !domain.AuthMode(c.AuthMode).Valid() {
		return fmt.Errorf("%w: auth_mode must be %q or %q", domain.ErrInvalidInput,
			domain.AuthModeTenant, domain.AuthModeUser)
	}
	if domain.AuthMode(c.AuthMode) == domain.AuthModeUser && c.RedirectURI == "" {
		return fmt.Errorf("%w: redirect_uri is required in user mode", domain.ErrInvalidInput)
	}
	return nil
}

// Mode returns the configured auth mode.
func (c *Config) Mode() domain.AuthMode {
	return domain.AuthMode(c.AuthMode)
}

// Identity derives the deployment's call identity from configuration.
func (c *Config) Identity() domain.Identity {
	if c.Mode() == domain.AuthModeUser {
		return domain.NewUserIdentity(c.AppID, c.UserKey)
	}
	return domain.NewTenantIdentity(c.AppID)
}
