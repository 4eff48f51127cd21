// Package file implements a TOML file configuration store.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	defaultDir  = ".o365"
	defaultFile = "config.toml"
)

// envOverrides maps environment variables to the setting they replace.
var envOverrides = []struct {
	name  string
	apply func(cfg *domain.Config, v string) error
}{
	{"O365_AUTH_METHOD", func(c *domain.Config, v string) error { c.Auth.Method = domain.AuthMethod(v); return nil }},
	{"O365_TENANT_ID", func(c *domain.Config, v string) error { c.Auth.TenantID = v; return nil }},
	{"O365_CLIENT_ID", func(c *domain.Config, v string) error { c.Auth.ClientID = v; return nil }},
	{"O365_CLIENT_SECRET", func(c *domain.Config, v string) error { c.Auth.ClientSecret = v; return nil }},
	{"O365_REFRESH_TOKEN", func(c *domain.Config, v string) error { c.Auth.RefreshToken = v; return nil }},
	{"O365_ACCESS_TOKEN", func(c *domain.Config, v string) error { c.Auth.AccessToken = v; return nil }},
	{"O365_SPO_ADMIN_URL", func(c *domain.Config, v string) error { c.SPO.AdminURL = v; return nil }},
	{"O365_GRAPH_BASE_URL", func(c *domain.Config, v string) error { c.Graph.BaseURL = v; return nil }},
	{"O365_HTTP_TIMEOUT_SECONDS", func(c *domain.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.HTTP.TimeoutSeconds = n
		return nil
	}},
}

// ConfigStore loads configuration from a TOML file and the environment.
type ConfigStore struct {
	path   string
	getenv func(string) string
}

// NewConfigStore creates a store reading path.
// An empty path uses ~/.o365/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, defaultDir, defaultFile)
	}
	return &ConfigStore{path: path, getenv: os.Getenv}, nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load returns the default configuration overlaid with the file, if present,
// and then with O365_* environment variables.
func (s *ConfigStore) Load() (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("config: %s not found, using defaults", s.path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", s.path, err)
		}
	}

	for _, o := range envOverrides {
		v := s.getenv(o.name)
		if v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, o.name, err)
		}
	}

	return cfg, nil
}
