package driven

import "github.com/custodia-labs/o365-cli/internal/core/domain"

// ConfigStore loads CLI configuration.
type ConfigStore interface {
	Load() (*domain.Config, error)
	Path() string
}
