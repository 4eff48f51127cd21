package driving

import (
	"context"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// ClassificationService manages tenant site classification.
type ClassificationService interface {
	// Enable writes the Group.Unified directory setting with the given classifications.
	Enable(ctx context.Context, settings domain.ClassificationSettings) (*domain.DirectorySetting, error)
}
