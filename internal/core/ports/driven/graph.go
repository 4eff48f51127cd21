package driven

import (
	"context"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// DirectorySettingsClient reads setting templates and writes directory settings.
type DirectorySettingsClient interface {
	ListSettingTemplates(ctx context.Context) ([]domain.SettingTemplate, error)
	ListSettings(ctx context.Context) ([]domain.DirectorySetting, error)
	CreateSetting(ctx context.Context, setting domain.DirectorySetting) (*domain.DirectorySetting, error)
}
