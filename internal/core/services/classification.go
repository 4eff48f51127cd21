package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure ClassificationService implements the interface.
var _ driving.ClassificationService = (*ClassificationService)(nil)

// Classification errors.
var (
	// ErrTemplateNotFound indicates the tenant has no Group.Unified setting template.
	ErrTemplateNotFound = errors.New("missing directory setting template for Group.Unified")
	// ErrClassificationEnabled indicates a Group.Unified setting already exists.
	ErrClassificationEnabled = errors.New("site classification is already enabled")
)

// ClassificationService enables site classification for the tenant.
type ClassificationService struct {
	settings driven.DirectorySettingsClient
}

// NewClassificationService creates the service.
func NewClassificationService(settings driven.DirectorySettingsClient) *ClassificationService {
	return &ClassificationService{settings: settings}
}

// Enable creates the Group.Unified directory setting from its template
// defaults with the given classification values.
func (s *ClassificationService) Enable(ctx context.Context, in domain.ClassificationSettings) (*domain.DirectorySetting, error) {
	classifications, err := validateClassification(in)
	if err != nil {
		return nil, err
	}

	templates, err := s.settings.ListSettingTemplates(ctx)
	if err != nil {
		return nil, err
	}
	tpl := findUnifiedTemplate(templates)
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	existing, err := s.settings.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range existing {
		if matchesTemplate(st.TemplateID, tpl.ID) {
			return nil, ErrClassificationEnabled
		}
	}

	setting := domain.DirectorySetting{TemplateID: tpl.ID}
	for _, v := range tpl.Values {
		setting.Set(v.Name, v.DefaultValue)
	}
	setting.Set(domain.SettingClassificationList, strings.Join(classifications, ","))
	setting.Set(domain.SettingDefaultClassification, in.DefaultClassification)
	setting.Set(domain.SettingUsageGuidelinesURL, in.UsageGuidelinesURL)

	logger.Debug("services: creating %s setting from template %s", domain.UnifiedGroupTemplateName, tpl.ID)
	return s.settings.CreateSetting(ctx, setting)
}

func validateClassification(in domain.ClassificationSettings) ([]string, error) {
	var classifications []string
	for _, c := range strings.Split(in.Classifications, ",") {
		if c = strings.TrimSpace(c); c != "" {
			classifications = append(classifications, c)
		}
	}
	if len(classifications) == 0 {
		return nil, fmt.Errorf("%w: required option classifications missing", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.DefaultClassification) == "" {
		return nil, fmt.Errorf("%w: required option defaultClassification missing", domain.ErrInvalidInput)
	}
	if !slices.Contains(classifications, in.DefaultClassification) {
		logger.Warn("default classification %q is not in the classification list", in.DefaultClassification)
	}

	if in.UsageGuidelinesURL != "" {
		u, err := url.Parse(in.UsageGuidelinesURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: %s is not a valid usage guidelines URL", domain.ErrInvalidInput, in.UsageGuidelinesURL)
		}
	}
	return classifications, nil
}

// findUnifiedTemplate matches by template id, falling back to display name.
func findUnifiedTemplate(templates []domain.SettingTemplate) *domain.SettingTemplate {
	for i := range templates {
		if matchesTemplate(templates[i].ID, domain.UnifiedGroupTemplateID) {
			return &templates[i]
		}
	}
	for i := range templates {
		if templates[i].DisplayName == domain.UnifiedGroupTemplateName {
			return &templates[i]
		}
	}
	return nil
}

// matchesTemplate compares template ids as UUIDs, ignoring case and braces.
func matchesTemplate(a, b string) bool {
	ua, err := uuid.Parse(a)
	if err != nil {
		return false
	}
	ub, err := uuid.Parse(b)
	if err != nil {
		return false
	}
	return ua == ub
}
