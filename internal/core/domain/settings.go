package domain

// UnifiedGroupTemplateID is the id of the Group.Unified directory setting template.
const UnifiedGroupTemplateID = "62375ab9-6b52-47ed-826b-58e47e0e304b"

// UnifiedGroupTemplateName is the display name of the Group.Unified template.
const UnifiedGroupTemplateName = "Group.Unified"

// Names of the setting values written when enabling site classification.
const (
	SettingClassificationList    = "ClassificationList"
	SettingDefaultClassification = "DefaultClassification"
	SettingUsageGuidelinesURL    = "UsageGuidelinesUrl"
)

// SettingValue is a single name/value pair of a directory setting.
type SettingValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SettingTemplateValue describes a value declared by a setting template.
type SettingTemplateValue struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	DefaultValue string `json:"defaultValue"`
	Description  string `json:"description,omitempty"`
}

// SettingTemplate is a directory setting template.
type SettingTemplate struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description,omitempty"`
	Values      []SettingTemplateValue `json:"values"`
}

// DirectorySetting is a tenant-wide setting instantiated from a template.
type DirectorySetting struct {
	ID          string         `json:"id,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	TemplateID  string         `json:"templateId"`
	Values      []SettingValue `json:"values"`
}

// Value returns the value named name and whether it exists.
func (s *DirectorySetting) Value(name string) (string, bool) {
	for _, v := range s.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Set updates the value named name, appending it when missing.
func (s *DirectorySetting) Set(name, value string) {
	for i := range s.Values {
		if s.Values[i].Name == name {
			s.Values[i].Value = value
			return
		}
	}
	s.Values = append(s.Values, SettingValue{Name: name, Value: value})
}

// ClassificationSettings are the inputs of the site classification command.
type ClassificationSettings struct {
	// Classifications is a comma-separated list of labels.
	Classifications       string
	DefaultClassification string
	UsageGuidelinesURL    string
}
