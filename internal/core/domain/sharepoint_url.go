package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateSharePointURL checks that raw is an absolute https SharePoint Online URL.
func ValidateSharePointURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: required parameter url missing", ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s is not a valid URL", ErrInvalidInput, raw)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %s is not a valid SharePoint Online site URL", ErrInvalidInput, raw)
	}
	if !strings.Contains(strings.ToLower(u.Host), ".sharepoint.") {
		return fmt.Errorf("%w: %s is not a valid SharePoint Online site URL", ErrInvalidInput, raw)
	}
	return nil
}

// AdminURLFor returns the tenant admin site URL for a SharePoint site URL.
// https://contoso.sharepoint.com/sites/x becomes https://contoso-admin.sharepoint.com.
func AdminURLFor(siteURL string) (string, error) {
	if err := ValidateSharePointURL(siteURL); err != nil {
		return "", err
	}
	u, _ := url.Parse(siteURL)
	host := strings.ToLower(u.Host)
	tenant, rest, _ := strings.Cut(host, ".")
	if !strings.HasSuffix(tenant, "-admin") {
		tenant = strings.TrimSuffix(tenant, "-my") + "-admin"
	}
	return "https://" + tenant + "." + rest, nil
}

// ResourceFor returns the token audience for a SharePoint URL: its scheme and host.
func ResourceFor(siteURL string) (string, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %s is not an absolute URL", ErrInvalidInput, siteURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
