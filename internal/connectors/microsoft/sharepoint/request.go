package sharepoint

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// CSOM request constants.
const (
	SchemaVersion   = "15.0.0.0"
	LibraryVersion  = "16.0.0.0"
	ApplicationName = "o365-cli"

	clientQueryNamespace = "http://schemas.microsoft.com/sharepoint/clientquery/2009"
	// tenantTypeID is the CSOM type id of Microsoft.Online.SharePoint.TenantAdministration.Tenant.
	tenantTypeID = "{268004ae-ef6b-4e9b-8425-127220d84719}"
)

const requestOpen = `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="` + SchemaVersion +
	`" LibraryVersion="` + LibraryVersion + `" ApplicationName="` + ApplicationName +
	`" xmlns="` + clientQueryNamespace + `">`

const operationProperties = `<Query SelectAllProperties="false"><Properties>` +
	`<Property Name="IsComplete" ScalarProperty="true" />` +
	`<Property Name="PollingInterval" ScalarProperty="true" />` +
	`</Properties></Query>`

// RemovalQuery returns the ProcessQuery body that invokes kind on the tenant for siteURL.
// The response ends with the SpoOperation tracking the removal.
func RemovalQuery(kind domain.OperationKind, siteURL string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidInput, kind)
	}

	var b strings.Builder
	b.WriteString(requestOpen)
	b.WriteString(`<Actions>`)
	b.WriteString(`<ObjectPath Id="55" ObjectPathId="54" />`)
	b.WriteString(`<ObjectPath Id="57" ObjectPathId="56" />`)
	b.WriteString(`<Query Id="58" ObjectPathId="54"><Query SelectAllProperties="true"><Properties /></Query></Query>`)
	b.WriteString(`<Query Id="59" ObjectPathId="56">` + operationProperties + `</Query>`)
	b.WriteString(`</Actions><ObjectPaths>`)
	b.WriteString(`<Constructor Id="54" TypeId="` + tenantTypeID + `" />`)
	b.WriteString(`<Method Id="56" ParentId="54" Name="` + string(kind) + `"><Parameters>`)
	b.WriteString(`<Parameter Type="String">` + EscapeXML(siteURL) + `</Parameter>`)
	b.WriteString(`</Parameters></Method></ObjectPaths></Request>`)
	return b.String(), nil
}

// StatusQuery returns the ProcessQuery body that reads the completion state of
// the operation addressed by objectIdentity.
func StatusQuery(objectIdentity string) string {
	var b strings.Builder
	b.WriteString(requestOpen)
	b.WriteString(`<Actions><Query Id="188" ObjectPathId="184">` + operationProperties + `</Query></Actions>`)
	b.WriteString(`<ObjectPaths><Identity Id="184" Name="` + EscapeIdentity(objectIdentity) + `" /></ObjectPaths>`)
	b.WriteString(`</Request>`)
	return b.String()
}

// EscapeXML escapes s for use in XML text or a double-quoted attribute.
// Quotes, ampersands, angle brackets and \t \n \r become character references.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// EscapeIdentity escapes an object identity for the Name attribute of an
// Identity object path. Operation identities separate their parts with
// newlines; a literal two-character `\n` is treated as an encoded newline.
func EscapeIdentity(identity string) string {
	return EscapeXML(strings.ReplaceAll(identity, `\n`, "\n"))
}

// NewProcessQueryRequest builds the POST to a ProcessQuery endpoint.
func NewProcessQueryRequest(
	ctx context.Context,
	endpoint, body string,
	digest domain.Digest,
	accessToken string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-RequestDigest", digest.Value)
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(microsoft.HeaderClientRequestID, uuid.New().String())

	return req, nil
}
