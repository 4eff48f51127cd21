package sharepoint

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// responseHeader is the first element of every CSOM response.
type responseHeader struct {
	SchemaVersion      string     `json:"SchemaVersion"`
	LibraryVersion     string     `json:"LibraryVersion"`
	ErrorInfo          *errorInfo `json:"ErrorInfo"`
	TraceCorrelationID string     `json:"TraceCorrelationId"`
}

type errorInfo struct {
	ErrorMessage       string `json:"ErrorMessage"`
	ErrorCode          int    `json:"ErrorCode"`
	ErrorTypeName      string `json:"ErrorTypeName"`
	TraceCorrelationID string `json:"TraceCorrelationId"`
}

// spoOperation is the trailing SpoOperation record.
type spoOperation struct {
	ObjectType      string `json:"_ObjectType_"`
	ObjectIdentity  string `json:"_ObjectIdentity_"`
	IsComplete      *bool  `json:"IsComplete"`
	PollingInterval int64  `json:"PollingInterval"`
}

// Interpret decodes a ProcessQuery response into the operation it reports.
//
// A non-null ErrorInfo in the first element yields *domain.RemoteOperationError
// with the server message, whatever follows it. Anything that is not a JSON
// array ending in an operation object yields *domain.ProtocolError.
func Interpret(body []byte) (domain.Operation, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "decode response", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return domain.Operation{}, &domain.ProtocolError{Reason: "response is not a JSON array"}
	}
	if !dec.More() {
		return domain.Operation{}, &domain.ProtocolError{Reason: "empty response array"}
	}

	var first json.RawMessage
	if err := dec.Decode(&first); err != nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "decode response header", Err: err}
	}
	if !isObject(first) {
		return domain.Operation{}, &domain.ProtocolError{Reason: "first element is not an object"}
	}
	var header responseHeader
	if err := json.Unmarshal(first, &header); err != nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "decode response header", Err: err}
	}
	if header.ErrorInfo != nil {
		return domain.Operation{}, remoteError(header)
	}

	var last json.RawMessage
	for dec.More() {
		last = nil
		if err := dec.Decode(&last); err != nil {
			return domain.Operation{}, &domain.ProtocolError{Reason: "decode response", Err: err}
		}
	}
	if _, err := dec.Token(); err != nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "decode response", Err: err}
	}
	if last == nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "response carries no operation"}
	}
	if !isObject(last) {
		return domain.Operation{}, &domain.ProtocolError{Reason: "last element is not an object"}
	}

	var op spoOperation
	if err := json.Unmarshal(last, &op); err != nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "decode operation", Err: err}
	}
	if op.IsComplete == nil {
		return domain.Operation{}, &domain.ProtocolError{Reason: "operation has no IsComplete property"}
	}

	interval := time.Duration(op.PollingInterval) * time.Millisecond
	if interval < 0 {
		interval = 0
	}

	return domain.Operation{
		IsComplete:      *op.IsComplete,
		PollingInterval: interval,
		ObjectIdentity:  op.ObjectIdentity,
	}, nil
}

func remoteError(h responseHeader) *domain.RemoteOperationError {
	correlationID := h.ErrorInfo.TraceCorrelationID
	if correlationID == "" {
		correlationID = h.TraceCorrelationID
	}
	return &domain.RemoteOperationError{
		Message:       h.ErrorInfo.ErrorMessage,
		Code:          h.ErrorInfo.ErrorCode,
		TypeName:      h.ErrorInfo.ErrorTypeName,
		CorrelationID: correlationID,
	}
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
