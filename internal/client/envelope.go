package client

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/psi-dia/integration-manager/internal/dia"
)

// extractStatus pulls the "status" field out of a {"status": "..."} or
// {"state": "ok", "status": "..."} response body.
func extractStatus(body []byte) (string, error) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", dia.Wrap(dia.Internal, err, "decode status response")
	}
	if payload.Status == "" {
		return "", fmt.Errorf("response has no status field")
	}
	return payload.Status, nil
}

// extractValue pulls the scalar "value" field out of a detector
// get-value response body.
func extractValue(body []byte) (any, error) {
	var payload struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, dia.Wrap(dia.Internal, err, "decode value response")
	}
	return payload.Value, nil
}

// extractMap pulls a named object field (e.g. "statistics") out of a
// response body into a map[string]any.
func extractMap(body []byte, field string) (map[string]any, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, dia.Wrap(dia.Internal, err, "decode %s response", field)
	}
	raw, ok := payload[field]
	if !ok {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dia.Wrap(dia.Internal, err, "decode %s field", field)
	}
	return out, nil
}
