// Package api provides the integration manager's REST surface: one handler
// per endpoint, all rendering through the same envelope.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/psi-dia/integration-manager/internal/dia"
	"github.com/psi-dia/integration-manager/internal/logging"
)

// envelope is the error wire shape: {"state": "error", "reason", "message"}.
type envelope struct {
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteOK renders a successful response. When data is a map[string]any its
// keys are merged as siblings of "state" (matching the flat
// {"state": "ok", "status": ...} shape of the sub-service wire protocol);
// otherwise it is nested under "data".
func WriteOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	out := map[string]any{"state": "ok"}
	if m, ok := data.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	} else if data != nil {
		out["data"] = data
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// WriteError renders err as {"state": "error", "reason", "message"},
// mapping its dia.Kind to an HTTP status: BadRequest/InvalidConfig/WrongState
// map to 4xx, everything else to 5xx.
func WriteError(w http.ResponseWriter, err error) {
	kind := dia.KindOf(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusFor(kind))

	resp := envelope{State: "error", Reason: kind.String(), Message: err.Error()}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logging.Error().Err(encErr).Msg("failed to encode error response")
	}
}

func statusFor(kind dia.Kind) int {
	switch kind {
	case dia.BadRequest:
		return http.StatusBadRequest
	case dia.InvalidConfig:
		return http.StatusUnprocessableEntity
	case dia.WrongState:
		return http.StatusConflict
	case dia.SubserviceUnavailable:
		return http.StatusBadGateway
	case dia.StateTransitionTimeout:
		return http.StatusGatewayTimeout
	case dia.StartupFailed, dia.UngracefulStop:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
