package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/psi-dia/integration-manager/internal/dia"
	"github.com/psi-dia/integration-manager/internal/manager"
)

// Handler wraps a Manager with the integration manager's REST handlers.
// Every method has the same shape: decode (if any body), call the manager,
// render through WriteOK/WriteError.
type Handler struct {
	mgr *manager.Manager
}

// NewHandler builds a Handler over mgr.
func NewHandler(mgr *manager.Manager) *Handler {
	return &Handler{mgr: mgr}
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dia.Wrap(dia.BadRequest, errors.Join(ErrInvalidRequestBody, err), "decode request body")
	}
	return nil
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.mgr.GetAcquisitionStatus(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// StatusDetails handles GET /status_details.
func (h *Handler) StatusDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.mgr.GetStatusDetails(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status_details": details})
}

// Statistics handles GET /statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	m, err := h.mgr.GetMetrics(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"statistics": m})
}

// GetConfig handles GET /config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	WriteOK(w, map[string]any{"config": h.mgr.GetAcquisitionConfig()})
}

// SetConfig handles POST /config (set, whole).
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg manager.AcquisitionConfig
	if err := decodeJSON(r, &cfg); err != nil {
		WriteError(w, err)
		return
	}

	st, err := h.mgr.SetAcquisitionConfig(r.Context(), cfg)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// UpdateConfig handles PUT /config (update, partial).
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var updates manager.AcquisitionConfig
	if err := decodeJSON(r, &updates); err != nil {
		WriteError(w, err)
		return
	}

	st, err := h.mgr.UpdateAcquisitionConfig(r.Context(), updates)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// startBody is the optional POST /start payload.
type startBody struct {
	TriggerStart *bool `json:"trigger_start"`
}

// Start handles POST /start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var body startBody
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	triggerStart := true
	if body.TriggerStart != nil {
		triggerStart = *body.TriggerStart
	}

	st, err := h.mgr.StartAcquisition(r.Context(), triggerStart)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// Stop handles POST /stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	st, err := h.mgr.StopAcquisition(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// Reset handles POST /reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	st, err := h.mgr.Reset(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// Kill handles POST /kill.
func (h *Handler) Kill(w http.ResponseWriter, r *http.Request) {
	st, err := h.mgr.Kill(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": string(st)})
}

// clientsEnabledBody is the POST /clients_enabled payload: any subset of the
// four switches, nil fields left untouched (mirrors set_clients_enabled).
type clientsEnabledBody struct {
	Backend  *bool `json:"backend"`
	Writer   *bool `json:"writer"`
	Detector *bool `json:"detector"`
	Bsread   *bool `json:"bsread"`
}

// GetClientsEnabled handles GET /clients_enabled.
func (h *Handler) GetClientsEnabled(w http.ResponseWriter, r *http.Request) {
	detectors, bsread := h.mgr.GetClientsEnabled()
	WriteOK(w, map[string]any{"detectors": detectors, "bsread": bsread})
}

// SetClientsEnabled handles POST /clients_enabled.
func (h *Handler) SetClientsEnabled(w http.ResponseWriter, r *http.Request) {
	var body clientsEnabledBody
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	h.mgr.SetClientsEnabled(manager.ClientsEnabled{
		Backend:  body.Backend,
		Writer:   body.Writer,
		Detector: body.Detector,
		Bsread:   body.Bsread,
	})

	detectors, bsread := h.mgr.GetClientsEnabled()
	WriteOK(w, map[string]any{"detectors": detectors, "bsread": bsread})
}

// ServerInfo handles GET /server_info.
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	WriteOK(w, map[string]any{"server_info": h.mgr.GetServerInfo()})
}

// BackendStatus handles GET /backend/status.
func (h *Handler) BackendStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.mgr.BackendStatus(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"status": st})
}

// BackendGetConfig handles GET /backend/config.
func (h *Handler) BackendGetConfig(w http.ResponseWriter, r *http.Request) {
	WriteOK(w, map[string]any{"config": h.mgr.BackendGetConfig()})
}

// BackendSetConfig handles POST /backend/config.
func (h *Handler) BackendSetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg map[string]any
	if err := decodeJSON(r, &cfg); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.mgr.BackendSetConfig(r.Context(), cfg); err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, nil)
}

// BackendAction handles POST /backend/action/{name}, name being the
// allow-listed action (open/close/reset/get_config).
func (h *Handler) BackendAction(w http.ResponseWriter, r *http.Request) {
	action := manager.BackendAction(chi.URLParam(r, "name"))

	result, err := h.mgr.BackendAction(r.Context(), action)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"result": result})
}

// detectorValueBody is the POST /detector/value/{name} payload.
type detectorValueBody struct {
	Value any `json:"value"`
}

// DetectorGetValue handles GET /detector/value/{name}.
func (h *Handler) DetectorGetValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	values, err := h.mgr.DetectorGetValue(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, map[string]any{"value": values})
}

// DetectorSetValue handles POST /detector/value/{name}.
func (h *Handler) DetectorSetValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body detectorValueBody
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.mgr.DetectorSetValue(r.Context(), name, body.Value); err != nil {
		WriteError(w, err)
		return
	}
	WriteOK(w, nil)
}
