package manager

import (
	"context"

	"github.com/psi-dia/integration-manager/internal/dia"
)

// BackendAction names one of the allow-listed backend admin operations the
// REST surface can trigger directly on every detector's backend client,
// bypassing the acquisition lifecycle entirely. Mirrors
// backend_client_action's action string, but as a closed set: the original
// selects a method by __getattribute__(action), an unconstrained dynamic
// dispatch onto a REST client. This is modeled as an explicit allow-list
// instead so an operator-supplied action string can never reach an
// unintended method.
type BackendAction string

const (
	BackendActionOpen      BackendAction = "open"
	BackendActionClose     BackendAction = "close"
	BackendActionReset     BackendAction = "reset"
	BackendActionGetConfig BackendAction = "get_config"
)

// BackendStatus reports every detector's backend status, mirroring
// backend_client_get_status.
func (m *Manager) BackendStatus(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.names))
	for _, name := range m.names {
		st, err := m.pipelines[name].Backend.Status(ctx)
		if err != nil {
			return nil, dia.Wrap(dia.SubserviceUnavailable, err, "%s: backend status", name)
		}
		out[name] = st
	}
	return out, nil
}

// BackendAction runs action against every detector's backend client and
// collects the per-detector result: a status string for open/close/reset,
// the detector's config object for get_config. Unknown actions are
// rejected before any client is touched. Mirrors backend_client_action.
func (m *Manager) BackendAction(ctx context.Context, action BackendAction) (map[string]any, error) {
	switch action {
	case BackendActionOpen, BackendActionClose, BackendActionReset, BackendActionGetConfig:
	default:
		return nil, dia.New(dia.BadRequest, "unknown backend action %q", action)
	}

	out := make(map[string]any, len(m.names))
	for _, name := range m.names {
		backend := m.pipelines[name].Backend
		var err error
		var result any = "ok"

		switch action {
		case BackendActionOpen:
			err = backend.Open(ctx)
		case BackendActionClose:
			err = backend.Close(ctx)
		case BackendActionReset:
			err = backend.Reset(ctx)
		case BackendActionGetConfig:
			result, err = m.backendConfig(ctx, name)
		}

		if err != nil {
			return nil, dia.Wrap(dia.SubserviceUnavailable, err, "%s: backend action %s", name, action)
		}
		out[name] = result
	}
	return out, nil
}

func (m *Manager) backendConfig(ctx context.Context, name string) (map[string]any, error) {
	type configer interface {
		Config(context.Context) (map[string]any, error)
	}
	backend := m.pipelines[name].Backend.Adapter()
	c, ok := backend.(configer)
	if !ok {
		return nil, dia.New(dia.Internal, "%s: backend adapter does not report config", name)
	}
	return c.Config(ctx)
}

// BackendGetConfig returns the last-applied backend config, keyed by
// detector name, straight from the manager's own bookkeeping rather than a
// live call to each backend — mirrors backend_client_get_config reading
// the cached _last_set_backend_config rather than re-querying the backend.
func (m *Manager) BackendGetConfig() map[string]map[string]any {
	m.cfgMu.RLock()
	cfg := cloneMap(m.lastConfig.Backend)
	m.cfgMu.RUnlock()

	out := make(map[string]map[string]any, len(m.names))
	for _, name := range m.names {
		out[name] = cloneMap(cfg)
	}
	return out
}

// BackendSetConfig pushes cfg to every detector's backend client directly,
// bypassing the acquisition lifecycle's per-detector filename derivation.
// Mirrors backend_client_set_config.
func (m *Manager) BackendSetConfig(ctx context.Context, cfg map[string]any) error {
	for _, name := range m.names {
		if err := m.pipelines[name].Backend.SetConfig(ctx, cfg); err != nil {
			return dia.Wrap(dia.SubserviceUnavailable, err, "%s: set backend config", name)
		}
	}
	return nil
}

// DetectorSetValue pushes a named value to every detector's control
// client, mirroring detector_client_set_value.
func (m *Manager) DetectorSetValue(ctx context.Context, name string, value any) error {
	for _, detector := range m.names {
		if err := m.pipelines[detector].Detector.SetValue(ctx, name, value); err != nil {
			return dia.Wrap(dia.SubserviceUnavailable, err, "%s: set value %s", detector, name)
		}
	}
	return nil
}

// DetectorGetValue reads a named value from every detector's control
// client, mirroring detector_client_get_value.
func (m *Manager) DetectorGetValue(ctx context.Context, name string) (map[string]any, error) {
	out := make(map[string]any, len(m.names))
	for _, detector := range m.names {
		value, err := m.pipelines[detector].Detector.GetValue(ctx, name)
		if err != nil {
			return nil, dia.Wrap(dia.SubserviceUnavailable, err, "%s: get value %s", detector, name)
		}
		out[detector] = value
	}
	return out, nil
}
