// Package manager implements the integration manager's core lifecycle: the
// single authoritative state machine that sequences every detector's
// backend/writer/detector pipeline plus the shared aux-bus writer through
// configure -> start -> stop -> reset, and derives the externally visible
// acquisition state from the raw status each sub-service reports. Grounded
// on original_source/sf_dia/manager.py's IntegrationManager.
package manager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/psi-dia/integration-manager/internal/client"
	"github.com/psi-dia/integration-manager/internal/dia"
	"github.com/psi-dia/integration-manager/internal/logging"
	"github.com/psi-dia/integration-manager/internal/metrics"
	"github.com/psi-dia/integration-manager/internal/pipeline"
	"github.com/psi-dia/integration-manager/internal/status"
	"github.com/psi-dia/integration-manager/internal/timing"
	"github.com/psi-dia/integration-manager/internal/validate"
)

// Config carries the timing-channel and polling tunables an operator sets
// per beamline. Mirrors the constructor arguments of IntegrationManager.
type Config struct {
	TimingPV        string
	TimingStartCode int
	TimingStopCode  int
	CaputTimeout    time.Duration
	// StatusWaitBudget bounds how long Start/Stop/Reset/SetAcquisitionConfig
	// wait for the derived state to reach its target before giving up.
	// Defaults to 30s: long enough for a multi-module detector's backend to
	// actually open or a writer process to spin up, short enough that an
	// operator notices a wedged sub-service within one reasonable HTTP
	// client timeout.
	StatusWaitBudget time.Duration
	// ResetDeadline bounds the parallel fan-out in Reset so one stuck
	// pipeline cannot hang the whole reset indefinitely.
	ResetDeadline time.Duration
}

// DefaultConfig returns the tunables used when a beamline config omits them.
func DefaultConfig() Config {
	return Config{
		TimingPV:         "SAR-CVME-TIFALL4-EVG0:SoftEvt-EvtCode-SP",
		TimingStartCode:  254,
		TimingStopCode:   255,
		CaputTimeout:     3 * time.Second,
		StatusWaitBudget: 30 * time.Second,
		ResetDeadline:    30 * time.Second,
	}
}

// Manager is the integration manager's core: it owns every detector
// pipeline plus the shared aux-bus client, and serializes lifecycle
// mutators (start/stop/reset/kill/configure) behind a single mutex so two
// concurrent REST calls can never interleave their sub-service commands.
// Status reads and the last-applied-config bookkeeping use their own
// narrower lock so a slow lifecycle operation never blocks a /status poll.
type Manager struct {
	mu sync.Mutex

	names     []string
	pipelines map[string]*pipeline.Pipeline
	bsread    *client.EnabledClient
	timing    timing.Channel
	cfg       Config

	cfgMu                sync.RWMutex
	lastConfig           AcquisitionConfig
	lastConfigSuccessful bool
}

// New builds a Manager over the given detector pipelines and shared
// aux-bus client. ch may be a *timing.MockChannel in tests.
func New(pipelines map[string]*pipeline.Pipeline, bsread *client.EnabledClient, ch timing.Channel, cfg Config) *Manager {
	names := make([]string, 0, len(pipelines))
	for name := range pipelines {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Manager{
		names:     names,
		pipelines: pipelines,
		bsread:    bsread,
		timing:    ch,
		cfg:       cfg,
	}
}

// StatusDetails is one poll's raw status tuple per detector plus the shared
// aux-bus status, mirroring get_status_details's returned dict.
type StatusDetails struct {
	Detectors map[string]status.RawStatus `json:"detectors"`
	Bsread    string                      `json:"bsread"`
}

// GetStatusDetails queries every enabled client's raw status string.
// Unlike the lifecycle mutators this takes no lock: it only reads from the
// sub-services themselves, so concurrent polls interleave freely.
func (m *Manager) GetStatusDetails(ctx context.Context) (StatusDetails, error) {
	details := StatusDetails{Detectors: make(map[string]status.RawStatus, len(m.names))}

	bsreadStatus, err := m.bsread.Status(ctx)
	if err != nil {
		return StatusDetails{}, dia.Wrap(dia.SubserviceUnavailable, err, "bsread: get status")
	}
	details.Bsread = bsreadStatus

	for _, name := range m.names {
		p := m.pipelines[name]

		writerStatus, err := p.Writer.Status(ctx)
		if err != nil {
			return StatusDetails{}, dia.Wrap(dia.SubserviceUnavailable, err, "%s: writer status", name)
		}
		backendStatus, err := p.Backend.Status(ctx)
		if err != nil {
			return StatusDetails{}, dia.Wrap(dia.SubserviceUnavailable, err, "%s: backend status", name)
		}
		detectorStatus, err := p.Detector.Status(ctx)
		if err != nil {
			return StatusDetails{}, dia.Wrap(dia.SubserviceUnavailable, err, "%s: detector status", name)
		}

		details.Detectors[name] = status.RawStatus{
			Writer:   writerStatus,
			Backend:  backendStatus,
			Detector: detectorStatus,
			Bsread:   bsreadStatus,
		}
	}

	return details, nil
}

// GetAcquisitionStatus derives the single externally visible
// IntegrationState. status.Interpret operates on one detector's raw tuple
// at a time (its table is defined over a single (writer,backend,detector,
// bsread) tuple); with more than one detector pipeline this manager requires
// every pipeline to independently derive the same state and reports Error
// on disagreement, since there is no documented rule for resolving N
// detectors into one acquisition state when they disagree.
func (m *Manager) GetAcquisitionStatus(ctx context.Context) (status.IntegrationState, error) {
	details, err := m.GetStatusDetails(ctx)
	if err != nil {
		return "", err
	}

	derived := m.aggregateState(details)

	m.cfgMu.RLock()
	successful := m.lastConfigSuccessful
	m.cfgMu.RUnlock()

	// There is no way of knowing if the detector is configured as the user
	// desired; last_config_successful tracks whether the last config push
	// actually reached every sub-service.
	if derived == status.Configured && !successful {
		metrics.SetAcquisitionState(string(status.Error))
		return status.Error, nil
	}

	metrics.SetAcquisitionState(string(derived))
	return derived, nil
}

// setLastConfigSuccessful flips lastConfigSuccessful under cfgMu and keeps
// the dia_last_config_successful gauge in step with it.
func (m *Manager) setLastConfigSuccessful(ok bool) {
	m.cfgMu.Lock()
	m.lastConfigSuccessful = ok
	m.cfgMu.Unlock()
	metrics.SetLastConfigSuccessful(ok)
}

func (m *Manager) aggregateState(details StatusDetails) status.IntegrationState {
	if len(details.Detectors) == 0 {
		return status.Error
	}

	var agreed status.IntegrationState
	for i, name := range m.names {
		raw := details.Detectors[name]
		derived := status.Interpret(raw)
		if i == 0 {
			agreed = derived
			continue
		}
		if derived != agreed {
			return status.Error
		}
	}
	return agreed
}

// StartAcquisition transitions CONFIGURED -> RUNNING (or one of the
// downstream states a very fast acquisition may already have reached by the
// time the wait polls it). Mirrors start_acquisition.
func (m *Manager) StartAcquisition(ctx context.Context, triggerStart bool) (status.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logging.Audit().Info().Msg("starting acquisition")

	st, err := m.GetAcquisitionStatus(ctx)
	if err != nil {
		return "", err
	}
	if st != status.Configured {
		return "", dia.New(dia.WrongState, "cannot start acquisition in %s state, configure first", st)
	}

	logging.Audit().Info().Msg("bsread.Start()")
	if err := m.bsread.Start(ctx); err != nil {
		return "", dia.Wrap(dia.SubserviceUnavailable, err, "bsread: start")
	}

	for _, name := range m.names {
		logging.Audit().Str("detector", name).Msg("pipeline.Start()")
		if err := m.pipelines[name].Start(ctx); err != nil {
			return "", dia.Wrap(dia.StartupFailed, err, "%s: start pipeline", name)
		}
	}

	if triggerStart {
		logging.CtxDebug(ctx).Str("pv", m.cfg.TimingPV).Int("code", m.cfg.TimingStartCode).Msg("pulsing start event code")
		if err := m.timing.Pulse(ctx, m.cfg.TimingPV, m.cfg.TimingStartCode, m.cfg.CaputTimeout); err != nil {
			return "", dia.Wrap(dia.SubserviceUnavailable, err, "timing: start pulse")
		}
	} else {
		logging.CtxDebug(ctx).Msg("fully prepared to collect data, external trigger expected")
	}

	return checkForTargetStatus(ctx, m.cfg.StatusWaitBudget, m.GetAcquisitionStatus,
		status.Running, status.DetectorStopped, status.BsreadStillRunning, status.Finished)
}

// StopAcquisition transitions BSREAD_STILL_RUNNING/FINISHED back down to
// INITIALIZED via an implicit Reset. Mirrors stop_acquisition.
func (m *Manager) StopAcquisition(ctx context.Context) (status.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) (status.IntegrationState, error) {
	logging.Audit().Info().Msg("stopping acquisition")

	st, err := m.GetAcquisitionStatus(ctx)
	if err != nil {
		return "", err
	}
	if st != status.BsreadStillRunning && st != status.Finished {
		return "", dia.New(dia.WrongState, "cannot stop acquisition in %s state, wait for backend to finish", st)
	}

	logging.CtxDebug(ctx).Str("pv", m.cfg.TimingPV).Int("code", m.cfg.TimingStopCode).Msg("pulsing stop event code")
	if err := m.timing.Pulse(ctx, m.cfg.TimingPV, m.cfg.TimingStopCode, m.cfg.CaputTimeout); err != nil {
		return "", dia.Wrap(dia.SubserviceUnavailable, err, "timing: stop pulse")
	}

	for _, name := range m.names {
		logging.Audit().Str("detector", name).Msg("pipeline.Stop()")
		if err := m.pipelines[name].Stop(ctx); err != nil {
			return "", dia.Wrap(dia.UngracefulStop, err, "%s: stop pipeline", name)
		}
	}

	logging.Audit().Info().Msg("bsread.Stop()")
	if err := m.bsread.Stop(ctx); err != nil {
		return "", dia.Wrap(dia.SubserviceUnavailable, err, "bsread: stop")
	}

	return m.resetLocked(ctx)
}

// Reset transitions any non-running state down to INITIALIZED, fanning the
// per-pipeline and aux-bus resets out in parallel bounded by
// cfg.ResetDeadline. Mirrors reset, translated from manager.py's raw
// threading.Thread fan-out to an errgroup with a deadline.
func (m *Manager) Reset(ctx context.Context) (status.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetLocked(ctx)
}

func (m *Manager) resetLocked(ctx context.Context) (status.IntegrationState, error) {
	logging.Audit().Info().Msg("resetting acquisition")

	st, err := m.GetAcquisitionStatus(ctx)
	if err != nil {
		return "", err
	}
	if st == status.Running || st == status.DetectorStopped {
		return "", dia.New(dia.WrongState, "cannot reset acquisition in %s state, wait for backend to finish", st)
	}

	m.setLastConfigSuccessful(false)

	logging.CtxDebug(ctx).Str("pv", m.cfg.TimingPV).Int("code", m.cfg.TimingStopCode).Msg("pulsing stop event code before reset")
	if err := m.timing.Pulse(ctx, m.cfg.TimingPV, m.cfg.TimingStopCode, m.cfg.CaputTimeout); err != nil {
		return "", dia.Wrap(dia.SubserviceUnavailable, err, "timing: stop pulse")
	}

	resetCtx, cancel := context.WithTimeout(ctx, m.cfg.ResetDeadline)
	defer cancel()

	g, gctx := errgroup.WithContext(resetCtx)
	for _, name := range m.names {
		name := name
		g.Go(func() error {
			if err := m.pipelines[name].Reset(gctx); err != nil {
				return fmt.Errorf("%s: reset pipeline: %w", name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := m.bsread.Reset(gctx); err != nil {
			return fmt.Errorf("bsread: reset: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", dia.Wrap(dia.Internal, err, "parallel reset failed")
	}

	return checkForTargetStatus(ctx, m.cfg.StatusWaitBudget, m.GetAcquisitionStatus, status.Initialized)
}

// Kill forcibly terminates every pipeline and the aux-bus writer without
// attempting a graceful stop, then resets. Mirrors kill.
func (m *Manager) Kill(ctx context.Context) (status.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.killLocked(ctx)
}

func (m *Manager) killLocked(ctx context.Context) (status.IntegrationState, error) {
	logging.Audit().Info().Msg("killing acquisition")

	for _, name := range m.names {
		if err := m.pipelines[name].Kill(ctx); err != nil {
			return "", dia.Wrap(dia.UngracefulStop, err, "%s: kill pipeline", name)
		}
	}

	logging.Audit().Info().Msg("bsread.Kill()")
	if err := m.bsread.Kill(ctx); err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("bsread kill failed, continuing to reset anyway")
	}

	return m.resetLocked(ctx)
}

// GetAcquisitionConfig returns copies of the last-applied configuration
// sections, never the live maps.
func (m *Manager) GetAcquisitionConfig() AcquisitionConfig {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return AcquisitionConfig{
		Writer:   cloneMap(m.lastConfig.Writer),
		Backend:  cloneMap(m.lastConfig.Backend),
		Detector: cloneMap(m.lastConfig.Detector),
		Bsread:   cloneMap(m.lastConfig.Bsread),
	}
}

// SetAcquisitionConfig validates and applies a new configuration. If the
// manager is already CONFIGURED it resets after validation passes and
// before applying; a configuration that fails validation is rejected
// without that reset, leaving the manager in ERROR. Mirrors
// set_acquisition_config, including the per-detector pedestal/gain/writer
// filename derivation and the /dev/null sentinel that disables it.
func (m *Manager) SetAcquisitionConfig(ctx context.Context, cfg AcquisitionConfig) (status.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setAcquisitionConfigLocked(ctx, cfg)
}

func (m *Manager) setAcquisitionConfigLocked(ctx context.Context, cfg AcquisitionConfig) (status.IntegrationState, error) {
	if cfg.Writer == nil || cfg.Backend == nil || cfg.Detector == nil || cfg.Bsread == nil {
		return "", dia.New(dia.BadRequest, "configuration must have all four sections: writer, backend, detector, bsread")
	}

	st, err := m.GetAcquisitionStatus(ctx)
	if err != nil {
		return "", err
	}

	m.setLastConfigSuccessful(false)

	if st != status.Initialized && st != status.Configured {
		return "", dia.New(dia.WrongState, "cannot set config in %s state, reset first", st)
	}

	logging.Audit().
		Interface("writer", cfg.Writer).
		Interface("backend", cfg.Backend).
		Interface("detector", cfg.Detector).
		Interface("bsread", cfg.Bsread).
		Msg("set acquisition configuration")

	// captured before validate.Writer/validate.AuxBus normalize output_file
	// in place (appending a bare ".h5"): the per-detector/aux-bus derivation
	// below must suffix the operator's original path, not the
	// already-.h5-normalized one, or a plain "/tmp/run1" would come out as
	// "/tmp/run1.h5.JF02T09V01.h5" instead of the single-suffixed
	// "/tmp/run1.JF02T09V01.h5" (invariant 4, "derivation idempotence").
	rawWriterOutputFile, _ := cfg.Writer["output_file"].(string)
	rawBsreadOutputFile, _ := cfg.Bsread["output_file"].(string)

	for _, name := range m.names {
		p := m.pipelines[name]
		if p.Writer.Enabled() {
			if err := validate.Writer(cfg.Writer); err != nil {
				return "", err
			}
		}
		if p.Backend.Enabled() {
			if err := validate.Backend(cfg.Backend); err != nil {
				return "", err
			}
		}
		if p.Detector.Enabled() {
			if err := validate.Detector(cfg.Detector); err != nil {
				return "", err
			}
		}
	}
	if m.bsread.Enabled() {
		if err := validate.AuxBus(cfg.Bsread); err != nil {
			return "", err
		}
	}
	if err := validate.CrossDependencies(cfg.Writer, cfg.Backend, cfg.Detector); err != nil {
		return "", err
	}

	if st == status.Configured {
		logging.CtxDebug(ctx).Str("status", string(st)).Msg("resetting before applying config")
		if _, err := m.resetLocked(ctx); err != nil {
			return "", dia.Wrap(dia.Internal, err, "reset before reconfiguring")
		}
	}

	for _, name := range m.names {
		p := m.pipelines[name]

		backendCfg := cloneMap(cfg.Backend)
		if v, ok := cfg.Backend["pede_corrections_filename"]; ok {
			backendCfg["pede_corrections_filename"] = fmt.Sprintf("%v.%s.res.h5", v, name)
		}
		if v, ok := cfg.Backend["gain_corrections_filename"]; ok {
			backendCfg["gain_corrections_filename"] = fmt.Sprintf("%v/%s/gains.h5", v, name)
		}
		logging.Audit().Str("detector", name).Msg("backend.SetConfig(backend_config)")
		if err := p.Backend.SetConfig(ctx, backendCfg); err != nil {
			return "", dia.Wrap(dia.SubserviceUnavailable, err, "%s: set backend config", name)
		}

		writerCfg := cloneMap(cfg.Writer)
		if rawWriterOutputFile != "" && rawWriterOutputFile != validate.DevNullSentinel {
			writerCfg["output_file"] = rawWriterOutputFile + "." + name + ".h5"
		}
		logging.Audit().Str("detector", name).Msg("writer.SetParameters(writer_config)")
		if err := p.Writer.SetParameters(ctx, writerCfg); err != nil {
			return "", dia.Wrap(dia.SubserviceUnavailable, err, "%s: set writer parameters", name)
		}

		logging.Audit().Str("detector", name).Msg("detector.SetConfig(detector_config)")
		if err := p.Detector.SetConfig(ctx, cfg.Detector); err != nil {
			return "", dia.Wrap(dia.SubserviceUnavailable, err, "%s: set detector config", name)
		}
	}

	bsreadCfg := cloneMap(cfg.Bsread)
	if rawBsreadOutputFile != "" && rawBsreadOutputFile != validate.DevNullSentinel {
		bsreadCfg["output_file"] = rawBsreadOutputFile + ".BSREAD.h5"
	}
	logging.Audit().Msg("bsread.SetParameters(bsread_config)")
	if err := m.bsread.SetParameters(ctx, bsreadCfg); err != nil {
		return "", dia.Wrap(dia.SubserviceUnavailable, err, "bsread: set parameters")
	}

	m.cfgMu.Lock()
	m.lastConfig = AcquisitionConfig{
		Writer:   cloneMap(cfg.Writer),
		Backend:  cloneMap(cfg.Backend),
		Detector: cloneMap(cfg.Detector),
		Bsread:   cloneMap(cfg.Bsread),
	}
	m.lastConfigSuccessful = true
	m.cfgMu.Unlock()
	metrics.SetLastConfigSuccessful(true)

	return checkForTargetStatus(ctx, m.cfg.StatusWaitBudget, m.GetAcquisitionStatus, status.Configured)
}

// UpdateAcquisitionConfig overlays config onto the last-applied
// configuration and re-applies it through SetAcquisitionConfig, which
// always resets first if already CONFIGURED. The overlay is partial
// per-section: a present section replaces that section's keys one at a
// time, an absent section is left untouched, matching
// update_config_section's dict.update semantics exactly rather than
// replacing whole sections.
func (m *Manager) UpdateAcquisitionConfig(ctx context.Context, updates AcquisitionConfig) (status.IntegrationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.GetAcquisitionConfig()
	merged := AcquisitionConfig{
		Writer:   mergeSection(current.Writer, updates.Writer),
		Backend:  mergeSection(current.Backend, updates.Backend),
		Detector: mergeSection(current.Detector, updates.Detector),
		Bsread:   mergeSection(current.Bsread, updates.Bsread),
	}

	return m.setAcquisitionConfigLocked(ctx, merged)
}

func mergeSection(base, updates map[string]any) map[string]any {
	out := cloneMap(base)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// SetClientsEnabled flips the per-kind enable switches named in enabled;
// a nil field leaves that switch untouched. Mirrors set_clients_enabled.
func (m *Manager) SetClientsEnabled(enabled ClientsEnabled) {
	for _, name := range m.names {
		p := m.pipelines[name]
		if enabled.Backend != nil {
			p.Backend.SetEnabled(*enabled.Backend)
			logging.Ctx(context.Background()).Info().Str("detector", name).Bool("enabled", *enabled.Backend).Msg("backend client enable set")
		}
		if enabled.Writer != nil {
			p.Writer.SetEnabled(*enabled.Writer)
			logging.Ctx(context.Background()).Info().Str("detector", name).Bool("enabled", *enabled.Writer).Msg("writer client enable set")
		}
		if enabled.Detector != nil {
			p.Detector.SetEnabled(*enabled.Detector)
			logging.Ctx(context.Background()).Info().Str("detector", name).Bool("enabled", *enabled.Detector).Msg("detector client enable set")
		}
	}
	if enabled.Bsread != nil {
		m.bsread.SetEnabled(*enabled.Bsread)
		logging.Ctx(context.Background()).Info().Bool("enabled", *enabled.Bsread).Msg("bsread client enable set")
	}
}

// GetClientsEnabled reports every client's current enable switch.
func (m *Manager) GetClientsEnabled() (detectors map[string]DetectorClientsEnabled, bsread bool) {
	detectors = make(map[string]DetectorClientsEnabled, len(m.names))
	for _, name := range m.names {
		p := m.pipelines[name]
		detectors[name] = DetectorClientsEnabled{
			Backend:  p.Backend.Enabled(),
			Writer:   p.Writer.Enabled(),
			Detector: p.Detector.Enabled(),
		}
	}
	return detectors, m.bsread.Enabled()
}

// ServerInfo is the read-only deployment summary returned by
// GetServerInfo, mirroring get_server_info.
type ServerInfo struct {
	ClientsEnabled       map[string]DetectorClientsEnabled `json:"clients_enabled"`
	BsreadEnabled        bool                              `json:"bsread_enabled"`
	LastConfigSuccessful bool                              `json:"last_config_successful"`
}

// GetServerInfo reports the manager's deployment-level state.
func (m *Manager) GetServerInfo() ServerInfo {
	detectors, bsreadEnabled := m.GetClientsEnabled()

	m.cfgMu.RLock()
	successful := m.lastConfigSuccessful
	m.cfgMu.RUnlock()

	return ServerInfo{
		ClientsEnabled:       detectors,
		BsreadEnabled:        bsreadEnabled,
		LastConfigSuccessful: successful,
	}
}

// DetectorMetrics is one detector pipeline's statistics, mirroring
// get_metrics's per-detector {"writer", "backend", "detector"} object.
type DetectorMetrics struct {
	Writer   map[string]any `json:"writer"`
	Backend  map[string]any `json:"backend"`
	Detector map[string]any `json:"detector"`
}

// Metrics is the full get_metrics response.
type Metrics struct {
	Detectors map[string]DetectorMetrics `json:"detectors"`
	Bsread    map[string]any             `json:"bsread"`
}

// GetMetrics gathers every client's reported statistics.
func (m *Manager) GetMetrics(ctx context.Context) (Metrics, error) {
	result := Metrics{Detectors: make(map[string]DetectorMetrics, len(m.names))}

	for _, name := range m.names {
		p := m.pipelines[name]

		writerStats, err := p.Writer.Statistics(ctx)
		if err != nil {
			return Metrics{}, dia.Wrap(dia.SubserviceUnavailable, err, "%s: writer statistics", name)
		}
		backendStats, err := p.Backend.Statistics(ctx)
		if err != nil {
			return Metrics{}, dia.Wrap(dia.SubserviceUnavailable, err, "%s: backend statistics", name)
		}
		detectorStats, err := p.Detector.Statistics(ctx)
		if err != nil {
			return Metrics{}, dia.Wrap(dia.SubserviceUnavailable, err, "%s: detector statistics", name)
		}

		result.Detectors[name] = DetectorMetrics{Writer: writerStats, Backend: backendStats, Detector: detectorStats}
	}

	bsreadStats, err := m.bsread.Statistics(ctx)
	if err != nil {
		return Metrics{}, dia.Wrap(dia.SubserviceUnavailable, err, "bsread: statistics")
	}
	result.Bsread = bsreadStats

	return result, nil
}
