package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/psi-dia/integration-manager/internal/dia"
	"github.com/psi-dia/integration-manager/internal/logging"
)

// startupParameterKeys are stripped from the parameters body posted to the
// child process after startup: they are consumed as positional argv
// arguments instead. Mirrors BsreadWriterClient.PROCESS_STARTUP_PARAMETERS
// in original_source/sf_dia/client/bsread_writer.py.
var startupParameterKeys = map[string]struct{}{
	"output_file": {},
	"user_id":     {},
}

// ProcessTimeouts bounds the choreography around a child process: how long
// to wait after spawn before talking to it, how long to wait for it to
// report stopped/gone, and the HTTP budget used for every control call.
type ProcessTimeouts struct {
	StartupWait time.Duration
	Terminate   time.Duration
	HTTP        HTTPConfig
}

// ArgvBuilder turns the parameters handed to SetParameters into the
// executable's positional command-line arguments, in the order the target
// executable expects them. Different sub-services (writer vs aux-bus) take
// a different argv shape, so this is supplied by the concrete adapter.
type ArgvBuilder func(streamURL string, port int, params map[string]any) ([]string, error)

// ExternalProcessAdapter manages a child process plus the HTTP control
// port it exposes once running. Grounded on BsreadWriterClient's
// start/stop/is_running/reset choreography: spawn, wait for the process to
// come up, push parameters with a retry budget, and kill-and-reap on any
// failure to avoid leaking orphaned writers.
type ExternalProcessAdapter struct {
	name        string
	executable  string
	streamURL   string
	port        int
	logFolder   string
	argv        ArgvBuilder
	timeouts    ProcessTimeouts
	http        *HTTPAdapter

	mu         sync.Mutex
	cmd        *exec.Cmd
	exited     chan struct{}
	logFile    *os.File
	parameters map[string]any
}

// NewExternalProcessAdapter builds an adapter that spawns executable and
// talks to it over baseURL once it is up.
func NewExternalProcessAdapter(name, executable, streamURL string, port int, logFolder string, argv ArgvBuilder, baseURL string, timeouts ProcessTimeouts) *ExternalProcessAdapter {
	return &ExternalProcessAdapter{
		name:       name,
		executable: executable,
		streamURL:  streamURL,
		port:       port,
		logFolder:  logFolder,
		argv:       argv,
		timeouts:   timeouts,
		http:       NewHTTPAdapter(name, baseURL, timeouts.HTTP),
	}
}

// SetParameters stores the parameters the next Start will launch with.
// Mirrors set_parameters in bsread_writer.py: the process is not touched
// until Start.
func (p *ExternalProcessAdapter) SetParameters(ctx context.Context, params map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parameters = params
	return nil
}

// isRunning mirrors Popen.poll() is None: the child has been spawned and
// the reaper goroutine started by Start has not yet observed its exit.
// Must be called with p.mu held.
func (p *ExternalProcessAdapter) isRunning() bool {
	if p.cmd == nil || p.exited == nil {
		return false
	}
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// Start spawns the child process, waits StartupWait, then pushes the
// sanitised parameters over HTTP with a retry budget. On failure it kills
// and reaps the process before returning dia.StartupFailed, exactly the
// original's "terminate because it did not respond in time" path.
func (p *ExternalProcessAdapter) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning() {
		return dia.New(dia.WrongState, "%s: process already running", p.name)
	}
	if p.parameters == nil {
		return dia.New(dia.BadRequest, "%s: parameters not set", p.name)
	}

	argv, err := p.argv(p.streamURL, p.port, p.parameters)
	if err != nil {
		return dia.Wrap(dia.BadRequest, err, "%s: build argv", p.name)
	}

	logFile, err := p.openLogFile()
	if err != nil {
		return dia.Wrap(dia.Internal, err, "%s: open log file", p.name)
	}

	cmd := exec.Command(p.executable, argv...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return dia.Wrap(dia.StartupFailed, err, "%s: spawn process", p.name)
	}

	p.cmd = cmd
	p.logFile = logFile
	p.exited = make(chan struct{})
	go func(cmd *exec.Cmd, exited chan struct{}) {
		cmd.Wait()
		close(exited)
	}(cmd, p.exited)

	logging.CtxInfo(ctx).Str("adapter", p.name).Str("executable", p.executable).Msg("sub-process spawned")

	select {
	case <-time.After(p.timeouts.StartupWait):
	case <-ctx.Done():
		p.killAndReapLocked(ctx)
		return dia.Wrap(dia.StartupFailed, ctx.Err(), "%s: cancelled during startup wait", p.name)
	}

	sanitized := sanitizeParameters(p.parameters)
	if _, err := p.http.postJSON(ctx, "/parameters", sanitized); err != nil {
		logging.CtxError(ctx).Err(err).Str("adapter", p.name).Msg("sub-process did not accept parameters in time, killing")
		p.killAndReapLocked(ctx)
		return dia.Wrap(dia.StartupFailed, err, "%s: process did not respond in time", p.name)
	}

	return nil
}

// Stop asks the process to stop over HTTP, waits Terminate for it to exit,
// and kills-and-reaps it if it does not, reporting dia.UngracefulStop —
// the original's "acquisition file maybe corrupted" path.
func (p *ExternalProcessAdapter) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning() {
		p.closeLogFileLocked()
		return nil
	}

	if _, err := p.http.get(ctx, "/stop"); err != nil {
		logging.CtxWarn(ctx).Err(err).Str("adapter", p.name).Msg("stop request failed, will wait for exit anyway")
	}

	if !p.waitLocked(p.timeouts.Terminate) {
		logging.CtxError(ctx).Str("adapter", p.name).Msg("process did not stop in time, killing")
		p.killAndReapLocked(ctx)
		return dia.New(dia.UngracefulStop, "%s: process did not stop in time, forcibly terminated", p.name)
	}

	p.closeLogFileLocked()
	return nil
}

// Reset stops the process and clears its stored parameters, mirroring
// BsreadWriterClient.reset: stop() then writer_parameters = None.
func (p *ExternalProcessAdapter) Reset(ctx context.Context) error {
	if err := p.Stop(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.parameters = nil
	p.mu.Unlock()
	return nil
}

// Kill forcibly terminates the process without attempting a graceful stop.
func (p *ExternalProcessAdapter) Kill(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killAndReapLocked(ctx)
	return nil
}

// Status reports "stopped" when no process is running, otherwise the
// status the process itself reports over HTTP.
func (p *ExternalProcessAdapter) Status(ctx context.Context) (string, error) {
	p.mu.Lock()
	running := p.isRunning()
	p.mu.Unlock()

	if !running {
		return "stopped", nil
	}

	body, err := p.http.get(ctx, "/status")
	if err != nil {
		return "", err
	}
	return extractStatus(body)
}

// Statistics returns an empty map when the process is not running, per
// BsreadWriterClient.get_statistics.
func (p *ExternalProcessAdapter) Statistics(ctx context.Context) (map[string]any, error) {
	p.mu.Lock()
	running := p.isRunning()
	p.mu.Unlock()

	if !running {
		return map[string]any{}, nil
	}

	body, err := p.http.get(ctx, "/statistics")
	if err != nil {
		return nil, err
	}
	return extractMap(body, "statistics")
}

// waitLocked blocks until the reaper goroutine observes the process exit
// or timeout elapses. Must be called with p.mu held.
func (p *ExternalProcessAdapter) waitLocked(timeout time.Duration) bool {
	if p.exited == nil {
		return true
	}
	select {
	case <-p.exited:
		return true
	case <-time.After(timeout):
		return false
	}
}

// killAndReapLocked forcibly terminates the process, if any, and blocks
// until the reaper goroutine has observed its exit so the process is never
// left a zombie. Must be called with p.mu held.
func (p *ExternalProcessAdapter) killAndReapLocked(ctx context.Context) {
	if p.cmd != nil && p.cmd.Process != nil && p.isRunning() {
		if _, err := p.http.get(ctx, "/kill"); err != nil {
			logging.CtxDebug(ctx).Err(err).Str("adapter", p.name).Msg("best-effort /kill call failed")
		}
		_ = p.cmd.Process.Kill()
		<-p.exited
	}
	p.cmd = nil
	p.exited = nil
	p.closeLogFileLocked()
}

func (p *ExternalProcessAdapter) closeLogFileLocked() {
	if p.logFile != nil {
		p.logFile.Close()
		p.logFile = nil
	}
}

func (p *ExternalProcessAdapter) openLogFile() (*os.File, error) {
	if p.logFolder == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0644)
	}
	name := fmt.Sprintf("%s-%s.log", p.name, time.Now().UTC().Format("20060102-150405"))
	return os.Create(filepath.Join(p.logFolder, name))
}

func sanitizeParameters(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if _, skip := startupParameterKeys[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}
