// Command dia-server runs the integration manager: it loads the beamline's
// detector table, builds one pipeline per detector plus the shared aux-bus
// client and timing channel, and serves the integration manager's REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psi-dia/integration-manager/internal/api"
	"github.com/psi-dia/integration-manager/internal/client"
	"github.com/psi-dia/integration-manager/internal/config"
	"github.com/psi-dia/integration-manager/internal/logging"
	"github.com/psi-dia/integration-manager/internal/manager"
	"github.com/psi-dia/integration-manager/internal/pipeline"
	"github.com/psi-dia/integration-manager/internal/timing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Caller:    false,
		Timestamp: true,
		Output:    os.Stderr,
	})

	mgr := buildManager(cfg)

	handler := api.NewHandler(mgr)
	router := api.NewRouter(handler, promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Timeouts.ExternalProcessCommunication,
		WriteTimeout: cfg.Timeouts.ExternalProcessCommunication,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Addr()).Int("detectors", len(cfg.Detectors)).Msg("starting integration manager")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("server exited unexpectedly")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.ExternalProcessTerminate)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}

	logging.Info().Msg("stopped")
}

// buildManager wires one pipeline per configured detector plus the shared
// aux-bus client and timing channel into a Manager, grounded on
// original_source's start_server.py bringing up a backend/writer/detector
// triple per entry in available_detectors.
func buildManager(cfg *config.Config) *manager.Manager {
	httpCfg := client.HTTPConfig{
		Timeout:    cfg.Timeouts.ExternalProcessCommunication,
		RetryN:     cfg.Timeouts.ExternalProcessRetryN,
		RetryDelay: cfg.Timeouts.ExternalProcessRetryDelay,
	}
	processTimeouts := client.ProcessTimeouts{
		StartupWait: cfg.Timeouts.WriterProcessStartupWait,
		Terminate:   cfg.Timeouts.ExternalProcessTerminate,
		HTTP:        httpCfg,
	}

	pipelines := make(map[string]*pipeline.Pipeline, len(cfg.Detectors))
	for name, rec := range cfg.Detectors {
		backendAdapter := client.NewBackendAdapter(name, rec.BackendAPIURL, httpCfg)
		detectorAdapter := client.NewDetectorAdapter(name, rec.BackendAPIURL, httpCfg)
		writerAdapter := client.NewWriterAdapter(
			name,
			cfg.Writer.Executable,
			rec.BackendStreamURL,
			cfg.Bsread.BrokerURL,
			name,
			rec.NModules,
			rec.WriterPort,
			cfg.Writer.LogFolder,
			processTimeouts,
		)

		backend := client.NewEnabledClient(name, backendAdapter)
		detector := client.NewEnabledClient(name, detectorAdapter)
		writer := client.NewEnabledClient(name, writerAdapter)

		pipelines[name] = pipeline.New(name, detector, backend, writer)
	}

	bsreadAdapter := client.NewBsreadAdapter("bsread", cfg.Bsread.BrokerURL, httpCfg)
	bsread := client.NewEnabledClient("bsread", bsreadAdapter)

	timingChannel := timing.NewHTTPChannel(cfg.Timing.GatewayURL, httpCfg)

	mgrCfg := manager.Config{
		TimingPV:         cfg.Timing.PV,
		TimingStartCode:  cfg.Timing.StartCode,
		TimingStopCode:   cfg.Timing.StopCode,
		CaputTimeout:     cfg.Timing.CaputTimeout,
		StatusWaitBudget: cfg.Timeouts.StateTransitionWait,
		ResetDeadline:    cfg.Timeouts.StateTransitionWait,
	}

	return manager.New(pipelines, bsread, timingChannel, mgrCfg)
}
