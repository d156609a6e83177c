// Package config loads the integration manager's configuration: the server
// bind address, the static detector table, the timing-channel settings, and
// the per-kind communication timeouts/retry budgets. Loaded once at server
// start from a detector configuration file plus environment overrides.
package config

import (
	"fmt"
	"time"
)

// DetectorRecord is the static configuration of one detector, keyed by name
// in Config.Detectors. Mirrors the original_source `available_detectors`
// map (sf_config_alvra.py / sf_config_bernina.py). The detector's own
// control client shares BackendAPIURL: available_detectors never configures
// a separate detector endpoint, the backend process fronts both.
type DetectorRecord struct {
	DetectorID       int    `koanf:"detector_id"`
	BackendAPIURL    string `koanf:"backend_api_url"`
	BackendStreamURL string `koanf:"backend_stream_url"`
	WriterPort       int    `koanf:"writer_port"`
	NModules         int    `koanf:"n_modules"`
	NBadModules      int    `koanf:"n_bad_modules"`
}

// TimingConfig describes the external timing system's process-variable
// channel.
type TimingConfig struct {
	PV           string        `koanf:"pv"`
	StartCode    int           `koanf:"start_code"`
	StopCode     int           `koanf:"stop_code"`
	CaputTimeout time.Duration `koanf:"caput_timeout"`
	// GatewayURL is the Channel-Access gateway's REST bridge, reached by
	// internal/timing.HTTPChannel instead of linking CGo EPICS bindings.
	GatewayURL string `koanf:"gateway_url"`
}

// ServerConfig is the REST surface's bind address.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// TimeoutsConfig holds the communication, retry, and state-transition
// tunables used throughout the manager and its sub-service adapters.
type TimeoutsConfig struct {
	ExternalProcessCommunication time.Duration `koanf:"external_process_communication"`
	ExternalProcessRetryN        int           `koanf:"external_process_retry_n"`
	ExternalProcessRetryDelay    time.Duration `koanf:"external_process_retry_delay"`
	ExternalProcessTerminate     time.Duration `koanf:"external_process_terminate"`
	WriterProcessStartupWait     time.Duration `koanf:"writer_process_startup_wait"`
	StateTransitionWait          time.Duration `koanf:"state_transition_wait"`
}

// BsreadConfig is the shared auxiliary-bus broker's REST endpoint: unlike
// the per-detector writer, this process runs independently of the
// integration manager, so only its URL is needed.
type BsreadConfig struct {
	BrokerURL string `koanf:"broker_url"`
}

// WriterConfig holds the settings shared by every per-detector writer
// process: the executable to spawn and the log directory. Every writer
// writes its log file directly into LogFolder, named
// "<detector>-<timestamp>.log"; no per-detector subdirectory is created.
type WriterConfig struct {
	Executable string `koanf:"executable"`
	LogFolder  string `koanf:"log_folder"`
}

// Config is the root of the integration manager's configuration tree.
type Config struct {
	Server    ServerConfig              `koanf:"server"`
	Timing    TimingConfig              `koanf:"timing"`
	Timeouts  TimeoutsConfig            `koanf:"timeouts"`
	Bsread    BsreadConfig              `koanf:"bsread"`
	Writer    WriterConfig              `koanf:"writer"`
	Detectors map[string]DetectorRecord `koanf:"detectors"`
	LogLevel  string                    `koanf:"log_level"`
	LogFormat string                    `koanf:"log_format"`
}

// Default returns the built-in defaults, overridden by config file then
// environment variables in Load.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 10003,
		},
		Timing: TimingConfig{
			PV:           "SAR-CVME-TIFALL4-EVG0:SoftEvt-EvtCode-SP",
			StartCode:    254,
			StopCode:     255,
			CaputTimeout: 3 * time.Second,
			GatewayURL:   "http://localhost:10004",
		},
		Timeouts: TimeoutsConfig{
			ExternalProcessCommunication: 5 * time.Second,
			ExternalProcessRetryN:        5,
			ExternalProcessRetryDelay:    1 * time.Second,
			ExternalProcessTerminate:     5 * time.Second,
			WriterProcessStartupWait:     2 * time.Second,
			StateTransitionWait:          30 * time.Second,
		},
		Bsread: BsreadConfig{
			BrokerURL: "http://localhost:10002",
		},
		Writer: WriterConfig{
			Executable: "/home/writer/start_writer.sh",
			LogFolder:  "/var/log/h5_zmq_writer",
		},
		Detectors: map[string]DetectorRecord{},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Validate checks invariants Load cannot express through koanf tags alone:
// detector name uniqueness is structural (map keys), but port collisions and
// missing URLs are not.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Timing.PV == "" {
		return fmt.Errorf("timing.pv must not be empty")
	}
	if c.Timing.GatewayURL == "" {
		return fmt.Errorf("timing.gateway_url must not be empty")
	}
	if c.Bsread.BrokerURL == "" {
		return fmt.Errorf("bsread.broker_url must not be empty")
	}
	if c.Writer.Executable == "" {
		return fmt.Errorf("writer.executable must not be empty")
	}
	seenPorts := map[int]string{}
	for name, rec := range c.Detectors {
		if rec.BackendAPIURL == "" {
			return fmt.Errorf("detector %q: backend_api_url must not be empty", name)
		}
		if rec.BackendStreamURL == "" {
			return fmt.Errorf("detector %q: backend_stream_url must not be empty", name)
		}
		if rec.WriterPort <= 0 {
			return fmt.Errorf("detector %q: writer_port must be positive", name)
		}
		if other, exists := seenPorts[rec.WriterPort]; exists {
			return fmt.Errorf("detector %q: writer_port %d already used by detector %q", name, rec.WriterPort, other)
		}
		seenPorts[rec.WriterPort] = name
	}
	return nil
}

// Addr returns the host:port the REST server should bind to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
