// Package status interprets the raw status strings reported by a
// detector's three clients plus the shared aux-bus writer into a single
// IntegrationState, exactly reproducing the first-match-wins table of
// original_source/sf_dia/validation.py's interpret_status.
package status

import "github.com/psi-dia/integration-manager/internal/client"

// IntegrationState is the acquisition lifecycle's derived state, a pure
// function of the four raw sub-service statuses (plus last_config_successful,
// applied one layer up in internal/manager).
type IntegrationState string

const (
	Initialized        IntegrationState = "initialized"
	Configured         IntegrationState = "configured"
	Running            IntegrationState = "running"
	DetectorStopped    IntegrationState = "detector_stopped"
	BsreadStillRunning IntegrationState = "bsread_still_running"
	Finished           IntegrationState = "finished"
	Error              IntegrationState = "error"
)

// RawStatus is one detector's observed status tuple plus the shared
// aux-bus status, as reported by Status() on each of its EnabledClients.
type RawStatus struct {
	Writer   string `json:"writer"`
	Backend  string `json:"backend"`
	Detector string `json:"detector"`
	Bsread   string `json:"bsread"`
}

// matches reports whether status equals one of expected, or status is the
// DISABLED sentinel (a disabled client matches any expected value in every
// column, per interpret_status's cmp helper).
func matches(status string, expected ...string) bool {
	if status == client.StatusDisabled {
		return true
	}
	for _, e := range expected {
		if status == e {
			return true
		}
	}
	return false
}

// row is one first-match-wins candidate: a state plus the expected values
// for writer/detector/backend/bsread that must all match.
type row struct {
	state    IntegrationState
	writer   []string
	detector []string
	backend  []string
	bsread   []string
}

var table = []row{
	{Initialized, []string{"stopped"}, []string{"idle"}, []string{"INITIALIZED"}, []string{"stopped"}},
	{Configured, []string{"stopped"}, []string{"idle"}, []string{"CONFIGURED"}, []string{"stopped"}},
	{Running, []string{"receiving", "writing"}, []string{"running", "waiting"}, []string{"OPEN"}, []string{"writing", "waiting"}},
	{DetectorStopped, []string{"receiving", "writing"}, []string{"idle"}, []string{"OPEN"}, []string{"writing", "waiting", "stopped"}},
	{BsreadStillRunning, []string{"finished", "stopped"}, []string{"idle"}, []string{"OPEN"}, []string{"writing", "waiting"}},
	{Finished, []string{"finished", "stopped"}, []string{"idle"}, []string{"OPEN"}, []string{"stopped"}},
}

// Interpret derives the IntegrationState for a single detector's raw
// status tuple. Defaults to Error if no row matches.
func Interpret(s RawStatus) IntegrationState {
	for _, r := range table {
		if matches(s.Writer, r.writer...) &&
			matches(s.Detector, r.detector...) &&
			matches(s.Backend, r.backend...) &&
			matches(s.Bsread, r.bsread...) {
			return r.state
		}
	}
	return Error
}
