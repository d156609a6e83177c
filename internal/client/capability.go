// Package client implements the sub-service adapter contract: a small set
// of capability interfaces the manager depends on, generic HTTP and
// external-process transports, and the EnabledClient wrapper that lets any
// adapter be turned on/off without the manager knowing it happened.
package client

import "context"

// Controllable is the lifecycle every adapter kind supports, whether it
// talks to an always-on HTTP service or spawns its own child process.
type Controllable interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Kill(ctx context.Context) error
}

// Queryable is the read-only half of the contract. Status and Statistics
// are called far more often than the mutators above and must never block
// on the same things they report on.
type Queryable interface {
	Status(ctx context.Context) (string, error)
	Statistics(ctx context.Context) (map[string]any, error)
}

// Adapter is the minimum any sub-service client must implement to be
// wrapped by EnabledClient and driven by a Pipeline.
type Adapter interface {
	Controllable
	Queryable
}

// Parameterizable is implemented by adapters whose configuration is an
// opaque bag of keys handed to the process verbatim at start time (the
// writer and aux-bus clients).
type Parameterizable interface {
	SetParameters(ctx context.Context, params map[string]any) error
}

// Configurable is implemented by adapters with a structured, named
// configuration surface instead (the backend and detector clients).
type Configurable interface {
	SetConfig(ctx context.Context, cfg map[string]any) error
}

// Openable is implemented by the backend adapter only: opening/closing a
// beamline backend connection is a distinct concept from starting/stopping
// an acquisition.
type Openable interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// ValueAccessor is implemented by the detector adapter only: individual
// named values (thresholds, gains, ...) read and written outside of the
// acquisition lifecycle.
type ValueAccessor interface {
	SetValue(ctx context.Context, name string, value any) error
	GetValue(ctx context.Context, name string) (any, error)
}

// StatusDisabled is the status string and sentinel state reported by a
// disabled EnabledClient, in place of asking the wrapped adapter anything.
const StatusDisabled = "DISABLED"
