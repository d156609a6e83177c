// Package pipeline sequences one detector's three clients (detector,
// backend, writer) through the ordering invariants of an acquisition
// lifecycle. Grounded on original_source/sf_dia/client/detector_pipeline.py.
package pipeline

import (
	"context"

	"github.com/psi-dia/integration-manager/internal/client"
)

// Pipeline owns one detector's three EnabledClient-wrapped adapters and
// drives them through the ordering invariants of §4.3: backend must open
// before the writer/detector start; on stop it closes after the detector
// has stopped and before the writer stops.
type Pipeline struct {
	Name     string
	Detector *client.EnabledClient
	Backend  *client.EnabledClient
	Writer   *client.EnabledClient
}

// New builds a Pipeline for one detector's three clients.
func New(name string, detector, backend, writer *client.EnabledClient) *Pipeline {
	return &Pipeline{Name: name, Detector: detector, Backend: backend, Writer: writer}
}

// Start opens the backend, starts the writer, then the detector. Mirrors
// DetectorPipeline.start exactly.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.Backend.Open(ctx); err != nil {
		return err
	}
	if err := p.Writer.Start(ctx); err != nil {
		return err
	}
	return p.Detector.Start(ctx)
}

// Stop halts the detector, closes the backend, then stops the writer.
// Mirrors DetectorPipeline.stop exactly — note the backend closes before
// the writer stops, since the writer is still draining the backend's
// stream at that point.
func (p *Pipeline) Stop(ctx context.Context) error {
	if err := p.Detector.Stop(ctx); err != nil {
		return err
	}
	if err := p.Backend.Close(ctx); err != nil {
		return err
	}
	return p.Writer.Stop(ctx)
}

// Reset sequences detector.Stop -> backend.Reset -> writer.Reset. Mirrors
// DetectorPipeline.reset; unlike the manager-level reset, a single
// pipeline's own reset is sequential, not fanned out.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.Detector.Stop(ctx); err != nil {
		return err
	}
	if err := p.Backend.Reset(ctx); err != nil {
		return err
	}
	return p.Writer.Reset(ctx)
}

// Kill stops the detector, resets the backend, and kills the writer.
// Mirrors DetectorPipeline.kill exactly, including its asymmetry with
// Reset (the writer is killed, not reset, since kill is the last resort
// when the writer itself is suspected wedged).
func (p *Pipeline) Kill(ctx context.Context) error {
	if err := p.Detector.Stop(ctx); err != nil {
		return err
	}
	if err := p.Backend.Reset(ctx); err != nil {
		return err
	}
	return p.Writer.Kill(ctx)
}

// Clients returns the three wrapped clients in detector, backend, writer
// order, mirroring DetectorPipeline.return_clients for callers (the
// manager's pass-through admin operations) that need direct access.
func (p *Pipeline) Clients() (detector, backend, writer *client.EnabledClient) {
	return p.Detector, p.Backend, p.Writer
}
