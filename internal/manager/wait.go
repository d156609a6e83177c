package manager

import (
	"context"
	"time"

	"github.com/psi-dia/integration-manager/internal/dia"
	"github.com/psi-dia/integration-manager/internal/status"
)

// waitBackoffCeiling bounds the doubling backoff between polls so a stuck
// sub-service does not stretch the poll interval out past a useful
// granularity long before the overall budget in cfg.StatusWaitBudget expires.
const waitBackoffCeiling = 2 * time.Second

// waitPollFloor is the delay after the first poll that misses the target;
// it then doubles up to waitBackoffCeiling. The first poll itself runs
// immediately, without a delay.
const waitPollFloor = 100 * time.Millisecond

// checkForTargetStatus polls getStatus until it reports one of targets, the
// context is cancelled, or budget elapses, whichever comes first. Grounded
// on detector_integration_api.utils.check_for_target_status, translated
// from a fixed-count retry loop to a budgeted, doubling-backoff poll since
// the Go side has an explicit deadline to honor rather than a global
// retry-count constant.
func checkForTargetStatus(ctx context.Context, budget time.Duration, getStatus func(context.Context) (status.IntegrationState, error), targets ...status.IntegrationState) (status.IntegrationState, error) {
	deadline := time.Now().Add(budget)
	delay := waitPollFloor

	for {
		current, err := getStatus(ctx)
		if err != nil {
			return "", err
		}
		for _, t := range targets {
			if current == t {
				return current, nil
			}
		}

		if time.Now().Add(delay).After(deadline) {
			return current, dia.New(dia.StateTransitionTimeout, "timed out waiting for state in %v, last observed %q", targets, current)
		}

		select {
		case <-ctx.Done():
			return current, dia.Wrap(dia.StateTransitionTimeout, ctx.Err(), "cancelled waiting for state in %v", targets)
		case <-time.After(delay):
		}

		delay *= 2
		if delay > waitBackoffCeiling {
			delay = waitBackoffCeiling
		}
	}
}
