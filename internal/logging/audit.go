package logging

import "github.com/rs/zerolog"

// Audit returns the named sub-logger that records the intent of every
// lifecycle mutator before it runs, regardless of outcome. Kept separate
// from Info/Warn/Error so the audit trail can be filtered or routed to its
// own sink without touching the rest of the log stream.
func Audit() zerolog.Logger {
	return WithComponent("audit_trail")
}
