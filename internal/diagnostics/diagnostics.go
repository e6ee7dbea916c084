// Package diagnostics implements the non-blocking reporting channel used to
// surface corruption and other recoverable anomalies the engine notices
// in the background - an index file that cannot be read, decrypted or
// parsed, an index update that failed after a record save, a filesystem
// event seen by the integrity watcher - without
// blocking the caller that triggered the discovery and without silently
// discarding the information, per the Open Question resolution in
// DESIGN.md: corruption is surfaced via this channel rather than failing
// the foreground operation that stumbled onto it.
package diagnostics

// Severity classifies a Diagnostic for a consuming dashboard or log sink.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one reported anomaly.
type Diagnostic struct {
	Severity Severity
	Source   string // component that noticed the anomaly, e.g. "searchindex", "store", "watch"
	ID       string // record or index key involved, if any
	Message  string
	Cause    error
}

// Reporter is a bounded, non-blocking sink for diagnostics. A full channel
// drops the newest diagnostic rather than blocking the reporting goroutine;
// HasDropped reports whether any have been lost so callers can detect a
// noisy period after the fact.
type Reporter struct {
	ch      chan Diagnostic
	dropped chan struct{}
}

// NewReporter creates a Reporter with the given channel capacity. A capacity
// of 0 or less still allows Report to be called safely; the channel is then
// unbuffered, so a diagnostic is delivered only if a receiver is already
// waiting on C and is dropped otherwise.
func NewReporter(capacity int) *Reporter {
	if capacity < 0 {
		capacity = 0
	}
	return &Reporter{
		ch:      make(chan Diagnostic, capacity),
		dropped: make(chan struct{}, 1),
	}
}

// Report attempts to enqueue d without blocking. If the channel is full, d
// is dropped and the next HasDropped call reports true.
func (r *Reporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	select {
	case r.ch <- d:
	default:
		select {
		case r.dropped <- struct{}{}:
		default:
		}
	}
}

// C returns the channel diagnostics are delivered on. Callers own draining
// it; an unread channel eventually causes Report to start dropping.
func (r *Reporter) C() <-chan Diagnostic {
	if r == nil {
		return nil
	}
	return r.ch
}

// HasDropped reports whether at least one diagnostic has been dropped since
// the Reporter was created or since the last call to HasDropped.
func (r *Reporter) HasDropped() bool {
	if r == nil {
		return false
	}
	select {
	case <-r.dropped:
		return true
	default:
		return false
	}
}

// Close closes the underlying channel. No further Report calls may follow.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	close(r.ch)
}
