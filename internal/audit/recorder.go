package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/telemetry"
)

// Recorder stamps and ships audit events
type Recorder struct {
	shipper  Shipper
	logReads bool
	now      func() time.Time
}

// NewRecorder creates a Recorder. With logReads false, GET_* events other than audit
// downloads are skipped.
func NewRecorder(shipper Shipper, logReads bool) *Recorder {
	return &Recorder{shipper: shipper, logReads: logReads, now: time.Now}
}

// Record ships e. A shipping failure is logged and returned but never alters e.
func (r *Recorder) Record(ctx context.Context, e *Event) error {
	if !r.logReads && e.IsReadOperation() && !e.EventType.IsAuditAccess() {
		return nil
	}
	if e.Time.IsZero() {
		e.Time = r.now().UTC()
	}
	if e.Result == "" {
		e.Result = ResultSuccess
	}

	if err := r.shipper.Ship(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to ship audit event",
			"event_type", string(e.EventType), "error", err)
		return err
	}
	telemetry.AuditEventsRecordedTotal.WithLabelValues(string(e.EventType), e.Result).Inc()
	return nil
}

// Close closes the underlying shipper
func (r *Recorder) Close() error {
	return r.shipper.Close()
}
