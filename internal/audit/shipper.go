package audit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/digital-evidence-archive/dea-backend/internal/config"
	"github.com/digital-evidence-archive/dea-backend/internal/telemetry"
)

// Shipper defines the interface for audit log shipping
type Shipper interface {
	// Ship writes an event to the destination
	Ship(ctx context.Context, e *Event) error
	// Close cleans up any resources
	Close() error
}

// NewShipper builds the shipper named by cfg.Shipper. logs is only used by the
// cloudwatch shipper and may be nil otherwise.
func NewShipper(cfg *config.AuditConfig, logs LogsAPI, stdout io.Writer) (Shipper, error) {
	switch cfg.Shipper {
	case "", "stdout":
		return NewWriterShipper(stdout), nil
	case "cloudwatch":
		if logs == nil {
			return nil, errors.New("cloudwatch shipper requires a logs client")
		}
		return NewCloudWatchShipper(logs, cfg.LogGroupName, cfg.LogStreamName), nil
	default:
		return nil, fmt.Errorf("unknown shipper type: %s", cfg.Shipper)
	}
}

func (e *Event) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("eventType", string(e.EventType)),
		slog.String("result", e.Result),
	}
	add := func(key, value string) {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	add("username", e.Username)
	add("userUlid", e.UserULID)
	add("caseId", e.CaseID)
	add("fileId", e.FileID)
	add("targetUserId", e.TargetUserID)
	add("eventDetails", e.EventDetails)
	add("requestId", e.RequestID)
	add("requestPath", e.RequestPath)
	add("sourceIp", e.SourceIP)
	if e.HTTPStatus != 0 {
		attrs = append(attrs, slog.Int("httpStatus", e.HTTPStatus))
	}
	return attrs
}

// writeEvent renders e through h as one JSON line stamped with the event's own time
func writeEvent(ctx context.Context, h slog.Handler, e *Event) error {
	rec := slog.NewRecord(e.Time, slog.LevelInfo, "audit", 0)
	rec.AddAttrs(e.attrs()...)
	return h.Handle(ctx, rec)
}

// WriterShipper writes events as JSON lines. On Lambda, stdout is the function's
// log group, so this is the production shipper there.
type WriterShipper struct {
	handler slog.Handler
	mu      sync.Mutex
}

// NewWriterShipper creates a shipper writing to w
func NewWriterShipper(w io.Writer) *WriterShipper {
	return &WriterShipper{handler: telemetry.NewAuditLogger(w).Handler()}
}

// Ship writes one line
func (s *WriterShipper) Ship(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeEvent(ctx, s.handler, e); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Close is a no-op; the writer is owned by the caller
func (s *WriterShipper) Close() error { return nil }

// CloudWatchShipper puts each event straight into the audit log group. Used when the
// API runs as a long-lived server whose stdout is not the audit log group.
type CloudWatchShipper struct {
	client LogsAPI
	group  string
	stream string

	mu            sync.Mutex
	streamCreated bool
}

// NewCloudWatchShipper creates a shipper writing to group/stream
func NewCloudWatchShipper(client LogsAPI, group, stream string) *CloudWatchShipper {
	return &CloudWatchShipper{client: client, group: group, stream: stream}
}

func (s *CloudWatchShipper) ensureStream(ctx context.Context) error {
	if s.streamCreated {
		return nil
	}
	_, err := s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
	})
	var exists *cwtypes.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return fmt.Errorf("failed to create audit log stream: %w", err)
	}
	s.streamCreated = true
	return nil
}

// Ship renders the event and puts it as a single log event
func (s *CloudWatchShipper) Ship(ctx context.Context, e *Event) error {
	var buf bytes.Buffer
	if err := writeEvent(ctx, telemetry.NewAuditLogger(&buf).Handler(), e); err != nil {
		return fmt.Errorf("failed to render audit event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureStream(ctx); err != nil {
		return err
	}
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
		LogEvents: []cwtypes.InputLogEvent{{
			Message:   aws.String(strings.TrimRight(buf.String(), "\n")),
			Timestamp: aws.Int64(ts.UnixMilli()),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to put audit event: %w", err)
	}
	return nil
}

// Close is a no-op; the client is shared
func (s *CloudWatchShipper) Close() error { return nil }
