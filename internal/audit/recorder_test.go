package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureShipper struct {
	events []*Event
	err    error
	closed bool
}

func (c *captureShipper) Ship(_ context.Context, e *Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *captureShipper) Close() error {
	c.closed = true
	return nil
}

func TestRecorder_FillsDefaults(t *testing.T) {
	ship := &captureShipper{}
	r := NewRecorder(ship, true)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	if err := r.Record(context.Background(), &Event{EventType: EventCreateCase}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(ship.events) != 1 {
		t.Fatalf("shipped %d events", len(ship.events))
	}
	e := ship.events[0]
	if !e.Time.Equal(fixed) || e.Result != ResultSuccess {
		t.Errorf("event = %+v", e)
	}
}

func TestRecorder_SkipsReadsWhenDisabled(t *testing.T) {
	ship := &captureShipper{}
	r := NewRecorder(ship, false)
	ctx := context.Background()

	_ = r.Record(ctx, &Event{EventType: EventGetCaseDetails})
	_ = r.Record(ctx, &Event{EventType: EventGetCaseAudit})
	_ = r.Record(ctx, &Event{EventType: EventUpdateCaseDetails})

	if len(ship.events) != 2 {
		t.Fatalf("shipped %d events, want 2", len(ship.events))
	}
	if ship.events[0].EventType != EventGetCaseAudit || ship.events[1].EventType != EventUpdateCaseDetails {
		t.Errorf("shipped %v, %v", ship.events[0].EventType, ship.events[1].EventType)
	}
}

func TestRecorder_ShipFailure(t *testing.T) {
	root := errors.New("disk full")
	r := NewRecorder(&captureShipper{err: root}, true)
	if err := r.Record(context.Background(), &Event{EventType: EventCreateCase}); !errors.Is(err, root) {
		t.Errorf("Record = %v, want shipper error", err)
	}
}

func TestRecorder_Close(t *testing.T) {
	ship := &captureShipper{}
	if err := NewRecorder(ship, true).Close(); err != nil || !ship.closed {
		t.Errorf("Close = %v, closed = %v", err, ship.closed)
	}
}
