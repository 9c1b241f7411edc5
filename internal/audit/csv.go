package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVHeader is the fixed column order of every export
var CSVHeader = []string{"timestamp", "eventType", "username", "resourceId", "eventDetails", "result"}

// Entry is one exported audit row
type Entry struct {
	Timestamp    string
	EventType    EventType
	Username     string
	ResourceID   string
	EventDetails string
	Result       string
}

func (e *Entry) record() []string {
	return []string{e.Timestamp, string(e.EventType), e.Username, e.ResourceID, e.EventDetails, e.Result}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// EntryFromRow maps one query row to an Entry. Application rows and trail rows use
// different columns; whichever is present wins.
func EntryFromRow(row Row) Entry {
	e := Entry{
		Timestamp:  firstNonEmpty(row["time"], row["@timestamp"]),
		EventType:  EventType(firstNonEmpty(row["eventType"], row["eventName"], string(EventUnknown))),
		Username:   firstNonEmpty(row["username"], row["trailUser"]),
		ResourceID: firstNonEmpty(row["fileId"], row["caseId"], row["targetUserId"]),
	}

	if e.EventType.IsDataStoreOperation() && row["eventType"] == "" {
		e.EventDetails = firstNonEmpty(row["tableName"], row["eventSource"])
		e.Result = firstNonEmpty(row["errorCode"], ResultSuccess)
		return e
	}
	e.EventDetails = row["eventDetails"]
	e.Result = row["result"]
	return e
}

// EntriesFromRows maps rows in order, optionally dropping audit-access rows
func EntriesFromRows(rows []Row, excludeAuditAccess bool) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := EntryFromRow(row)
		if excludeAuditAccess && e.EventType.IsAuditAccess() {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// RenderCSV writes the header and one record per entry. The output depends only on
// entries, so rendering the same rows twice is byte-identical.
func RenderCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range entries {
		if err := w.Write(entries[i].record()); err != nil {
			return nil, fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
