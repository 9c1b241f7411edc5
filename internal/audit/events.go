// Package audit implements the archive's audit trail: recording what users do, and
// answering "what happened to this case, file, user or the whole system" by running
// CloudWatch Logs Insights queries over the recorded events and the CloudTrail data
// plane events, then exporting the rows as CSV.
//
// An audit is a two-step exchange. StartAudit issues an asynchronous Insights query and
// stores an AuditJob; the client then polls GetResults with the job id until the query
// reaches a terminal status. A single poll never waits, because a Lambda invocation has
// a hard time limit and large queries can take minutes.
package audit

import (
	"strings"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// EventType names an action recorded in the audit log, or a data-store operation
// recorded in the trail log
type EventType string

// Archive actions
const (
	EventCreateCase             EventType = "CREATE_CASE"
	EventGetCaseDetails         EventType = "GET_CASE_DETAILS"
	EventUpdateCaseDetails      EventType = "UPDATE_CASE_DETAILS"
	EventGetUsersFromCase       EventType = "GET_USERS_FROM_CASE"
	EventGetMyCases             EventType = "GET_MY_CASES"
	EventInviteUserToCase       EventType = "INVITE_USER_TO_CASE"
	EventRemoveUserFromCase     EventType = "REMOVE_USER_FROM_CASE"
	EventInitiateCaseFileUpload EventType = "INITIATE_CASE_FILE_UPLOAD"
	EventCompleteCaseFileUpload EventType = "COMPLETE_CASE_FILE_UPLOAD"
	EventDownloadCaseFile       EventType = "DOWNLOAD_CASE_FILE"
	EventGetCaseFileDetail      EventType = "GET_CASE_FILE_DETAIL"
	EventRequestCaseAudit       EventType = "REQUEST_CASE_AUDIT"
	EventGetCaseAudit           EventType = "GET_CASE_AUDIT"
	EventRequestCaseFileAudit   EventType = "REQUEST_CASE_FILE_AUDIT"
	EventGetCaseFileAudit       EventType = "GET_CASE_FILE_AUDIT"
	EventRequestUserAudit       EventType = "REQUEST_USER_AUDIT"
	EventGetUserAudit           EventType = "GET_USER_AUDIT"
	EventRequestSystemAudit     EventType = "REQUEST_SYSTEM_AUDIT"
	EventGetSystemAudit         EventType = "GET_SYSTEM_AUDIT"
	EventGetAuthToken           EventType = "GET_AUTH_TOKEN"
	EventGetLoginURL            EventType = "GET_LOGIN_URL"
	EventUnknown                EventType = "UNKNOWN"
)

// Data-store operations as they appear in the trail log's eventName
const (
	EventDataGetItem            EventType = "GetItem"
	EventDataPutItem            EventType = "PutItem"
	EventDataUpdateItem         EventType = "UpdateItem"
	EventDataDeleteItem         EventType = "DeleteItem"
	EventDataQuery              EventType = "Query"
	EventDataTransactWriteItems EventType = "TransactWriteItems"
	EventDataTransactGetItems   EventType = "TransactGetItems"
	EventDataBatchGetItem       EventType = "BatchGetItem"
	EventDataBatchWriteItem     EventType = "BatchWriteItem"
)

// IsDataStoreOperation reports whether e came from the trail log rather than the application
func (e EventType) IsDataStoreOperation() bool {
	switch e {
	case EventDataGetItem, EventDataPutItem, EventDataUpdateItem, EventDataDeleteItem,
		EventDataQuery, EventDataTransactWriteItems, EventDataTransactGetItems,
		EventDataBatchGetItem, EventDataBatchWriteItem:
		return true
	}
	return false
}

// IsAuditAccess reports whether e records somebody requesting or downloading an audit.
// These rows describe the audit itself and can be dropped from exports.
func (e EventType) IsAuditAccess() bool {
	switch e {
	case EventRequestCaseAudit, EventGetCaseAudit,
		EventRequestCaseFileAudit, EventGetCaseFileAudit,
		EventRequestUserAudit, EventGetUserAudit,
		EventRequestSystemAudit, EventGetSystemAudit:
		return true
	}
	return false
}

// RequestEventType is the event recorded when an audit of kind t is started
func RequestEventType(t models.AuditType) EventType {
	switch t {
	case models.AuditTypeCase:
		return EventRequestCaseAudit
	case models.AuditTypeCaseFile:
		return EventRequestCaseFileAudit
	case models.AuditTypeUser:
		return EventRequestUserAudit
	case models.AuditTypeSystem:
		return EventRequestSystemAudit
	}
	return EventUnknown
}

// ResultEventType is the event recorded when results of an audit of kind t are fetched
func ResultEventType(t models.AuditType) EventType {
	switch t {
	case models.AuditTypeCase:
		return EventGetCaseAudit
	case models.AuditTypeCaseFile:
		return EventGetCaseFileAudit
	case models.AuditTypeUser:
		return EventGetUserAudit
	case models.AuditTypeSystem:
		return EventGetSystemAudit
	}
	return EventUnknown
}

// Event results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Event is one action recorded to the audit log. Field names are the JSON keys the
// Insights query selects, so renaming one breaks existing exports.
type Event struct {
	Time         time.Time
	EventType    EventType
	Result       string
	Username     string
	UserULID     string
	CaseID       string
	FileID       string
	TargetUserID string
	EventDetails string
	RequestID    string
	RequestPath  string
	SourceIP     string
	HTTPStatus   int
}

// IsReadOperation reports whether the event only read data. Reads are recorded only
// when the deployment opts in.
func (e *Event) IsReadOperation() bool {
	return strings.HasPrefix(string(e.EventType), "GET_")
}
