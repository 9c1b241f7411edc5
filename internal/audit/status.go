package audit

import (
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// QueryStatus is the lifecycle state of a log query as reported by the backend.
//
//	Scheduled -> Running -> Complete | Failed | Cancelled | Timeout
type QueryStatus string

const (
	StatusScheduled QueryStatus = "Scheduled"
	StatusRunning   QueryStatus = "Running"
	StatusComplete  QueryStatus = "Complete"
	StatusFailed    QueryStatus = "Failed"
	StatusCancelled QueryStatus = "Cancelled"
	StatusTimeout   QueryStatus = "Timeout"
	StatusUnknown   QueryStatus = "Unknown"
)

// IsTerminal reports whether no further transition can occur
func (s QueryStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	case StatusScheduled, StatusRunning, StatusUnknown:
		return false
	}
	return false
}

// statusFromCloudWatch maps the SDK enum. Values the SDK adds later are reported as
// Unknown, which keeps the client polling instead of failing the export.
func statusFromCloudWatch(s cwtypes.QueryStatus) QueryStatus {
	switch s {
	case cwtypes.QueryStatusScheduled:
		return StatusScheduled
	case cwtypes.QueryStatusRunning:
		return StatusRunning
	case cwtypes.QueryStatusComplete:
		return StatusComplete
	case cwtypes.QueryStatusFailed:
		return StatusFailed
	case cwtypes.QueryStatusCancelled:
		return StatusCancelled
	case cwtypes.QueryStatusTimeout:
		return StatusTimeout
	case cwtypes.QueryStatusUnknown:
		return StatusUnknown
	}
	return StatusUnknown
}
