package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/digital-evidence-archive/dea-backend/internal/db/models"
)

// Result columns selected by every audit query. Application events carry eventType and
// friends at the top level of the JSON line; trail events carry CloudTrail's nested
// fields, aliased here so both sources share one row shape.
const queryFields = "fields @timestamp, time, eventType, eventName, username, " +
	"userIdentity.sessionContext.sessionIssuer.userName as trailUser, " +
	"caseId, fileId, targetUserId, eventDetails, result, " +
	"requestParameters.tableName as tableName, eventSource, errorCode"

// BuildExpression returns the Insights query for scope. Ids are validated ULIDs before
// they get here, so they never need escaping.
func BuildExpression(scope Scope, limit int32) string {
	var b strings.Builder
	b.WriteString(queryFields)
	b.WriteString("\n| filter ispresent(eventType) or ispresent(eventName)")

	switch scope.Type {
	case models.AuditTypeCase:
		fmt.Fprintf(&b, "\n| filter caseId = %q or @message like %q", scope.ResourceID, scope.ResourceID)
	case models.AuditTypeCaseFile:
		fmt.Fprintf(&b, "\n| filter fileId = %q or @message like %q", scope.ResourceID, scope.ResourceID)
	case models.AuditTypeUser:
		fmt.Fprintf(&b, "\n| filter userUlid = %q or targetUserId = %q or @message like %q",
			scope.ResourceID, scope.ResourceID, scope.ResourceID)
	case models.AuditTypeSystem:
		// every event
	}

	b.WriteString("\n| sort @timestamp asc")
	if limit > 0 {
		fmt.Fprintf(&b, "\n| limit %d", limit)
	}
	return b.String()
}

// buildQuery assembles the full submission for scope ending at now
func buildQuery(scope Scope, opts Options, now time.Time) Query {
	return Query{
		LogGroups:  []string{opts.AuditLogGroup, opts.TrailLogGroup},
		Expression: BuildExpression(scope, opts.QueryLimit),
		Start:      now.Add(-opts.Lookback),
		End:        now,
		Limit:      opts.QueryLimit,
	}
}
