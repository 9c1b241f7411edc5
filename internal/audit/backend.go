package audit

import (
	"context"
	"time"
)

// LogQueryBackend runs asynchronous analytics queries over log groups
type LogQueryBackend interface {
	// StartQuery submits q and returns the backend's handle for it
	StartQuery(ctx context.Context, q Query) (string, error)
	// GetQueryResults reports the query's status and, once complete, one page of rows.
	// An empty nextToken asks for the first page; an empty NextToken in the reply means
	// there are no more pages.
	GetQueryResults(ctx context.Context, queryID, nextToken string) (*QueryPage, error)
}

// Query is one analytics query submission
type Query struct {
	LogGroups  []string
	Expression string
	Start      time.Time
	End        time.Time
	Limit      int32
}

// Row maps a result column name to its value
type Row map[string]string

// QueryPage is one poll of a query
type QueryPage struct {
	Status    QueryStatus
	Rows      []Row
	NextToken string
}
