package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"
)

// LogsAPI is the subset of the CloudWatch Logs client the audit package uses.
// *cloudwatchlogs.Client satisfies it.
type LogsAPI interface {
	StartQuery(ctx context.Context, params *cloudwatchlogs.StartQueryInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(ctx context.Context, params *cloudwatchlogs.GetQueryResultsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetQueryResultsOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchBackend runs audit queries with CloudWatch Logs Insights
type CloudWatchBackend struct {
	client LogsAPI
}

// NewCloudWatchBackend creates a backend over an injected client
func NewCloudWatchBackend(client LogsAPI) *CloudWatchBackend {
	return &CloudWatchBackend{client: client}
}

// StartQuery submits the query. A reply without a query id is an error.
func (b *CloudWatchBackend) StartQuery(ctx context.Context, q Query) (string, error) {
	in := &cloudwatchlogs.StartQueryInput{
		LogGroupNames: q.LogGroups,
		QueryString:   aws.String(q.Expression),
		StartTime:     aws.Int64(q.Start.Unix()),
		EndTime:       aws.Int64(q.End.Unix()),
	}
	if q.Limit > 0 {
		in.Limit = aws.Int32(q.Limit)
	}
	out, err := b.client.StartQuery(ctx, in)
	if err != nil {
		return "", fmt.Errorf("cloudwatch StartQuery: %w", err)
	}
	if out == nil || aws.ToString(out.QueryId) == "" {
		return "", errors.New("cloudwatch StartQuery returned no query id")
	}
	return aws.ToString(out.QueryId), nil
}

// GetQueryResults polls the query. Insights returns the full result set in one
// response, so NextToken is always empty and nextToken is ignored.
//
// Insights forgets a query some days after it ran. Polling such a query id reports
// Failed so the caller starts a new audit instead of seeing a server error.
func (b *CloudWatchBackend) GetQueryResults(ctx context.Context, queryID, _ string) (*QueryPage, error) {
	out, err := b.client.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{
		QueryId: aws.String(queryID),
	})
	if err != nil {
		if isQueryGone(err) {
			return &QueryPage{Status: StatusFailed}, nil
		}
		return nil, fmt.Errorf("cloudwatch GetQueryResults: %w", err)
	}

	page := &QueryPage{Status: statusFromCloudWatch(out.Status)}
	if page.Status != StatusComplete {
		return page, nil
	}
	page.Rows = make([]Row, 0, len(out.Results))
	for _, fields := range out.Results {
		page.Rows = append(page.Rows, rowFromFields(fields))
	}
	return page, nil
}

func rowFromFields(fields []cwtypes.ResultField) Row {
	row := make(Row, len(fields))
	for _, f := range fields {
		row[aws.ToString(f.Field)] = aws.ToString(f.Value)
	}
	return row
}

func isQueryGone(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == (&cwtypes.ResourceNotFoundException{}).ErrorCode()
}
