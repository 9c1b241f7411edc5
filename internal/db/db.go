// Package db provides the DynamoDB single-table handle used by every repository.
//
// All archive entities share one table. Items are addressed by a composite primary key
// (PK, SK) and a single global secondary index (GSI1PK, GSI1SK) serves the reverse
// lookups: a user's case memberships and the user owning an identity-provider token id.
// Every read and write is a single-item operation or a Query against one partition, so
// the table never needs to be scanned.
package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/digital-evidence-archive/dea-backend/internal/config"
)

// DynamoAPI is the subset of the DynamoDB client the repositories use.
// *dynamodb.Client satisfies it; tests substitute dynamotest.Fake.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Table is a handle on the single archive table
type Table struct {
	Client DynamoAPI
	Name   string
	GSI1   string
}

// NewTable wraps an existing client
func NewTable(client DynamoAPI, name, gsi1 string) *Table {
	return &Table{Client: client, Name: name, GSI1: gsi1}
}

// Connect creates a DynamoDB client from the shared AWS config
func Connect(awsCfg aws.Config, cfg *config.DynamoDBConfig) *Table {
	return NewTable(dynamodb.NewFromConfig(awsCfg), cfg.TableName, cfg.GSI1Name)
}

// Ping verifies the table exists and is reachable
func (t *Table) Ping(ctx context.Context) error {
	_, err := t.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.Name)})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", t.Name, err)
	}
	return nil
}
