// Package repositories implements the data access layer (repository pattern) for the archive.
// Each repository type encapsulates the DynamoDB key layout for one entity; services
// never build keys or expressions directly.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
)

var (
	// ErrAlreadyExists is returned when a conditional create finds the item present
	ErrAlreadyExists = errors.New("item already exists")
	// ErrNotFound is returned when a conditional update or delete finds no item
	ErrNotFound = errors.New("item not found")
)

const (
	condNotExists = "attribute_not_exists(PK)"
	condExists    = "attribute_exists(PK)"
)

func primaryKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// isConditionFailed reports whether err is a failed condition on a single write or
// on any member of a transaction
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if aws.ToString(r.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// getItem loads one item into out. It returns false when the item does not exist.
func getItem(ctx context.Context, t *db.Table, pk, sk string, out any) (bool, error) {
	res, err := t.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.Name),
		Key:            primaryKey(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	if res.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("failed to decode item %s/%s: %w", pk, sk, err)
	}
	return true, nil
}

// putItem marshals item and writes it under an optional condition
func putItem(ctx context.Context, t *db.Table, item any, condition string) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	in := &dynamodb.PutItemInput{TableName: aws.String(t.Name), Item: av}
	if condition != "" {
		in.ConditionExpression = aws.String(condition)
	}
	_, err = t.Client.PutItem(ctx, in)
	return err
}

func transactPut(t *db.Table, item any, condition string) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to encode item: %w", err)
	}
	put := &types.Put{TableName: aws.String(t.Name), Item: av}
	if condition != "" {
		put.ConditionExpression = aws.String(condition)
	}
	return types.TransactWriteItem{Put: put}, nil
}

// queryPartition pages through every item whose partition key equals pk and whose
// sort key begins with skPrefix, on the table or on GSI1.
func queryPartition(ctx context.Context, t *db.Table, onGSI1 bool, pk, skPrefix string) ([]map[string]types.AttributeValue, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(t.Name),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
			":sk": &types.AttributeValueMemberS{Value: skPrefix},
		},
	}
	if onGSI1 {
		in.IndexName = aws.String(t.GSI1)
		in.KeyConditionExpression = aws.String("GSI1PK = :gsi1pk AND begins_with(GSI1SK, :gsi1sk)")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":gsi1pk": &types.AttributeValueMemberS{Value: pk},
			":gsi1sk": &types.AttributeValueMemberS{Value: skPrefix},
		}
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := t.Client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
