// Package dynamotest provides an in-memory stand-in for the DynamoDB client.
//
// Fake understands exactly the expressions the repositories issue: key equality on
// PK or GSI1PK with an optional begins_with on the matching sort key, and the
// attribute_exists / attribute_not_exists(PK) conditions. It is not a general
// DynamoDB emulator.
package dynamotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Fake is a thread-safe in-memory table
type Fake struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// Err, when set, is returned from every call
	Err error
	// Calls counts invocations per operation name
	Calls map[string]int
}

// New returns an empty table
func New() *Fake {
	return &Fake{
		items: make(map[string]map[string]types.AttributeValue),
		Calls: make(map[string]int),
	}
}

// Len returns the number of stored items
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *Fake) begin(op string) error {
	f.Calls[op]++
	return f.Err
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func keyOf(item map[string]types.AttributeValue) string {
	return str(item["PK"]) + "|" + str(item["SK"])
}

func (f *Fake) checkCondition(cond *string, key string) error {
	if cond == nil {
		return nil
	}
	_, exists := f.items[key]
	switch strings.TrimSpace(*cond) {
	case "attribute_not_exists(PK)":
		if exists {
			return &types.ConditionalCheckFailedException{Message: aws.String("item exists")}
		}
	case "attribute_exists(PK)":
		if !exists {
			return &types.ConditionalCheckFailedException{Message: aws.String("item missing")}
		}
	default:
		return fmt.Errorf("dynamotest: unsupported condition %q", *cond)
	}
	return nil
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (f *Fake) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}
	item, ok := f.items[keyOf(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *Fake) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}
	key := keyOf(in.Item)
	if err := f.checkCondition(in.ConditionExpression, key); err != nil {
		return nil, err
	}
	f.items[key] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}
	key := keyOf(in.Key)
	if err := f.checkCondition(in.ConditionExpression, key); err != nil {
		return nil, err
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query supports "PK = :pk [AND begins_with(SK, :sk)]" on the table and
// "GSI1PK = :gsi1pk [AND begins_with(GSI1SK, :gsi1sk)]" on the index.
func (f *Fake) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Query"); err != nil {
		return nil, err
	}

	pkAttr, skAttr, pkVal, skVal := "PK", "SK", ":pk", ":sk"
	if in.IndexName != nil {
		pkAttr, skAttr, pkVal, skVal = "GSI1PK", "GSI1SK", ":gsi1pk", ":gsi1sk"
	}
	pk := str(in.ExpressionAttributeValues[pkVal])
	if pk == "" {
		return nil, errors.New("dynamotest: query without partition key value")
	}
	skPrefix := str(in.ExpressionAttributeValues[skVal])

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if str(item[pkAttr]) != pk {
			continue
		}
		if !strings.HasPrefix(str(item[skAttr]), skPrefix) {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := str(matched[i][skAttr]), str(matched[j][skAttr])
		if a != b {
			return a < b
		}
		return keyOf(matched[i]) < keyOf(matched[j])
	})
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if in.ExclusiveStartKey != nil {
		start := keyOf(in.ExclusiveStartKey)
		for i, item := range matched {
			if keyOf(item) == start {
				matched = matched[i+1:]
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{}
	if in.Limit != nil && int(*in.Limit) < len(matched) {
		matched = matched[:*in.Limit]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	for _, item := range matched {
		out.Items = append(out.Items, copyItem(item))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// TransactWriteItems applies Put and Delete actions atomically. Every condition
// is evaluated before any write is applied.
func (f *Fake) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("TransactWriteItems"); err != nil {
		return nil, err
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		var err error
		switch {
		case ti.Put != nil:
			err = f.checkCondition(ti.Put.ConditionExpression, keyOf(ti.Put.Item))
		case ti.Delete != nil:
			err = f.checkCondition(ti.Delete.ConditionExpression, keyOf(ti.Delete.Key))
		case ti.ConditionCheck != nil:
			err = f.checkCondition(ti.ConditionCheck.ConditionExpression, keyOf(ti.ConditionCheck.Key))
		default:
			return nil, errors.New("dynamotest: unsupported transact item")
		}
		reasons[i].Code = aws.String("None")
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if !errors.As(err, &ccf) {
				return nil, err
			}
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			f.items[keyOf(ti.Put.Item)] = copyItem(ti.Put.Item)
		case ti.Delete != nil:
			delete(f.items, keyOf(ti.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *Fake) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeTable"); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{TableName: in.TableName, TableStatus: types.TableStatusActive},
	}, nil
}
