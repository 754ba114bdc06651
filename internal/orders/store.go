package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/order-intake/internal/aws"
)

// ErrDuplicateID is returned when an item with the same OrderId already exists.
var ErrDuplicateID = errors.New("order id already exists")

// ErrMissingTable is returned by NewStore when no table name is configured.
var ErrMissingTable = errors.New("orders table name is required")

// Store encapsulates writes to the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) (*Store, error) {
	if tableName == "" {
		return nil, ErrMissingTable
	}
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	return &Store{
		client:    client,
		tableName: tableName,
	}, nil
}

// TableName returns the table the store writes to.
func (s *Store) TableName() string { return s.tableName }

// NewRecord builds the persisted form of an order. Items are re-serialized as a
// single JSON string; a nil list encodes as "null".
func NewRecord(orderID string, order Order, now time.Time) (OrderRecord, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("marshal items: %w", err)
	}
	return OrderRecord{
		OrderID:      orderID,
		CustomerName: order.CustomerName,
		Items:        string(items),
		Status:       StatusPending,
		OrderDate:    now.UTC().Format(OrderDateLayout),
	}, nil
}

// Put writes a new record. The write is conditional on the OrderId being unused,
// so an existing item is never overwritten.
func (s *Store) Put(ctx context.Context, rec OrderRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(OrderId)"),
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("put item %s: %w", rec.OrderID, ErrDuplicateID)
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }
