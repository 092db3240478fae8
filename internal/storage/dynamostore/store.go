package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
)

var ErrNotFound = errors.New("order not found")

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type Store struct {
	client  Client
	table   string
	breaker *gobreaker.CircuitBreaker[*dynamodb.PutItemOutput]
	log     *zap.Logger
}

type Option func(*Store)

func WithBreaker(cb *gobreaker.CircuitBreaker[*dynamodb.PutItemOutput]) Option {
	return func(s *Store) {
		s.breaker = cb
	}
}

func New(client Client, table string, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		client: client,
		table:  table,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put replaces the item keyed by orderID with the full order. It never reads
// or conditions on the existing item.
func (s *Store) Put(ctx context.Context, orderID string, order domain.Order) error {
	item, err := marshalOrder(order)
	if err != nil {
		return fmt.Errorf("marshalling order %s: %w", orderID, err)
	}
	item[domain.FieldOrderID] = &types.AttributeValueMemberS{Value: orderID}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}

	put := func() (*dynamodb.PutItemOutput, error) {
		return s.client.PutItem(ctx, input)
	}
	if s.breaker != nil {
		_, err = s.breaker.Execute(put)
	} else {
		_, err = put()
	}
	if err != nil {
		return fmt.Errorf("put item into %s: %w", s.table, err)
	}

	s.log.Debug("order written", zap.String("table", s.table), zap.String("order_id", orderID))
	return nil
}

// Get reads one order back with a strongly consistent read.
func (s *Store) Get(ctx context.Context, orderID string) (domain.Order, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			domain.FieldOrderID: &types.AttributeValueMemberS{Value: orderID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item from %s: %w", s.table, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	order, err := unmarshalOrder(out.Item)
	if err != nil {
		return nil, fmt.Errorf("decoding order %s: %w", orderID, err)
	}
	return order, nil
}
