// Package dynamo stores customers in a DynamoDB table keyed by id, with a
// global secondary index on email.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/motoshop/backend/internal/domain/customer"
	"github.com/shopspring/decimal"
)

// Attribute and index names of the customers table
const (
	AttrID              = "id"
	AttrName            = "name"
	AttrEmail           = "email"
	AttrAvailableCredit = "availableCredit"
	AttrCreatedAt       = "createdAt"
	AttrUpdatedAt       = "updatedAt"

	EmailIndex = "email-index"
)

// batchWriteLimit is the DynamoDB maximum number of requests per BatchWriteItem
const batchWriteLimit = 25

// maxUnprocessedRetries bounds how often Clear resubmits throttled deletes
const maxUnprocessedRetries = 5

// Client is the subset of *dynamodb.Client used by the repository
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// CustomerRepository implements customer.Repository on a DynamoDB table
type CustomerRepository struct {
	client Client
	table  string
}

// NewCustomerRepository creates a repository for the given table
func NewCustomerRepository(client Client, table string) *CustomerRepository {
	return &CustomerRepository{client: client, table: table}
}

// Create puts a new item, refusing to overwrite an existing id
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	item, err := toItem(c)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": AttrID,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("customer %s already exists", c.ID())
	}
	if err != nil {
		return fmt.Errorf("failed to put customer %s: %w", c.ID(), err)
	}
	return nil
}

// FindAll scans the table and returns customers in creation order
func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.table)})
}

// FindByID reads a customer with a strongly consistent read. A missing
// customer yields nil, nil.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            keyOf(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return fromItem(out.Item)
}

// FindByEmail queries the email index. A missing customer yields nil, nil.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(EmailIndex),
		KeyConditionExpression: aws.String("#email = :email"),
		ExpressionAttributeNames: map[string]string{
			"#email": AttrEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query customer by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	return fromItem(out.Items[0])
}

// Update replaces an existing item
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	item, err := toItem(c)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": AttrID,
		},
	})
	if isConditionFailed(err) {
		return customer.ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update customer %s: %w", c.ID(), err)
	}
	return nil
}

// Delete removes an existing item
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 keyOf(id),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": AttrID,
		},
	})
	if isConditionFailed(err) {
		return customer.ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", id, err)
	}
	return nil
}

// FindByAvailableCredit scans with a server-side filter on availableCredit
func (r *CustomerRepository) FindByAvailableCredit(ctx context.Context, minCredit decimal.Decimal) ([]*customer.Customer, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("#credit >= :min"),
		ExpressionAttributeNames: map[string]string{
			"#credit": AttrAvailableCredit,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":min": &types.AttributeValueMemberN{Value: minCredit.String()},
		},
	})
}

// Clear deletes every item in batches
func (r *CustomerRepository) Clear(ctx context.Context) error {
	var keys []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:            aws.String(r.table),
		ProjectionExpression: aws.String("#id"),
		ExpressionAttributeNames: map[string]string{
			"#id": AttrID,
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan customer keys: %w", err)
		}
		for _, item := range page.Items {
			keys = append(keys, map[string]types.AttributeValue{AttrID: item[AttrID]})
		}
	}

	for chunk := range slices.Chunk(keys, batchWriteLimit) {
		requests := make([]types.WriteRequest, len(chunk))
		for i, key := range chunk {
			requests[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}}
		}
		if err := r.batchWrite(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of items, using server-side counting
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
		Select:    types.SelectCount,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count customers: %w", err)
		}
		count += int64(page.Count)
	}
	return count, nil
}

func (r *CustomerRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*customer.Customer, error) {
	customers := make([]*customer.Customer, 0)
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customers: %w", err)
		}
		for _, item := range page.Items {
			c, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			customers = append(customers, c)
		}
	}

	// Scan order is by partition hash; creation order is restored here.
	slices.SortStableFunc(customers, func(a, b *customer.Customer) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
	return customers, nil
}

func (r *CustomerRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.table: requests}
	for attempt := 0; len(pending[r.table]) > 0; attempt++ {
		if attempt > maxUnprocessedRetries {
			return fmt.Errorf("failed to clear customers: %d deletes left unprocessed", len(pending[r.table]))
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("failed to clear customers: %w", err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrID: &types.AttributeValueMemberS{Value: id},
	}
}

// customerItem is the stored shape of a customer
type customerItem struct {
	ID              string      `dynamodbav:"id"`
	Name            string      `dynamodbav:"name"`
	Email           string      `dynamodbav:"email"`
	AvailableCredit creditValue `dynamodbav:"availableCredit"`
	CreatedAt       time.Time   `dynamodbav:"createdAt"`
	UpdatedAt       time.Time   `dynamodbav:"updatedAt"`
}

// creditValue stores a decimal as a DynamoDB number without going through float64
type creditValue struct {
	decimal.Decimal
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler
func (v creditValue) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: v.String()}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler
func (v *creditValue) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("%s must be a number attribute, got %T", AttrAvailableCredit, av)
	}
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", AttrAvailableCredit, n.Value, err)
	}
	v.Decimal = d
	return nil
}

func toItem(c *customer.Customer) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(customerItem{
		ID:              c.ID(),
		Name:            c.Name(),
		Email:           c.Email(),
		AvailableCredit: creditValue{c.AvailableCredit()},
		CreatedAt:       c.CreatedAt().UTC(),
		UpdatedAt:       c.UpdatedAt().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode customer %s: %w", c.ID(), err)
	}
	return item, nil
}

func fromItem(av map[string]types.AttributeValue) (*customer.Customer, error) {
	var item customerItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("failed to decode customer item: %w", err)
	}
	if item.ID == "" {
		return nil, fmt.Errorf("customer item is missing string attribute %q", AttrID)
	}
	if item.Name == "" || item.Email == "" {
		return nil, fmt.Errorf("customer %s is missing string attribute %q or %q", item.ID, AttrName, AttrEmail)
	}
	return customer.Reconstitute(item.ID, item.Name, item.Email, item.AvailableCredit.Decimal, item.CreatedAt, item.UpdatedAt), nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var _ customer.Repository = (*CustomerRepository)(nil)
