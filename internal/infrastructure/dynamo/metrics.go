package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/medtrax-api/internal/domain"
)

// MetricRepo stores health entries for every kind in one table.
// PK: user_kind, SK: entry_key (date#entry_id).
type MetricRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMetricRepo(client *dynamodb.Client, tableName string) *MetricRepo {
	return &MetricRepo{client: client, tableName: tableName}
}

func (r *MetricRepo) Put(ctx context.Context, e *domain.HealthEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal health entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(entry_key)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("health entry exists: %w", domain.ErrConflict)
	}
	return err
}

// ListRecent returns up to limit entries for the series, most recent date first.
func (r *MetricRepo) ListRecent(ctx context.Context, userID string, kind domain.MetricKind, limit int32) ([]domain.HealthEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_kind = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: domain.HealthEntryKey(userID, kind)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	entries := make([]domain.HealthEntry, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
