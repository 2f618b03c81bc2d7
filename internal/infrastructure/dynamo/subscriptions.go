package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/medtrax-api/internal/domain"
)

// SubscriptionRepo stores Web Push subscriptions.
// PK: endpoint. GSI user_id-index.
type SubscriptionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSubscriptionRepo(client *dynamodb.Client, tableName string) *SubscriptionRepo {
	return &SubscriptionRepo{client: client, tableName: tableName}
}

// Upsert writes keys and owner for the endpoint, keeping the original created_at.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.PushSubscription) error {
	keys, err := attributevalue.Marshal(s.Keys)
	if err != nil {
		return fmt.Errorf("marshal push keys: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("endpoint", s.Endpoint),
		UpdateExpression: aws.String("SET #k = :k, user_id = :u, updated_at = :now, created_at = if_not_exists(created_at, :now)"),
		ExpressionAttributeNames: map[string]string{"#k": "keys"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k":   keys,
			":u":   &types.AttributeValueMemberS{Value: s.UserID},
			":now": &types.AttributeValueMemberS{Value: now},
		},
	})
	return err
}

func (r *SubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserID),
		KeyConditionExpression: aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	subs := make([]domain.PushSubscription, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepo) Delete(ctx context.Context, endpoint string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("endpoint", endpoint),
	})
	return err
}
