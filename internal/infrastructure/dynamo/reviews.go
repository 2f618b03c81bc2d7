package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/medtrax-api/internal/domain"
)

// ReviewRepo stores shop reviews and keeps the shop's rating aggregate in step.
// PK: shop_id, SK: review_key (created_at#review_id).
type ReviewRepo struct {
	client     *dynamodb.Client
	tableName  string
	shopsTable string
}

func NewReviewRepo(client *dynamodb.Client, tableName, shopsTable string) *ReviewRepo {
	return &ReviewRepo{client: client, tableName: tableName, shopsTable: shopsTable}
}

// Append writes rv and adds its rating to the shop aggregate in a single transaction.
func (r *ReviewRepo) Append(ctx context.Context, rv *domain.Review) error {
	item, err := attributevalue.MarshalMap(rv)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(review_key)"),
			}},
			{Update: &types.Update{
				TableName:           aws.String(r.shopsTable),
				Key:                 strKey("shop_id", rv.ShopID),
				UpdateExpression:    aws.String("ADD #sum :r, #cnt :one"),
				ConditionExpression: aws.String("attribute_exists(shop_id)"),
				ExpressionAttributeNames: map[string]string{
					"#sum": fieldRatingSum,
					"#cnt": fieldReviewCount,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":r":   &types.AttributeValueMemberN{Value: fmt.Sprint(rv.Rating)},
					":one": &types.AttributeValueMemberN{Value: "1"},
				},
			}},
		},
	})
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		if len(tce.CancellationReasons) > 1 && aws.ToString(tce.CancellationReasons[1].Code) == "ConditionalCheckFailed" {
			return fmt.Errorf("shop not found: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("review not saved: %w", domain.ErrConflict)
	}
	return err
}

// ListByShop returns up to limit reviews, newest first.
func (r *ReviewRepo) ListByShop(ctx context.Context, shopID string, limit int32) ([]domain.Review, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("shop_id = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: shopID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
