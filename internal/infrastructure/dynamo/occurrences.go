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

// maxBatchAttempts bounds retries of UnprocessedItems from BatchWriteItem.
const maxBatchAttempts = 5

// OccurrenceRepo stores scheduled deliveries.
// PK: occurrence_id. GSIs: pending-fire_at-index (sparse), reminder_id-index.
// fire_at is kept in UTC at second precision so string order equals time order.
type OccurrenceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOccurrenceRepo(client *dynamodb.Client, tableName string) *OccurrenceRepo {
	return &OccurrenceRepo{client: client, tableName: tableName}
}

// PutMany writes occurrences in batches. Existing ids are overwritten.
func (r *OccurrenceRepo) PutMany(ctx context.Context, occs []domain.Occurrence) error {
	reqs := make([]types.WriteRequest, 0, len(occs))
	for i := range occs {
		o := occs[i]
		o.FireAt = fireAtKey(o.FireAt)
		item, err := attributevalue.MarshalMap(o)
		if err != nil {
			return fmt.Errorf("marshal occurrence: %w", err)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return r.batchWrite(ctx, reqs)
}

// DeleteByReminder removes every occurrence of reminderID and returns the removed ids.
func (r *OccurrenceRepo) DeleteByReminder(ctx context.Context, reminderID string) ([]string, error) {
	var ids []string
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexReminderID),
		KeyConditionExpression: aws.String("reminder_id = :r"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r": &types.AttributeValueMemberS{Value: reminderID},
		},
		ProjectionExpression: aws.String("occurrence_id"),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item["occurrence_id"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
	}
	reqs := make([]types.WriteRequest, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: strKey("occurrence_id", id)}})
	}
	if err := r.batchWrite(ctx, reqs); err != nil {
		return nil, err
	}
	return ids, nil
}

// Due returns up to limit pending occurrences with fire_at at or before now, oldest first.
func (r *OccurrenceRepo) Due(ctx context.Context, now time.Time, limit int32) ([]domain.Occurrence, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexPendingFire),
		KeyConditionExpression: aws.String("#p = :p AND fire_at <= :now"),
		ExpressionAttributeNames: map[string]string{"#p": fieldPending},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: domain.PendingFlag},
			":now": &types.AttributeValueMemberS{Value: fireAtKey(now).Format(time.RFC3339)},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	occs := make([]domain.Occurrence, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &occs); err != nil {
		return nil, err
	}
	return occs, nil
}

// Claim clears the pending flag and stamps sent_at. It fails with ErrConflict when
// another worker already claimed the occurrence or it was cancelled.
func (r *OccurrenceRepo) Claim(ctx context.Context, occurrenceID string, at time.Time) error {
	sentAt, err := attributevalue.Marshal(at.UTC())
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("occurrence_id", occurrenceID),
		UpdateExpression:          aws.String("SET #s = :s REMOVE #p"),
		ConditionExpression:       aws.String("attribute_exists(#p)"),
		ExpressionAttributeNames:  map[string]string{"#s": fieldSentAt, "#p": fieldPending},
		ExpressionAttributeValues: map[string]types.AttributeValue{":s": sentAt},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("occurrence already claimed: %w", domain.ErrConflict)
	}
	return err
}

func (r *OccurrenceRepo) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	for _, batch := range chunk(reqs) {
		pending := map[string][]types.WriteRequest{r.tableName: batch}
		for attempt := 0; len(pending[r.tableName]) > 0; attempt++ {
			if attempt == maxBatchAttempts {
				return fmt.Errorf("batch write: %d items unprocessed", len(pending[r.tableName]))
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt*50) * time.Millisecond):
				}
			}
			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return err
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

func fireAtKey(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
