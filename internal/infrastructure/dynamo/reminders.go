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

// ReminderRepo stores medicine reminders.
// PK: reminder_id. GSIs: user_id-created_at-index, status-end_date-index.
type ReminderRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewReminderRepo(client *dynamodb.Client, tableName string) *ReminderRepo {
	return &ReminderRepo{client: client, tableName: tableName}
}

func (r *ReminderRepo) Put(ctx context.Context, rem *domain.Reminder) error {
	item, err := attributevalue.MarshalMap(rem)
	if err != nil {
		return fmt.Errorf("marshal reminder: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ReminderRepo) Get(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("reminder_id", reminderID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("reminder not found: %w", domain.ErrNotFound)
	}
	var rem domain.Reminder
	if err := attributevalue.UnmarshalMap(out.Item, &rem); err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *ReminderRepo) Delete(ctx context.Context, reminderID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("reminder_id", reminderID),
	})
	return err
}

// ListByUser returns every reminder owned by userID, newest first.
func (r *ReminderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Reminder, error) {
	return r.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

// ListEndedActive returns active reminders whose end date is before day (YYYY-MM-DD).
func (r *ReminderRepo) ListEndedActive(ctx context.Context, day string) ([]domain.Reminder, error) {
	return r.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexStatusEndDay),
		KeyConditionExpression: aws.String("#s = :s AND end_date < :d"),
		ExpressionAttributeNames: map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: domain.ReminderActive},
			":d": &types.AttributeValueMemberS{Value: day},
		},
	})
}

func (r *ReminderRepo) SetStatus(ctx context.Context, reminderID, status string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldStatus: status})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("reminder_id", reminderID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(reminder_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("reminder not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *ReminderRepo) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Reminder
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		reminders = append(reminders, page...)
	}
	return reminders, nil
}
