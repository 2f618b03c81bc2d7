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

// OTPRepo is the OTP ledger: one live code per email.
// PK: email. expires_at doubles as the table TTL attribute.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Put stores o, replacing any previous code for the same email.
func (r *OTPRepo) Put(ctx context.Context, o *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume deletes the record for email only if it holds code, returning the deleted record.
// Concurrent callers race on a single conditional delete, so at most one succeeds.
func (r *OTPRepo) Consume(ctx context.Context, email, code string) (*domain.OTPRecord, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("email", email),
		ConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("code does not match: %w", domain.ErrInvalidOTP)
	}
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, fmt.Errorf("no code issued: %w", domain.ErrInvalidOTP)
	}
	var o domain.OTPRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
