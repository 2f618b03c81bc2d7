package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/medtrax-api/internal/config"
	"go.uber.org/zap"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Existing tables are left untouched, so it runs on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables, log *zap.Logger) {
	b := bootstrapper{client: client, log: log}

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("email"),
			strAttr("user_id"),
		},
		KeySchema: hashKey("email"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserID, "user_id", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.OTPs),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{strAttr("email")},
		KeySchema:            hashKey("email"),
	})
	b.enableTTL(ctx, tables.OTPs, "expires_at")

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.HealthMetrics),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("user_kind"),
			strAttr("entry_key"),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("user_kind"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("entry_key"), KeyType: types.KeyTypeRange},
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Reminders),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("reminder_id"),
			strAttr("user_id"),
			strAttr("created_at"),
			strAttr("status"),
			strAttr("end_date"),
		},
		KeySchema: hashKey("reminder_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserCreated, "user_id", "created_at"),
			gsi(indexStatusEndDay, "status", "end_date"),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Occurrences),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("occurrence_id"),
			strAttr("reminder_id"),
			strAttr("pending"),
			strAttr("fire_at"),
		},
		KeySchema: hashKey("occurrence_id"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexPendingFire, "pending", "fire_at"),
			gsi(indexReminderID, "reminder_id", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.PushSubscriptions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("endpoint"),
			strAttr("user_id"),
		},
		KeySchema: hashKey("endpoint"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserID, "user_id", ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Shops),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{strAttr("shop_id")},
		KeySchema:            hashKey("shop_id"),
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Reviews),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("shop_id"),
			strAttr("review_key"),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("shop_id"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("review_key"), KeyType: types.KeyTypeRange},
		},
	})
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

type bootstrapper struct {
	client *dynamodb.Client
	log    *zap.Logger
}

func (b bootstrapper) createTable(ctx context.Context, input *dynamodb.CreateTableInput) {
	_, err := b.client.CreateTable(ctx, input)
	if err == nil {
		b.log.Info("created table", zap.String("table", aws.ToString(input.TableName)))
		return
	}
	// ResourceInUseException means the table already exists.
	var riue *types.ResourceInUseException
	if !errors.As(err, &riue) {
		b.log.Warn("could not create table", zap.String("table", aws.ToString(input.TableName)), zap.Error(err))
	}
}

func (b bootstrapper) enableTTL(ctx context.Context, tableName, ttlAttr string) {
	_, err := b.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		b.log.Warn("could not enable TTL", zap.String("table", tableName), zap.Error(err))
	}
}
