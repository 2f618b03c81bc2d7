package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/medtrax-api/internal/domain"
)

// ShopRepo provides typed DynamoDB operations for the shops table. PK: shop_id.
type ShopRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewShopRepo(client *dynamodb.Client, tableName string) *ShopRepo {
	return &ShopRepo{client: client, tableName: tableName}
}

// Put writes s, deriving the lower-cased search attributes.
func (r *ShopRepo) Put(ctx context.Context, s *domain.Shop) error {
	s.NameLower = strings.ToLower(s.Name)
	s.CityLower = strings.ToLower(s.Address.City)
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal shop: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ShopRepo) Get(ctx context.Context, shopID string) (*domain.Shop, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("shop_id", shopID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("shop not found: %w", domain.ErrNotFound)
	}
	var s domain.Shop
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ScanPage returns one page of shops matching f and the cursor for the next page
// (empty when there are no more pages). Filters are applied per scanned page,
// so a page may hold fewer than f.Limit items.
func (r *ShopRepo) ScanPage(ctx context.Context, f domain.ShopFilter) ([]domain.Shop, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(f.Limit),
	}
	var conds []string
	values := map[string]types.AttributeValue{}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		conds = append(conds, "(contains(name_lower, :q) OR contains(city_lower, :q))")
		values[":q"] = &types.AttributeValueMemberS{Value: q}
	}
	if c := strings.ToLower(strings.TrimSpace(f.City)); c != "" {
		conds = append(conds, "city_lower = :c")
		values[":c"] = &types.AttributeValueMemberS{Value: c}
	}
	if len(conds) > 0 {
		input.FilterExpression = aws.String(strings.Join(conds, " AND "))
		input.ExpressionAttributeValues = values
	}
	if f.Cursor != "" {
		start, err := decodeCursor(f.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = start
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	shops := make([]domain.Shop, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &shops); err != nil {
		return nil, "", err
	}
	next, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return shops, next, nil
}

// AppendImage adds url to the shop's image list.
func (r *ShopRepo) AppendImage(ctx context.Context, shopID, url string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("shop_id", shopID),
		UpdateExpression:         aws.String("SET #i = list_append(if_not_exists(#i, :empty), :u)"),
		ConditionExpression:      aws.String("attribute_exists(shop_id)"),
		ExpressionAttributeNames: map[string]string{"#i": fieldImages},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":u":     &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: url}}},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("shop not found: %w", domain.ErrNotFound)
	}
	return err
}
