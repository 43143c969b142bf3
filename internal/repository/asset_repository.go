package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/annboard/annboard/internal/models"
)

type AssetRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewAssetRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *AssetRepository {
	return &AssetRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	asset := &models.Asset{ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: asset.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: asset.GetSK()},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get asset from DynamoDB")
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var dbAsset models.Asset
	if err := attributevalue.UnmarshalMap(result.Item, &dbAsset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal asset: %w", err)
	}

	return &dbAsset, nil
}

func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	now := time.Now()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	return r.put(ctx, asset, aws.String("attribute_not_exists(PK)"))
}

func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	asset.UpdatedAt = time.Now()
	return r.put(ctx, asset, nil)
}

func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	asset := &models.Asset{ID: id}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: asset.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: asset.GetSK()},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	return nil
}

func (r *AssetRepository) List(ctx context.Context, search, announcementID string) ([]models.Asset, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :pk_prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk_prefix": &types.AttributeValueMemberS{Value: "ASSET#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan assets: %w", err)
	}

	var assets []models.Asset
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &assets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assets: %w", err)
	}

	filtered := assets[:0]
	needle := strings.ToLower(search)
	for _, a := range assets {
		if announcementID != "" && !a.LinkedTo(announcementID) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(a.FileName), needle) &&
			!strings.Contains(strings.ToLower(a.FileType), needle) {
			continue
		}
		filtered = append(filtered, a)
	}
	assets = filtered

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].CreatedAt.After(assets[j].CreatedAt)
	})

	return assets, nil
}

func (r *AssetRepository) put(ctx context.Context, asset *models.Asset, condition *string) error {
	item, err := attributevalue.MarshalMap(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: asset.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: asset.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: condition,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to store asset in DynamoDB")
		return fmt.Errorf("failed to store asset: %w", err)
	}

	return nil
}
