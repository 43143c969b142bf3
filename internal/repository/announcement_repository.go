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

type AnnouncementRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewAnnouncementRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *AnnouncementRepository {
	return &AnnouncementRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	announcement := &models.Announcement{ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: announcement.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: announcement.GetSK()},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get announcement from DynamoDB")
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var dbAnnouncement models.Announcement
	if err := attributevalue.UnmarshalMap(result.Item, &dbAnnouncement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal announcement: %w", err)
	}

	return &dbAnnouncement, nil
}

func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	now := time.Now()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now

	return r.put(ctx, announcement, aws.String("attribute_not_exists(PK)"))
}

func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now()
	return r.put(ctx, announcement, nil)
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	announcement := &models.Announcement{ID: id}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: announcement.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: announcement.GetSK()},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}

	return nil
}

func (r *AnnouncementRepository) List(ctx context.Context, search string) ([]models.Announcement, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :pk_prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk_prefix": &types.AttributeValueMemberS{Value: "ANNOUNCEMENT#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan announcements: %w", err)
	}

	var announcements []models.Announcement
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &announcements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal announcements: %w", err)
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := announcements[:0]
		for _, a := range announcements {
			if strings.Contains(strings.ToLower(a.Title), needle) ||
				strings.Contains(strings.ToLower(a.Content), needle) {
				filtered = append(filtered, a)
			}
		}
		announcements = filtered
	}

	sort.Slice(announcements, func(i, j int) bool {
		return announcements[i].CreatedAt.After(announcements[j].CreatedAt)
	})

	return announcements, nil
}

func (r *AnnouncementRepository) put(ctx context.Context, announcement *models.Announcement, condition *string) error {
	item, err := attributevalue.MarshalMap(announcement)
	if err != nil {
		return fmt.Errorf("failed to marshal announcement: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: announcement.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: announcement.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: condition,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to store announcement in DynamoDB")
		return fmt.Errorf("failed to store announcement: %w", err)
	}

	return nil
}
