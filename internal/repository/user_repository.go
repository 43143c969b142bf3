package repository

import (
	"context"
	"errors"
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

type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewUserRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func emailPK(email string) string {
	return "EMAIL#" + strings.ToLower(email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get user from DynamoDB")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var dbUser models.User
	if err := attributevalue.UnmarshalMap(result.Item, &dbUser); err != nil {
		r.logger.WithError(err).Error("Failed to unmarshal user from DynamoDB")
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &dbUser, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: emailPK(email)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	idAttr, ok := result.Item["user_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("email item for %s has no user_id", email)
	}

	return r.GetByID(ctx, idAttr.Value)
}

// Create stores the user and an email lookup item. The lookup item is
// written first with a conditional put so duplicate emails fail atomically.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := r.putEmailItem(ctx, user.Email, user.ID); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal user for DynamoDB")
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: user.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: user.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to create user in DynamoDB")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	existing, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if !strings.EqualFold(existing.Email, user.Email) {
		if err := r.putEmailItem(ctx, user.Email, user.ID); err != nil {
			return err
		}
		r.deleteEmailItem(ctx, existing.Email)
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: user.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: user.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to update user in DynamoDB")
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user := &models.User{ID: id}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: user.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: user.GetSK()},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.deleteEmailItem(ctx, existing.Email)
	return nil
}

func (r *UserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :pk_prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk_prefix": &types.AttributeValueMemberS{Value: "USER#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}

	var users []models.User
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := users[:0]
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Name), needle) ||
				strings.Contains(strings.ToLower(u.Email), needle) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	return users, nil
}

func (r *UserRepository) putEmailItem(ctx context.Context, email, userID string) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"PK":      &types.AttributeValueMemberS{Value: emailPK(email)},
			"SK":      &types.AttributeValueMemberS{Value: "METADATA"},
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to reserve email: %w", err)
	}
	return nil
}

func (r *UserRepository) deleteEmailItem(ctx context.Context, email string) {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: emailPK(email)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		r.logger.WithError(err).WithField("email", email).Warn("Failed to delete email lookup item")
	}
}
