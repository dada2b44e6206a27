package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"amora_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Embedder generates an embedding for a profile's free text.
type Embedder interface {
	EmbedProfile(ctx context.Context, bio, interests string) ([]float32, error)
}

// UserProfileService owns profile CRUD and the discovery candidate scan.
// Profile edits that touch bio or interests regenerate the embedding, since
// those two fields are what the embedding encodes.
type UserProfileService struct {
	Dynamo   DynamoAPI
	Embedder Embedder
	Cache    Invalidator
}

var _ ProfileStore = (*UserProfileService)(nil)

func profileKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}

// AddUserProfile creates a profile, generating its embedding when possible.
func (ups *UserProfileService) AddUserProfile(ctx context.Context, profile models.UserProfile) (*models.UserProfile, error) {
	if profile.UserID == "" {
		return nil, errors.New("userId is required")
	}
	profile.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	profile.Embedding = ups.generateEmbedding(ctx, profile.Bio, profile.Interests)

	if err := ups.Dynamo.PutItem(ctx, models.UserProfilesTable, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserProfile retrieves a user profile by ID. A missing profile returns
// (nil, nil).
func (ups *UserProfileService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	item, err := ups.Dynamo.GetItem(ctx, models.UserProfilesTable, profileKey(userID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// UpdateUserProfile applies a partial update. When bio or interests change
// the embedding is regenerated, and the user's cached discovery results are
// dropped since their ranking inputs changed.
func (ups *UserProfileService) UpdateUserProfile(ctx context.Context, userID string, updates map[string]interface{}) (*models.UserProfile, error) {
	if len(updates) == 0 {
		return nil, errors.New("no updates provided")
	}

	// Protected fields are never writable through this path.
	delete(updates, "userId")
	delete(updates, "embedding")
	delete(updates, "createdAt")

	_, bioChanged := updates["bio"]
	_, interestsChanged := updates["interests"]
	if bioChanged || interestsChanged {
		existing, err := ups.GetUserProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrUserNotFound
		}
		bio := existing.Bio
		if v, ok := updates["bio"].(string); ok {
			bio = v
		}
		interests := existing.Interests
		if v, ok := updates["interests"].(string); ok {
			interests = v
		}
		if embedding := ups.generateEmbedding(ctx, bio, interests); embedding != nil {
			updates["embedding"] = embedding
		}
	}
	updates["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	updateExpression := "SET"
	values := make(map[string]types.AttributeValue)
	names := make(map[string]string)
	for k, v := range updates {
		attr, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal update for '%s': %w", k, err)
		}
		updateExpression += " #" + k + " = :" + k + ","
		values[":"+k] = attr
		names["#"+k] = k
	}
	updateExpression = strings.TrimSuffix(updateExpression, ",")

	updatedItem, err := ups.Dynamo.UpdateItem(ctx, models.UserProfilesTable, updateExpression, "", profileKey(userID), values, names)
	if err != nil {
		return nil, err
	}

	var updatedProfile models.UserProfile
	if err := attributevalue.UnmarshalMap(updatedItem, &updatedProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	if ups.Cache != nil {
		ups.Cache.InvalidateUser(userID)
	}
	return &updatedProfile, nil
}

// DeleteUserProfile removes a user profile from DynamoDB
func (ups *UserProfileService) DeleteUserProfile(ctx context.Context, userID string) error {
	if err := ups.Dynamo.DeleteItem(ctx, models.UserProfilesTable, profileKey(userID)); err != nil {
		return err
	}
	if ups.Cache != nil {
		ups.Cache.InvalidateUser(userID)
	}
	return nil
}

// ScanCandidates returns profiles eligible for discovery: everyone but the
// requester who has an embedding and satisfies the declared filters.
func (ups *UserProfileService) ScanCandidates(ctx context.Context, excludeUserID string, f DiscoveryFilters) ([]models.UserProfile, error) {
	filterExpressions := []string{
		"userId <> :self",
		"attribute_exists(embedding)",
	}
	values := map[string]types.AttributeValue{
		":self": &types.AttributeValueMemberS{Value: excludeUserID},
	}
	names := map[string]string{}

	if f.MinAge != nil {
		filterExpressions = append(filterExpressions, "age >= :minAge")
		values[":minAge"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *f.MinAge)}
	}
	if f.MaxAge != nil {
		filterExpressions = append(filterExpressions, "age <= :maxAge")
		values[":maxAge"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *f.MaxAge)}
	}
	if f.Gender != "" {
		// gender is a DynamoDB reserved-adjacent name; alias it.
		filterExpressions = append(filterExpressions, "#gender = :gender")
		values[":gender"] = &types.AttributeValueMemberS{Value: f.Gender}
		names["#gender"] = "gender"
	}

	var profiles []models.UserProfile
	err := ups.Dynamo.ScanItems(ctx, models.UserProfilesTable, strings.Join(filterExpressions, " AND "), values, names, &profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate profiles: %w", err)
	}
	return profiles, nil
}

// generateEmbedding is best-effort: a profile without an embedding is still
// usable, just invisible to discovery until the next successful edit.
func (ups *UserProfileService) generateEmbedding(ctx context.Context, bio, interests string) []float32 {
	if ups.Embedder == nil {
		return nil
	}
	embedding, err := ups.Embedder.EmbedProfile(ctx, bio, interests)
	if err != nil {
		log.Printf("embedding generation failed: %v", err)
		return nil
	}
	return embedding
}
