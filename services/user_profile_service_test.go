package services

import (
	"context"
	"testing"

	"amora_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo records the expressions and items the service hands to DynamoDB.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue

	lastPut              interface{}
	lastUpdateExpression string
	lastUpdateValues     map[string]types.AttributeValue
	updatedKeys          []map[string]types.AttributeValue
	lastFilterExpression string
	lastFilterValues     map[string]types.AttributeValue
	lastFilterNames      map[string]string
	scanResult           []models.UserProfile
	queryItems           []map[string]types.AttributeValue
	lastQueryLimit       int32
}

func (f *fakeDynamo) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	id := key["userId"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, tableName string, item interface{}) error {
	f.lastPut = item
	return nil
}

func (f *fakeDynamo) PutItemIfAbsent(ctx context.Context, tableName string, item interface{}, pkAttr string) error {
	f.lastPut = item
	return nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, tableName, updateExpression, conditionExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
	f.lastUpdateExpression = updateExpression
	f.lastUpdateValues = values
	f.updatedKeys = append(f.updatedKeys, key)
	return map[string]types.AttributeValue{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	return nil
}

func (f *fakeDynamo) ScanItems(ctx context.Context, tableName, filterExpression string, values map[string]types.AttributeValue, names map[string]string, out interface{}) error {
	f.lastFilterExpression = filterExpression
	f.lastFilterValues = values
	f.lastFilterNames = names
	*(out.(*[]models.UserProfile)) = f.scanResult
	return nil
}

func (f *fakeDynamo) QueryItemsWithIndex(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, pageSize int32) ([]map[string]types.AttributeValue, error) {
	return nil, nil
}

func (f *fakeDynamo) QueryItemsWithOptions(ctx context.Context, tableName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	f.lastQueryLimit = limit
	return f.queryItems, nil
}

type stubEmbedder struct {
	embedding []float32
	calls     int
}

func (s *stubEmbedder) EmbedProfile(ctx context.Context, bio, interests string) ([]float32, error) {
	s.calls++
	return s.embedding, nil
}

func TestAddUserProfileGeneratesEmbedding(t *testing.T) {
	dynamo := &fakeDynamo{}
	embedder := &stubEmbedder{embedding: []float32{0.1, 0.2}}
	svc := &UserProfileService{Dynamo: dynamo, Embedder: embedder}

	created, err := svc.AddUserProfile(context.Background(), models.UserProfile{
		UserID: "u1", Bio: "Loves hiking", Interests: "hiking",
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, created.Embedding)
	assert.NotEmpty(t, created.CreatedAt)
	assert.Equal(t, 1, embedder.calls)
}

func TestAddUserProfileRequiresUserID(t *testing.T) {
	svc := &UserProfileService{Dynamo: &fakeDynamo{}}
	_, err := svc.AddUserProfile(context.Background(), models.UserProfile{})
	assert.Error(t, err)
}

func TestGetUserProfileMissingReturnsNil(t *testing.T) {
	svc := &UserProfileService{Dynamo: &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}}

	profile, err := svc.GetUserProfile(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestUpdateUserProfileRegeneratesEmbeddingOnBioChange(t *testing.T) {
	existing, err := attributevalue.MarshalMap(models.UserProfile{
		UserID: "u1", Bio: "old bio", Interests: "hiking",
	})
	require.NoError(t, err)

	dynamo := &fakeDynamo{items: map[string]map[string]types.AttributeValue{"u1": existing}}
	embedder := &stubEmbedder{embedding: []float32{0.9}}
	invalidator := &recordingInvalidator{}
	svc := &UserProfileService{Dynamo: dynamo, Embedder: embedder, Cache: invalidator}

	_, err = svc.UpdateUserProfile(context.Background(), "u1", map[string]interface{}{"bio": "new bio"})
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.calls)
	assert.Contains(t, dynamo.lastUpdateExpression, "#embedding = :embedding")
	assert.Equal(t, []string{"u1"}, invalidator.users)
}

func TestUpdateUserProfileIgnoresProtectedFields(t *testing.T) {
	dynamo := &fakeDynamo{}
	svc := &UserProfileService{Dynamo: dynamo}

	_, err := svc.UpdateUserProfile(context.Background(), "u1", map[string]interface{}{
		"name":      "New Name",
		"userId":    "someone-else",
		"embedding": []float32{1},
		"createdAt": "2020-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Contains(t, dynamo.lastUpdateExpression, "#name = :name")
	assert.NotContains(t, dynamo.lastUpdateExpression, "#userId")
	assert.NotContains(t, dynamo.lastUpdateExpression, "#embedding")
	assert.NotContains(t, dynamo.lastUpdateExpression, "#createdAt")
}

func TestScanCandidatesFilterExpression(t *testing.T) {
	dynamo := &fakeDynamo{scanResult: []models.UserProfile{{UserID: "u2"}}}
	svc := &UserProfileService{Dynamo: dynamo}

	minAge, maxAge := 25, 35
	profiles, err := svc.ScanCandidates(context.Background(), "u1", DiscoveryFilters{
		MinAge: &minAge,
		MaxAge: &maxAge,
		Gender: "female",
	})
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	assert.Contains(t, dynamo.lastFilterExpression, "userId <> :self")
	assert.Contains(t, dynamo.lastFilterExpression, "attribute_exists(embedding)")
	assert.Contains(t, dynamo.lastFilterExpression, "age >= :minAge")
	assert.Contains(t, dynamo.lastFilterExpression, "age <= :maxAge")
	assert.Contains(t, dynamo.lastFilterExpression, "#gender = :gender")
	assert.Equal(t, "gender", dynamo.lastFilterNames["#gender"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, dynamo.lastFilterValues[":self"])
}
