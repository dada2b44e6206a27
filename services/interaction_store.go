package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amora_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrInteractionExists is returned by CreateInteraction when a record for
// the pair already exists (possibly written by a concurrent request).
var ErrInteractionExists = errors.New("interaction already exists")

// ErrStaleTransition is returned by TransitionStatus when the record is no
// longer in the expected status.
var ErrStaleTransition = errors.New("interaction status changed concurrently")

// InteractionStore persists interaction records, guaranteeing at most one
// record per canonical pair even under concurrent writes.
type InteractionStore interface {
	// GetInteraction returns the record for the pair, or nil when absent.
	GetInteraction(ctx context.Context, pairID string) (*models.Interaction, error)

	// CreateInteraction inserts the record only if the pair has none yet;
	// ErrInteractionExists otherwise.
	CreateInteraction(ctx context.Context, rec models.Interaction) error

	// TransitionStatus moves the record from fromStatus to toStatus
	// atomically, returning the updated record. ErrStaleTransition when
	// the record left fromStatus in the meantime.
	TransitionStatus(ctx context.Context, pairID, fromStatus, toStatus string) (*models.Interaction, error)

	// SetExplanation stores the generated rationale on the record.
	SetExplanation(ctx context.Context, pairID, explanation string) error

	// ListInteractions returns every record the user is part of, in
	// either pair position.
	ListInteractions(ctx context.Context, userID string) ([]models.Interaction, error)
}

// DynamoInteractionStore implements InteractionStore on the Interactions
// table. Pair uniqueness rides on the pairId partition key plus a
// conditional put.
type DynamoInteractionStore struct {
	Dynamo DynamoAPI
}

var _ InteractionStore = (*DynamoInteractionStore)(nil)

func pairKey(pairID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pairId": &types.AttributeValueMemberS{Value: pairID},
	}
}

func (s *DynamoInteractionStore) GetInteraction(ctx context.Context, pairID string) (*models.Interaction, error) {
	item, err := s.Dynamo.GetItem(ctx, models.InteractionsTable, pairKey(pairID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.Interaction
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interaction: %w", err)
	}
	return &rec, nil
}

func (s *DynamoInteractionStore) CreateInteraction(ctx context.Context, rec models.Interaction) error {
	err := s.Dynamo.PutItemIfAbsent(ctx, models.InteractionsTable, rec, "pairId")
	if errors.Is(err, ErrConditionFailed) {
		return ErrInteractionExists
	}
	return err
}

func (s *DynamoInteractionStore) TransitionStatus(ctx context.Context, pairID, fromStatus, toStatus string) (*models.Interaction, error) {
	updateExpression := "SET #status = :to, #updatedAt = :now"
	conditionExpression := "#status = :from"
	values := map[string]types.AttributeValue{
		":to":   &types.AttributeValueMemberS{Value: toStatus},
		":from": &types.AttributeValueMemberS{Value: fromStatus},
		":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	names := map[string]string{
		"#status":    "status",
		"#updatedAt": "updatedAt",
	}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.InteractionsTable, updateExpression, conditionExpression, pairKey(pairID), values, names)
	if errors.Is(err, ErrConditionFailed) {
		return nil, ErrStaleTransition
	}
	if err != nil {
		return nil, err
	}

	var rec models.Interaction
	if err := attributevalue.UnmarshalMap(attrs, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interaction: %w", err)
	}
	return &rec, nil
}

func (s *DynamoInteractionStore) SetExplanation(ctx context.Context, pairID, explanation string) error {
	updateExpression := "SET explanation = :explanation"
	values := map[string]types.AttributeValue{
		":explanation": &types.AttributeValueMemberS{Value: explanation},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.InteractionsTable, updateExpression, "", pairKey(pairID), values, nil)
	return err
}

func (s *DynamoInteractionStore) ListInteractions(ctx context.Context, userID string) ([]models.Interaction, error) {
	var all []models.Interaction

	// The user can sit in either pair position, so both GSIs are queried.
	queries := []struct {
		index string
		attr  string
	}{
		{models.UserID1Index, "userId1"},
		{models.UserID2Index, "userId2"},
	}
	for _, q := range queries {
		keyCondition := fmt.Sprintf("%s = :userId", q.attr)
		values := map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		}
		items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.InteractionsTable, q.index, keyCondition, values, nil, 1000)
		if err != nil {
			return nil, err
		}
		var recs []models.Interaction
		if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interactions: %w", err)
		}
		all = append(all, recs...)
	}
	return all, nil
}
