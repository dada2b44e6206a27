package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"amora_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// messageTimeFormat keeps a fixed-width fractional second so the createdAt
// sort key orders lexicographically the same as chronologically. RFC3339Nano
// trims trailing zeros, which breaks that equivalence.
const messageTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

// ChatService handles messages between matched users. Every operation first
// verifies the pair is actually matched; messaging is never available to
// pending or declined pairs.
type ChatService struct {
	Dynamo       DynamoAPI
	Interactions *InteractionService
}

// SendMessage stores a new message from senderID to otherUserID.
func (s *ChatService) SendMessage(ctx context.Context, senderID, otherUserID, content string) (*models.Message, error) {
	if content == "" {
		return nil, errors.New("message content is required")
	}
	rec, err := s.Interactions.MatchedPair(ctx, senderID, otherUserID)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		MatchID:   rec.ID,
		CreatedAt: time.Now().UTC().Format(messageTimeFormat),
		MessageID: uuid.NewString(),
		SenderID:  senderID,
		Content:   content,
		IsUnread:  true,
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	return &message, nil
}

// GetMessages fetches messages between the two users, newest first. The
// limit is clamped to maxMessagePageSize before it reaches the query.
func (s *ChatService) GetMessages(ctx context.Context, userID, otherUserID string, limit int) ([]models.Message, error) {
	rec, err := s.Interactions.MatchedPair(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}

	messages, err := s.conversationMessages(ctx, rec.ID, int32(limit))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt > messages[j].CreatedAt
	})
	return messages, nil
}

// conversationMessages queries a match's messages, newest first. limit <= 0
// fetches the whole conversation.
func (s *ChatService) conversationMessages(ctx context.Context, matchID string, limit int32) ([]models.Message, error) {
	keyCondition := "#matchId = :matchId"
	values := map[string]types.AttributeValue{
		":matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	names := map[string]string{
		"#matchId": "matchId",
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, values, names, limit, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	return messages, nil
}

// MarkMessagesAsRead marks messages received by userID in the conversation
// as read. The whole conversation is examined, not just the latest page, so
// older unread messages cannot be left behind.
func (s *ChatService) MarkMessagesAsRead(ctx context.Context, userID, otherUserID string) error {
	rec, err := s.Interactions.MatchedPair(ctx, userID, otherUserID)
	if err != nil {
		return err
	}

	messages, err := s.conversationMessages(ctx, rec.ID, 0)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		// Only the counterpart's unread messages flip.
		if msg.SenderID == userID || !msg.IsUnread {
			continue
		}
		key := map[string]types.AttributeValue{
			"matchId":   &types.AttributeValueMemberS{Value: rec.ID},
			"createdAt": &types.AttributeValueMemberS{Value: msg.CreatedAt},
		}
		updateExpression := "SET isUnread = :false"
		values := map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
		}
		if _, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, "", key, values, nil); err != nil {
			return fmt.Errorf("failed to mark message %s read: %w", msg.MessageID, err)
		}
	}
	return nil
}
