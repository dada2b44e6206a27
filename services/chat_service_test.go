package services

import (
	"context"
	"testing"
	"time"

	"amora_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchedInteractionService(t *testing.T) *InteractionService {
	t.Helper()
	store := newMemInteractionStore()
	svc, _ := newInteractionService(store)

	_, err := svc.ProcessAction(context.Background(), "alice", "bob", models.ActionLike)
	require.NoError(t, err)
	_, err = svc.ProcessAction(context.Background(), "bob", "alice", models.ActionLike)
	require.NoError(t, err)
	return svc
}

func TestSendMessageRequiresMatch(t *testing.T) {
	interactions, _ := newInteractionService(newMemInteractionStore())
	chat := &ChatService{Dynamo: &fakeDynamo{}, Interactions: interactions}

	_, err := chat.SendMessage(context.Background(), "alice", "bob", "hey")
	assert.ErrorIs(t, err, ErrNotMatched)
}

func TestSendMessage(t *testing.T) {
	dynamo := &fakeDynamo{}
	chat := &ChatService{Dynamo: dynamo, Interactions: matchedInteractionService(t)}

	message, err := chat.SendMessage(context.Background(), "alice", "bob", "hey there")
	require.NoError(t, err)
	assert.Equal(t, "alice", message.SenderID)
	assert.Equal(t, "hey there", message.Content)
	assert.True(t, message.IsUnread)
	assert.NotEmpty(t, message.MessageID)

	stored, ok := dynamo.lastPut.(models.Message)
	require.True(t, ok)
	assert.Equal(t, message.MessageID, stored.MessageID)

	_, err = time.Parse(time.RFC3339Nano, message.CreatedAt)
	assert.NoError(t, err)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	chat := &ChatService{Dynamo: &fakeDynamo{}, Interactions: matchedInteractionService(t)}

	_, err := chat.SendMessage(context.Background(), "alice", "bob", "")
	assert.Error(t, err)
}

func messageItem(t *testing.T, msg models.Message) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(msg)
	require.NoError(t, err)
	return item
}

func TestMarkMessagesAsReadCoversWholeConversation(t *testing.T) {
	dynamo := &fakeDynamo{queryItems: []map[string]types.AttributeValue{
		messageItem(t, models.Message{MatchID: "m1", CreatedAt: "t3", SenderID: "bob", IsUnread: true}),
		messageItem(t, models.Message{MatchID: "m1", CreatedAt: "t2", SenderID: "alice", IsUnread: true}),
		messageItem(t, models.Message{MatchID: "m1", CreatedAt: "t1", SenderID: "bob", IsUnread: true}),
		messageItem(t, models.Message{MatchID: "m1", CreatedAt: "t0", SenderID: "bob", IsUnread: false}),
	}}
	chat := &ChatService{Dynamo: dynamo, Interactions: matchedInteractionService(t)}

	require.NoError(t, chat.MarkMessagesAsRead(context.Background(), "alice", "bob"))

	// The query must be unbounded so unread messages beyond any page size
	// still get flipped.
	assert.Equal(t, int32(0), dynamo.lastQueryLimit)

	var flipped []string
	for _, key := range dynamo.updatedKeys {
		flipped = append(flipped, key["createdAt"].(*types.AttributeValueMemberS).Value)
	}
	assert.ElementsMatch(t, []string{"t3", "t1"}, flipped, "only the counterpart's unread messages flip")
}

func TestGetMessagesClampsLimit(t *testing.T) {
	dynamo := &fakeDynamo{}
	chat := &ChatService{Dynamo: dynamo, Interactions: matchedInteractionService(t)}

	_, err := chat.GetMessages(context.Background(), "alice", "bob", 1<<40)
	require.NoError(t, err)
	assert.Equal(t, int32(maxMessagePageSize), dynamo.lastQueryLimit)

	_, err = chat.GetMessages(context.Background(), "alice", "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(defaultMessagePageSize), dynamo.lastQueryLimit)
}

func TestMessageTimestampsOrderLexicographically(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 5, 0, time.UTC)
	later := base.Add(500 * time.Millisecond)

	first := base.Format(messageTimeFormat)
	second := later.Format(messageTimeFormat)

	// A whole-second timestamp keeps its fractional digits, so bytewise
	// comparison agrees with chronology.
	assert.Len(t, first, len(second))
	assert.Less(t, first, second)

	parsed, err := time.Parse(time.RFC3339Nano, first)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(base))
}
