package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(opts ...Option) (*Store, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(opts...)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestAddMessage_CreatesConversation(t *testing.T) {
	s, _ := newTestStore()

	s.AddMessage("c1", TextMessage("user", "hello"))

	messages := s.GetMessages("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)

	ctx := s.GetContext("c1")
	assert.True(t, ctx.Exists)
	assert.True(t, ctx.Active)
	assert.Equal(t, 1, ctx.Metadata.TotalMessages)
	assert.Equal(t, 1, ctx.MessageCount)
}

func TestGetMessages_UnknownIDReturnsEmpty(t *testing.T) {
	s, _ := newTestStore()

	assert.Empty(t, s.GetMessages("missing"))
}

func TestGetMessages_Idempotent(t *testing.T) {
	s, _ := newTestStore()

	s.AddMessage("c1", TextMessage("system", "you are a gardener"))
	s.AddMessage("c1", TextMessage("user", "hi"))

	first := s.GetMessages("c1")
	second := s.GetMessages("c1")
	assert.Equal(t, first, second)
}

func TestGetMessages_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore()

	s.AddMessage("c1", TextMessage("user", "hi"))

	messages := s.GetMessages("c1")
	messages[0].Content = "mutated"

	assert.Equal(t, "hi", s.GetMessages("c1")[0].Content)
}

func TestExpiry_LazyPurgeOnRead(t *testing.T) {
	s, now := newTestStore(WithTimeout(30 * time.Minute))

	s.AddMessage("c1", TextMessage("user", "hi"))

	*now = now.Add(31 * time.Minute)

	assert.Empty(t, s.GetMessages("c1"))
	assert.False(t, s.GetContext("c1").Exists)
}

func TestExpiry_WriteToExpiredStartsFresh(t *testing.T) {
	s, now := newTestStore(WithTimeout(30 * time.Minute))

	s.AddMessage("c1", TextMessage("system", "old system"))
	s.AddMessage("c1", TextMessage("user", "old"))

	*now = now.Add(time.Hour)
	s.AddMessage("c1", TextMessage("user", "new"))

	messages := s.GetMessages("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, "new", messages[0].Content)
}

func TestCleanupExpired(t *testing.T) {
	s, now := newTestStore(WithTimeout(30 * time.Minute))

	s.AddMessage("old1", TextMessage("user", "hi"))
	s.AddMessage("old2", TextMessage("user", "hi"))

	*now = now.Add(45 * time.Minute)
	s.AddMessage("fresh", TextMessage("user", "hi"))

	removed := s.CleanupExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Count())
	assert.NotEmpty(t, s.GetMessages("fresh"))
}

func TestTrimming_PreservesSystemMessage(t *testing.T) {
	s, _ := newTestStore(WithTokenBudget(4096, 512))

	big := strings.Repeat("water the tomatoes daily ", 160) // ~1000 tokens

	s.AddMessage("c1", TextMessage("system", "you are a gardening assistant"))
	for i := 0; i < 10; i++ {
		s.AddMessage("c1", TextMessage("user", big))
	}

	messages := s.GetMessages("c1")
	require.NotEmpty(t, messages)
	assert.Less(t, len(messages), 12)
	assert.Equal(t, "system", messages[0].Role)
	assert.LessOrEqual(t, totalTokens(messages), 4096-512)
}

func TestTrimming_InvariantAfterEveryAdd(t *testing.T) {
	s, _ := newTestStore(WithTokenBudget(1024, 128))

	chunk := strings.Repeat("mulch ", 100)

	s.AddMessage("c1", TextMessage("system", "sys"))
	for i := 0; i < 20; i++ {
		s.AddMessage("c1", TextMessage("user", chunk))

		messages := s.GetMessages("c1")
		if totalTokens(messages) > 1024-128 {
			assert.LessOrEqual(t, len(messages), 2)
		}
	}
}

func TestTrimming_StopsAtTwoMessages(t *testing.T) {
	s, _ := newTestStore(WithTokenBudget(128, 64))

	huge := strings.Repeat("overgrown ", 200)

	s.AddMessage("c1", TextMessage("system", "sys"))
	s.AddMessage("c1", TextMessage("user", huge))

	// A single over-budget message is kept; the overrun is accepted.
	messages := s.GetMessages("c1")
	assert.Len(t, messages, 2)
}

func TestClearConversation(t *testing.T) {
	s, _ := newTestStore()

	s.AddMessage("c1", TextMessage("user", "hi"))
	s.ClearConversation("c1")
	assert.Empty(t, s.GetMessages("c1"))

	// No-op for unknown ids.
	s.ClearConversation("nope")
}

func TestSetMode(t *testing.T) {
	s, _ := newTestStore()

	s.AddMessage("c1", TextMessage("user", "hi"))
	s.SetMode("c1", "image-analysis")

	assert.Equal(t, "image-analysis", s.GetContext("c1").Metadata.Mode)
}

func TestMessageTokens_ImagePartsFlatCost(t *testing.T) {
	text := Message{Role: "user", Content: "a photo"}
	withImage := Message{
		Role: "user",
		Parts: []Part{
			{Type: PartTypeText, Text: "a photo"},
			{Type: PartTypeImage, ImageURL: "https://example.com/rose.jpg"},
		},
	}

	assert.Equal(t, messageTokens(text)+imageTokenCost, messageTokens(withImage))
}

func TestEstimateTokens_MonotonicInLength(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))

	last := 0
	for _, text := range []string{"a", "basil", "sweet basil plant", strings.Repeat("rose ", 50)} {
		tokens := estimateTokens(text)
		assert.GreaterOrEqual(t, tokens, last)
		last = tokens
	}
}
