package conversation

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Default token budget.
const (
	DefaultMaxTokens   = 4096
	DefaultTokenBuffer = 512
	DefaultTimeout     = 30 * time.Minute
)

// Metadata describes a conversation's bookkeeping state.
type Metadata struct {
	Mode          string    `json:"mode"`
	CreatedAt     time.Time `json:"created_at"`
	TotalMessages int       `json:"total_messages"`
}

// Context is a diagnostic snapshot of one conversation.
type Context struct {
	Exists       bool      `json:"exists"`
	Active       bool      `json:"active"`
	Messages     []Message `json:"messages,omitempty"`
	Metadata     Metadata  `json:"metadata"`
	TotalTokens  int       `json:"total_tokens"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

type conversationState struct {
	messages     []Message
	metadata     Metadata
	lastActivity time.Time
}

// Store holds all active multi-turn conversations in memory. Histories
// are trimmed from the front when they exceed the token budget and
// expire after a period of inactivity. All methods are safe for
// concurrent use; a single lock guards the whole map since conversation
// volume is low.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*conversationState

	maxTokens   int
	tokenBuffer int
	timeout     time.Duration

	logger *logrus.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTokenBudget sets the maximum token total and the safety buffer.
func WithTokenBudget(maxTokens, buffer int) Option {
	return func(s *Store) {
		s.maxTokens = maxTokens
		s.tokenBuffer = buffer
	}
}

// WithTimeout sets the inactivity timeout after which a conversation
// expires.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a conversation store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		conversations: make(map[string]*conversationState),
		maxTokens:     DefaultMaxTokens,
		tokenBuffer:   DefaultTokenBuffer,
		timeout:       DefaultTimeout,
		logger:        logrus.New(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMessage appends a message to the conversation, creating it if absent.
// An expired conversation is purged first, so the message starts a fresh
// history. After appending, the oldest non-system messages are removed
// until the approximate token total fits the budget or only two messages
// remain.
func (s *Store) AddMessage(id string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	conv, exists := s.conversations[id]
	if exists && s.expired(conv, now) {
		delete(s.conversations, id)
		exists = false
	}
	if !exists {
		s.logger.WithField("conversation_id", id).Info("Creating new conversation")
		conv = &conversationState{
			metadata: Metadata{Mode: "chat", CreatedAt: now},
		}
		s.conversations[id] = conv
	}

	conv.lastActivity = now
	conv.messages = append(conv.messages, msg)
	conv.metadata.TotalMessages++

	// Trim oldest non-system messages (index 1 preserves an initial
	// system message) while over budget. If a single message alone
	// exceeds the budget the overrun is accepted once the history is
	// down to two messages.
	budget := s.maxTokens - s.tokenBuffer
	for totalTokens(conv.messages) > budget && len(conv.messages) > 2 {
		s.logger.WithField("conversation_id", id).Info("Trimming conversation over token budget")
		conv.messages = append(conv.messages[:1], conv.messages[2:]...)
	}
}

// SetMode tags an existing conversation with a mode label. No-op for
// unknown ids.
func (s *Store) SetMode(id, mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[id]; ok {
		conv.metadata.Mode = mode
	}
}

// GetMessages returns the message history for an active conversation.
// Reading an expired conversation removes it and returns an empty slice;
// unknown ids also return an empty slice.
func (s *Store) GetMessages(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil
	}
	if s.expired(conv, s.now()) {
		s.logger.WithField("conversation_id", id).Info("Conversation timed out, purging")
		delete(s.conversations, id)
		return nil
	}

	out := make([]Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}

// GetContext returns a diagnostic snapshot of a conversation without the
// side effects of GetMessages.
func (s *Store) GetContext(id string) Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return Context{}
	}

	messages := make([]Message, len(conv.messages))
	copy(messages, conv.messages)

	return Context{
		Exists:       true,
		Active:       !s.expired(conv, s.now()),
		Messages:     messages,
		Metadata:     conv.metadata,
		TotalTokens:  totalTokens(conv.messages),
		LastActivity: conv.lastActivity,
		MessageCount: len(conv.messages),
	}
}

// ClearConversation removes a conversation unconditionally. No-op for
// unknown ids.
func (s *Store) ClearConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
}

// CleanupExpired removes every conversation past the inactivity timeout
// and returns the removed count. Expiry is also applied lazily on reads,
// so this exists for proactive reclamation, not correctness.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, conv := range s.conversations {
		if s.expired(conv, now) {
			delete(s.conversations, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Cleaned up expired conversations")
	}
	return removed
}

// Count returns the number of conversations currently held, expired or
// not.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.conversations)
}

func (s *Store) expired(conv *conversationState, now time.Time) bool {
	return now.Sub(conv.lastActivity) >= s.timeout
}

func totalTokens(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += messageTokens(msg)
	}
	return total
}
