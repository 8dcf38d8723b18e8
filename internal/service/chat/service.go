package chat

import (
	"context"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/llm"
)

const systemPrompt = "You are a smart AI assistant for an e-commerce store. Answer helpfully and in a friendly tone."

type chatRepo interface {
	Create(ctx context.Context, c domain.ChatExchange) (*domain.ChatExchange, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ChatExchange, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Completer produces the assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

type Service struct {
	repo         chatRepo
	users        userRepo
	completer    Completer
	historyTurns int
	logger       *log.Logger
}

// New builds the chat service. A nil completer leaves the assistant disabled: Send then
// fails with domain.ErrUnavailable while History keeps working.
func New(repo chatRepo, users userRepo, completer Completer, historyTurns int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if historyTurns < 0 {
		historyTurns = 0
	}
	return &Service{repo: repo, users: users, completer: completer, historyTurns: historyTurns, logger: logger}
}

type Reply struct {
	Message  string `json:"message"`
	Response string `json:"response"`
	ChatID   string `json:"chatId"`
}

// Send forwards message with the user's last turns as context and stores the exchange.
func (s *Service) Send(ctx context.Context, userID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if userID == "" || message == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Message and userId are required")
	}
	if s.completer == nil {
		return nil, domain.Errorf(domain.ErrUnavailable, "Chat assistant is not configured")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, domain.NotFound(err, "User")
	}

	var history []domain.ChatExchange
	if s.historyTurns > 0 {
		var err error
		history, err = s.repo.ListByUser(ctx, userID, s.historyTurns)
		if err != nil {
			return nil, err
		}
	}

	messages := make([]llm.Message, 0, 2+2*len(history))
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	// history is newest first.
	for _, h := range slices.Backward(history) {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: h.Message},
			llm.Message{Role: llm.RoleAssistant, Content: h.Response},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	start := time.Now()
	response, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.logger.Printf("chat service: completion failed user_id=%s context_messages=%d error=%v", userID, len(messages), err)
		return nil, err
	}
	s.logger.Printf("chat service: completion user_id=%s context_messages=%d duration=%s", userID, len(messages), time.Since(start))

	c, err := s.repo.Create(ctx, domain.ChatExchange{UserID: userID, Message: message, Response: response})
	if err != nil {
		return nil, domain.NotFound(err, "User")
	}
	return &Reply{Message: message, Response: response, ChatID: c.ID}, nil
}

type HistoryEntry struct {
	ID        string    `json:"id"`
	Role      llm.Role  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type History struct {
	ChatHistory        []HistoryEntry `json:"chatHistory"`
	TotalMessages      int            `json:"totalMessages"`
	TotalConversations int            `json:"totalConversations"`
}

// History returns every exchange, oldest first, flattened into user and assistant messages.
func (s *Service) History(ctx context.Context, userID string) (*History, error) {
	chats, err := s.repo.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, 2*len(chats))
	for _, c := range slices.Backward(chats) {
		entries = append(entries,
			HistoryEntry{ID: c.ID + "_user", Role: llm.RoleUser, Content: c.Message, Timestamp: c.CreatedAt},
			HistoryEntry{ID: c.ID + "_assistant", Role: llm.RoleAssistant, Content: c.Response, Timestamp: c.CreatedAt},
		)
	}
	return &History{ChatHistory: entries, TotalMessages: len(entries), TotalConversations: len(chats)}, nil
}
