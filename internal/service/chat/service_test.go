package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/llm"
	"ecommerce-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	seen  [][]llm.Message
	reply string
	err   error
}

func (c *scriptedCompleter) Complete(_ context.Context, messages []llm.Message) (string, error) {
	c.seen = append(c.seen, messages)
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("%s #%d", c.reply, len(c.seen)), nil
}

func newUser(t *testing.T, store *memory.Store) *domain.User {
	t.Helper()
	u, err := store.Users().Create(context.Background(), domain.User{Email: "chat@example.com", PasswordHash: "x", IsActive: true})
	require.NoError(t, err)
	return u
}

func TestSendCarriesRecentHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store)
	llmStub := &scriptedCompleter{reply: "answer"}
	svc := New(store.Chats(), store.Users(), llmStub, 2, nil)

	for _, msg := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, u.ID, msg)
		require.NoError(t, err)
	}
	reply, err := svc.Send(ctx, u.ID, "four")
	require.NoError(t, err)
	assert.Equal(t, "four", reply.Message)
	assert.Equal(t, "answer #4", reply.Response)
	assert.NotEmpty(t, reply.ChatID)

	last := llmStub.seen[3]
	require.Len(t, last, 6)
	assert.Equal(t, llm.RoleSystem, last[0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "two"}, last[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "answer #2"}, last[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "three"}, last[3])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "four"}, last[5])
}

func TestSendErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store)

	disabled := New(store.Chats(), store.Users(), nil, 5, nil)
	_, err := disabled.Send(ctx, u.ID, "hi")
	require.ErrorIs(t, err, domain.ErrUnavailable)

	svc := New(store.Chats(), store.Users(), &scriptedCompleter{reply: "ok"}, 5, nil)
	_, err = svc.Send(ctx, u.ID, "   ")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.Send(ctx, "nobody", "hi")
	require.ErrorIs(t, err, domain.ErrNotFound)

	upstream := errors.New("upstream down")
	failing := New(store.Chats(), store.Users(), &scriptedCompleter{err: upstream}, 5, nil)
	_, err = failing.Send(ctx, u.ID, "hi")
	require.ErrorIs(t, err, upstream)

	h, err := svc.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, h.TotalConversations)
}

func TestHistoryFlattensOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u := newUser(t, store)
	svc := New(store.Chats(), store.Users(), &scriptedCompleter{reply: "r"}, 5, nil)

	first, err := svc.Send(ctx, u.ID, "first")
	require.NoError(t, err)
	_, err = svc.Send(ctx, u.ID, "second")
	require.NoError(t, err)

	h, err := svc.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, h.TotalConversations)
	assert.Equal(t, 4, h.TotalMessages)
	require.Len(t, h.ChatHistory, 4)
	assert.Equal(t, first.ChatID+"_user", h.ChatHistory[0].ID)
	assert.Equal(t, "first", h.ChatHistory[0].Content)
	assert.Equal(t, first.ChatID+"_assistant", h.ChatHistory[1].ID)
	assert.Equal(t, llm.RoleAssistant, h.ChatHistory[1].Role)
	assert.Equal(t, "second", h.ChatHistory[2].Content)
}
