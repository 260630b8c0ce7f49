package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/satriahrh/campus-chat/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(answerer domain.Answerer, idle time.Duration) *SessionManager {
	return NewSessionManager(func(id string) *ChatSession {
		return NewChatSession(answerer, WithID(id))
	}, idle)
}

func TestSessionManager_OpenGetClose(t *testing.T) {
	m := newTestManager(replyWith("ok", nil), time.Minute)

	s := m.Open()
	require.NotNil(t, s)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Len(t, got.Messages(), 1)

	require.NoError(t, m.Close(s.ID()))
	assert.True(t, s.Closed())
	assert.Equal(t, 0, m.Count())

	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID()), domain.ErrSessionNotFound)
}

func TestSessionManager_SessionsAreIndependent(t *testing.T) {
	m := newTestManager(replyWith("ok", nil), time.Minute)

	a := m.Open()
	b := m.Open()
	require.NotEqual(t, a.ID(), b.ID())

	waitReply(t, a.Submit("only in a"))

	assert.Len(t, a.Messages(), 3)
	assert.Len(t, b.Messages(), 1)
}

func TestSessionManager_ReapIdle(t *testing.T) {
	m := newTestManager(replyWith("ok", nil), 30*time.Minute)

	idle := m.Open()
	assert.Zero(t, m.Reap(time.Now()))

	closed := m.Reap(time.Now().Add(time.Hour))
	assert.Equal(t, 1, closed)
	assert.True(t, idle.Closed())
	assert.Equal(t, 0, m.Count())
}

func TestSessionManager_ReapSkipsBusySessions(t *testing.T) {
	answerer := newGatedAnswerer("wait")
	m := newTestManager(answerer, 30*time.Minute)

	s := m.Open()
	p := s.Submit("wait")

	assert.Zero(t, m.Reap(time.Now().Add(time.Hour)))
	assert.False(t, s.Closed())

	answerer.release("wait", "done")
	waitReply(t, p)
}

func TestSessionManager_ReapDisabled(t *testing.T) {
	m := newTestManager(replyWith("ok", nil), 0)
	m.Open()
	assert.Zero(t, m.Reap(time.Now().Add(24*time.Hour)))
}

func TestSessionManager_RunClosesAllOnShutdown(t *testing.T) {
	m := newTestManager(replyWith("ok", nil), time.Minute)
	s := m.Open()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, s.Closed())
	assert.Equal(t, 0, m.Count())
}
