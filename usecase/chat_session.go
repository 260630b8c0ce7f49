package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// EventSink receives every change of a session, in the order the changes
// were applied. A sink may read the session (State, Messages, Snapshot) but
// must not call Submit or Close.
type EventSink func(ctx context.Context, event domain.SessionEvent)

type Option func(*ChatSession)

func WithID(id string) Option {
	return func(s *ChatSession) { s.id = id }
}

func WithMaxTokens(n int) Option {
	return func(s *ChatSession) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

func WithEventSink(sink EventSink) Option {
	return func(s *ChatSession) { s.sink = sink }
}

// ChatSession is the controller of one chat view. It exclusively owns the
// conversation log and the session state; callers only ever see copies.
//
// Submissions are serialized: while a reply is pending, further submissions
// append their user turn immediately and queue their request behind the
// outstanding one, so bot replies land in submission order.
type ChatSession struct {
	id        string
	answerer  domain.Answerer
	maxTokens int
	sink      EventSink

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	log         *ConversationLog
	state       domain.SessionState
	outstanding int
	tail        chan struct{}
	closed      bool
	lastActive  time.Time

	// Events waiting for the sink. One caller at a time drains them; the
	// others wait on flushed until their own events went out.
	outbox    []domain.SessionEvent
	queued    uint64
	delivered uint64
	draining  bool
	flushed   *sync.Cond
}

func NewChatSession(answerer domain.Answerer, opts ...Option) *ChatSession {
	s := &ChatSession{
		id:         uuid.NewString(),
		answerer:   answerer,
		maxTokens:  domain.DefaultMaxTokens,
		log:        NewConversationLog(domain.Greeting()),
		lastActive: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(log.ContextWithSession(context.Background(), s.id))
	s.flushed = sync.NewCond(&s.mu)

	// The first request has nothing to wait for.
	s.tail = make(chan struct{})
	close(s.tail)

	return s
}

func (s *ChatSession) ID() string {
	return s.id
}

// PendingReply is the future for the bot turn answering one submission.
type PendingReply struct {
	UserMessage domain.ChatMessage

	done  chan struct{}
	reply domain.ChatMessage
	err   error
}

// Wait blocks until the bot turn is appended. It returns ErrSessionClosed
// when the session was closed before the reply arrived.
func (p *PendingReply) Wait(ctx context.Context) (domain.ChatMessage, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return domain.ChatMessage{}, ctx.Err()
	}
}

// Submit appends draft as a user turn and dispatches one request to the
// answering service. Blank drafts and closed sessions are ignored and
// yield nil. Failures never surface here: they become a bot turn.
func (s *ChatSession) Submit(draft string) *PendingReply {
	if strings.TrimSpace(draft) == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	userMsg := domain.NewUserMessage(draft)
	s.log.Append(userMsg)
	s.state.Draft = ""
	s.outstanding++
	s.lastActive = time.Now()

	events := []domain.SessionEvent{s.appendedEvent(userMsg)}
	if !s.state.AwaitingReply {
		s.state.AwaitingReply = true
		events = append(events, s.awaitingEvent())
	}

	pending := &PendingReply{UserMessage: userMsg, done: make(chan struct{})}
	prev := s.tail
	s.tail = pending.done

	s.emitLocked(events)

	go s.dispatch(pending, prev, draft)

	return pending
}

func (s *ChatSession) dispatch(p *PendingReply, prev <-chan struct{}, prompt string) {
	defer close(p.done)

	select {
	case <-prev:
	case <-s.ctx.Done():
		p.err = domain.ErrSessionClosed
		return
	}

	logger := log.WithCtx(s.ctx)
	started := time.Now()

	reply, err := s.answerer.Answer(s.ctx, prompt, s.maxTokens)
	if s.ctx.Err() != nil {
		p.err = domain.ErrSessionClosed
		return
	}

	text := reply
	switch {
	case err != nil:
		logger.Warn("Reply unavailable", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		text = domain.ConnectionErrorText
	case reply == "":
		logger.Info("Reply had no response field, using fallback")
		text = domain.FallbackText
	default:
		logger.Debug("Reply received", zap.Int("length", len(reply)), zap.Duration("elapsed", time.Since(started)))
	}
	botMsg := domain.NewBotMessage(text)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		p.err = domain.ErrSessionClosed
		return
	}

	s.log.Append(botMsg)
	s.outstanding--
	s.lastActive = time.Now()

	events := []domain.SessionEvent{s.appendedEvent(botMsg)}
	if s.outstanding == 0 {
		s.state.AwaitingReply = false
		events = append(events, s.awaitingEvent())
	}
	p.reply = botMsg

	s.emitLocked(events)
}

// emitLocked must be called with s.mu held and releases it. Events are
// queued in mutation order and handed to the sink with no lock held. It
// returns once events have reached the sink.
func (s *ChatSession) emitLocked(events []domain.SessionEvent) {
	s.outbox = append(s.outbox, events...)
	s.queued += uint64(len(events))
	target := s.queued

	if s.draining {
		for s.delivered < target {
			s.flushed.Wait()
		}
		s.mu.Unlock()
		return
	}

	s.draining = true
	for len(s.outbox) > 0 {
		batch := s.outbox
		s.outbox = nil
		s.mu.Unlock()

		if s.sink != nil {
			for _, ev := range batch {
				s.sink(s.ctx, ev)
			}
		}

		s.mu.Lock()
		s.delivered += uint64(len(batch))
		s.flushed.Broadcast()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *ChatSession) appendedEvent(msg domain.ChatMessage) domain.SessionEvent {
	return domain.SessionEvent{
		Type:          domain.MessageAppended,
		SessionID:     s.id,
		Message:       &msg,
		AwaitingReply: s.state.AwaitingReply,
	}
}

func (s *ChatSession) awaitingEvent() domain.SessionEvent {
	return domain.SessionEvent{
		Type:          domain.AwaitingChanged,
		SessionID:     s.id,
		AwaitingReply: s.state.AwaitingReply,
	}
}

// SetDraft records the not yet submitted input text.
func (s *ChatSession) SetDraft(draft string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Draft = draft
	s.lastActive = time.Now()
}

func (s *ChatSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ChatSession) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Messages()
}

// Snapshot returns the log and the state as of the same instant.
func (s *ChatSession) Snapshot() ([]domain.ChatMessage, domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Messages(), s.state
}

// Touch marks the session as in use, postponing idle expiry.
func (s *ChatSession) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// IdleSince reports when the session was last used.
func (s *ChatSession) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Busy reports whether a reply is still pending.
func (s *ChatSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstanding > 0
}

func (s *ChatSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close discards the session. Outstanding requests are cancelled and their
// replies are never appended.
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.state.AwaitingReply = false

	log.WithCtx(s.ctx).Debug("Chat session closed",
		zap.Int("messages", s.log.Len()),
		zap.Int("abandoned", s.outstanding))

	s.emitLocked([]domain.SessionEvent{{Type: domain.SessionEnded, SessionID: s.id}})
}
