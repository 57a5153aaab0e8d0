package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
	"github.com/zhouzirui/lgt-bot/backend/internal/parser"
	"github.com/zhouzirui/lgt-bot/backend/internal/service/ai"
)

const (
	// Greeting opens every transcript.
	Greeting = "Hey there, problem-solving superhero! 🦸‍♂️ What's your secret identity (aka your name)?"
	// Apology replaces the reply whenever the model call fails.
	Apology = "Oops! My circuits got a bit tangled there. Could you please try again?"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrRequestInFlight = errors.New("a reply is already being generated for this session")
)

type sessionState struct {
	id           string
	conversation chat.Conversation
	messages     []chat.Message
	token        string
	createdAt    time.Time
	lastActiveAt time.Time
}

func (s *sessionState) snapshot() chat.Session {
	return chat.Session{
		ID:           s.id,
		Stage:        s.conversation.Stage,
		UserName:     s.conversation.UserName,
		UserEmail:    s.conversation.UserEmail,
		Pending:      s.token != "",
		CreatedAt:    s.createdAt,
		LastActiveAt: s.lastActiveAt,
	}
}

func (s *sessionState) appendMessage(msg chat.Message) chat.Message {
	msg.ID = len(s.messages) + 1
	msg.SessionID = s.id
	s.messages = append(s.messages, msg)
	return msg
}

// Exchange is the result of one Send: the user message and the bot reply.
type Exchange struct {
	User    chat.Message `json:"user"`
	Reply   chat.Message `json:"reply"`
	Session chat.Session `json:"session"`
}

// Service keeps every session's conversation and transcript in memory.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionState
	generator ai.Generator
	logger    *zap.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an empty in-memory chat service.
func NewService(generator ai.Generator, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		sessions:  make(map[string]*sessionState),
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession starts a conversation at the name stage with the greeting
// already in the transcript.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	now := s.now()
	state := &sessionState{
		id:           uuid.NewString(),
		messages:     make([]chat.Message, 0, 16),
		createdAt:    now,
		lastActiveAt: now,
	}
	state.conversation.Stage = chat.StageName
	state.appendMessage(chat.Message{Text: Greeting, Sender: chat.SenderBot, CreatedAt: now})

	s.mu.Lock()
	s.sessions[state.id] = state
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session", state.id))
	return state.snapshot(), nil
}

// GetSession returns a snapshot of the session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return state.snapshot(), nil
}

// LoadTranscript returns a copy of the session's messages in order.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(state.messages))
	for i, msg := range state.messages {
		copied[i] = cloneMessage(msg)
	}
	return copied, nil
}

// GetMessage returns one message of the session.
func (s *Service) GetMessage(_ context.Context, sessionID string, messageID int) (chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}
	if messageID < 1 || messageID > len(state.messages) {
		return chat.Message{}, ErrMessageNotFound
	}
	return cloneMessage(state.messages[messageID-1]), nil
}

// cloneMessage copies msg so callers cannot reach the stored snippet.
func cloneMessage(msg chat.Message) chat.Message {
	if msg.CodeSnippet != nil {
		snippet := *msg.CodeSnippet
		msg.CodeSnippet = &snippet
	}
	return msg
}

// Send records a user turn, asks the model and records its reply. The user
// message is appended before the model is called; exactly one bot message
// follows, the apology when the call fails. Only one Send per session may be
// outstanding.
func (s *Service) Send(ctx context.Context, sessionID, text string) (Exchange, error) {
	return s.SendNotify(ctx, sessionID, text, nil)
}

// SendNotify is Send with a hook called once the user message is in the
// transcript, before the model is called. accepted may be nil.
func (s *Service) SendNotify(ctx context.Context, sessionID, text string, accepted func(chat.Message)) (Exchange, error) {
	token, userMsg, req, err := s.begin(sessionID, text)
	if err != nil {
		return Exchange{}, err
	}
	if accepted != nil {
		accepted(userMsg)
	}

	reply := s.generate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok || state.token != token {
		// Evicted mid-flight; nobody is left to read the reply.
		return Exchange{}, fmt.Errorf("complete reply: %w", ErrSessionNotFound)
	}

	reply.CreatedAt = s.now()
	botMsg := state.appendMessage(reply)
	state.token = ""
	state.lastActiveAt = botMsg.CreatedAt

	return Exchange{User: userMsg, Reply: cloneMessage(botMsg), Session: state.snapshot()}, nil
}

func (s *Service) begin(sessionID, text string) (string, chat.Message, ai.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return "", chat.Message{}, ai.Request{}, ErrSessionNotFound
	}
	if state.token != "" {
		return "", chat.Message{}, ai.Request{}, ErrRequestInFlight
	}

	turn, err := state.conversation.Accept(text)
	if err != nil {
		return "", chat.Message{}, ai.Request{}, err
	}

	now := s.now()
	userMsg := state.appendMessage(chat.Message{Text: text, Sender: chat.SenderUser, CreatedAt: now})
	state.token = uuid.NewString()
	state.lastActiveAt = now

	req := ai.Request{
		SessionID: sessionID,
		Stage:     turn.Stage,
		UserName:  state.conversation.UserName,
		UserEmail: state.conversation.UserEmail,
		Prompt:    turn.Prompt,
	}
	return state.token, userMsg, req, nil
}

func (s *Service) generate(ctx context.Context, req ai.Request) chat.Message {
	logger := s.logger.With(zap.String("session", req.SessionID), zap.String("stage", string(req.Stage)))

	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		logger.Warn("language model call failed", zap.Error(err))
		return chat.Message{Text: Apology, Sender: chat.SenderBot}
	}

	reply, err := parser.Parse(raw)
	if err != nil {
		logger.Info("reply has a malformed code block, showing it as text", zap.Error(err))
	}

	logger.Debug("reply generated",
		zap.Int("length", len(raw)),
		zap.Bool("snippet", reply.Snippet != nil),
		zap.Bool("hasPreview", reply.HasPreview),
	)

	return chat.Message{
		Text:        reply.Text,
		Sender:      chat.SenderBot,
		CodeSnippet: reply.Snippet,
		HasPreview:  reply.HasPreview,
	}
}

// Sweep drops sessions idle for longer than ttl, skipping those with a reply
// in flight, and reports how many were removed.
func (s *Service) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, state := range s.sessions {
		if state.token != "" || state.lastActiveAt.After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(ttl); n > 0 {
				s.logger.Info("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}
