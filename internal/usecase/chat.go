package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kgouthamk/my-first-agent/internal/domain"
	"github.com/kgouthamk/my-first-agent/internal/tools"
)

const (
	DefaultMaxToolRounds = 10
	recordTTL            = 30 * 24 * time.Hour
)

type LLMClient interface {
	Generate(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error)
}

// ToolExecutor is satisfied by both tools.Registry and the MCP remote.
type ToolExecutor interface {
	Declarations() []domain.ToolDeclaration
	Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error)
}

type TurnRecorder interface {
	SaveTurn(ctx context.Context, rec domain.TurnRecord) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ChatService runs the tool-call loop for one user message at a time. It
// holds no per-conversation state and is safe to share between requests.
type ChatService struct {
	llm       LLMClient
	tools     ToolExecutor
	known     map[string]struct{}
	system    string
	maxRounds int
	recorder  TurnRecorder
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*ChatService)

// WithMaxToolRounds bounds the tool executions per turn. Zero means unbounded.
func WithMaxToolRounds(n int) Option {
	return func(s *ChatService) {
		if n >= 0 {
			s.maxRounds = n
		}
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(s *ChatService) {
		s.system = prompt
	}
}

// WithRecorder stores an audit record after every successful turn.
func WithRecorder(r TurnRecorder) Option {
	return func(s *ChatService) {
		s.recorder = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) {
		if l != nil {
			s.logger = l
		}
	}
}

// TurnInput is one user message. OnToolCall, when set, is notified before
// each tool execution.
type TurnInput struct {
	Message    string
	Channel    string
	OnToolCall func(call domain.ToolCall)
}

func NewChatService(llm LLMClient, exec ToolExecutor, opts ...Option) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if exec == nil {
		return nil, errors.New("usecase: tool executor must not be nil")
	}
	s := &ChatService{
		llm:       llm,
		tools:     exec,
		known:     make(map[string]struct{}),
		system:    DefaultSystemPrompt,
		maxRounds: DefaultMaxToolRounds,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, decl := range exec.Declarations() {
		s.known[decl.Name] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Turn appends the message to conv, drives the model through tool calls
// until it answers in text, and returns that text. Only the first tool call
// of each completion is serviced. On failure conv keeps whatever was
// appended before the error.
func (s *ChatService) Turn(ctx context.Context, conv *domain.Conversation, in TurnInput) (string, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return "", newError(ErrorInvalidInput, "empty_message", nil)
	}
	if conv == nil {
		conv = &domain.Conversation{}
	}
	conv.Append(domain.Message{Role: domain.RoleUser, Text: message})

	rounds := 0
	for {
		completion, err := s.llm.Generate(ctx, domain.CompletionRequest{
			System:   s.system,
			Messages: conv.Messages,
		})
		if err != nil {
			reason := "completion_error"
			if status, ok := upstreamStatusCode(err); ok && status == 429 {
				reason = "completion_rate_limited"
			}
			return "", newError(ErrorUpstream, reason, err)
		}

		if len(completion.ToolCalls) == 0 {
			conv.Append(domain.Message{Role: domain.RoleModel, Text: completion.Text})
			s.record(ctx, in, message, completion.Text, rounds)
			return completion.Text, nil
		}

		call := completion.ToolCalls[0]
		if extra := len(completion.ToolCalls) - 1; extra > 0 {
			s.logger.Debug("dropping extra tool calls", "tool", call.Name, "dropped", extra)
		}
		if _, ok := s.known[call.Name]; !ok {
			return "", newError(ErrorUnknownTool, call.Name, nil)
		}
		if s.maxRounds > 0 && rounds >= s.maxRounds {
			return "", newError(ErrorMaxToolRounds, "tool_round_limit", nil)
		}
		rounds++

		conv.Append(domain.Message{
			Role:      domain.RoleModel,
			Text:      completion.Text,
			ToolCalls: []domain.ToolCall{call},
		})
		if in.OnToolCall != nil {
			in.OnToolCall(call)
		}

		result, err := s.tools.Execute(ctx, call)
		if err != nil {
			if errors.Is(err, tools.ErrNotFound) {
				return "", newError(ErrorUnknownTool, call.Name, err)
			}
			return "", newError(ErrorTool, call.Name, err)
		}
		if result.Name == "" {
			result.Name = call.Name
		}
		conv.Append(domain.Message{Role: domain.RoleTool, ToolResult: &result})
	}
}

func (s *ChatService) record(ctx context.Context, in TurnInput, message, reply string, toolCalls int) {
	if s.recorder == nil {
		return
	}
	now := s.now().UTC()
	rec := domain.TurnRecord{
		ID:        newUUID(),
		Channel:   in.Channel,
		Message:   message,
		Reply:     reply,
		ToolCalls: toolCalls,
		CreatedAt: now,
		TTL:       now.Add(recordTTL).Unix(),
	}
	if err := s.recorder.SaveTurn(ctx, rec); err != nil {
		s.logger.Warn("failed to record turn", "turn_id", rec.ID, "err", err)
	}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
