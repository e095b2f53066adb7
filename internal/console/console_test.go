package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgouthamk/my-first-agent/internal/domain"
	"github.com/kgouthamk/my-first-agent/internal/usecase"
)

type scriptedUseCase struct {
	replies  map[string]string
	errs     map[string]error
	calls    map[string][]domain.ToolCall
	messages []string
	convs    []*domain.Conversation
}

func (s *scriptedUseCase) Turn(_ context.Context, conv *domain.Conversation, in usecase.TurnInput) (string, error) {
	s.messages = append(s.messages, in.Message)
	s.convs = append(s.convs, conv)
	for _, call := range s.calls[in.Message] {
		in.OnToolCall(call)
	}
	if err := s.errs[in.Message]; err != nil {
		return "", err
	}
	conv.Append(domain.Message{Role: domain.RoleUser, Text: in.Message})
	return s.replies[in.Message], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func run(t *testing.T, uc ChatUseCase, input string) string {
	t.Helper()
	var out bytes.Buffer
	c, err := New(uc, strings.NewReader(input), &out, quietLogger())
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))
	return out.String()
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, strings.NewReader(""), io.Discard, nil)
	require.Error(t, err)
	_, err = New(&scriptedUseCase{}, nil, io.Discard, nil)
	require.Error(t, err)
}

func TestRun_Exit(t *testing.T) {
	uc := &scriptedUseCase{}
	out := run(t, uc, "  EXIT \nbanana\n")
	require.Equal(t, "You: Goodbye!\n", out)
	require.Empty(t, uc.messages)
}

func TestRun_ReplyAndLookupNotice(t *testing.T) {
	uc := &scriptedUseCase{
		replies: map[string]string{"Is a banana healthy?": "Yes, in moderation."},
		calls: map[string][]domain.ToolCall{
			"Is a banana healthy?": {{Name: "get_nutrition", Args: map[string]any{"food": "banana"}}},
		},
	}
	out := run(t, uc, "Is a banana healthy?\nexit\n")
	require.Equal(t,
		"You: [Looking up: banana...]\n\nAgent: Yes, in moderation.\n\nYou: Goodbye!\n",
		out,
	)
}

func TestRun_BlankLinesReprompt(t *testing.T) {
	uc := &scriptedUseCase{}
	out := run(t, uc, "\n   \nexit\n")
	require.Equal(t, 3, strings.Count(out, "You: "))
	require.Empty(t, uc.messages)
}

func TestRun_SessionKeepsOneConversation(t *testing.T) {
	uc := &scriptedUseCase{replies: map[string]string{"a": "1", "b": "2"}}
	run(t, uc, "a\nb\nexit\n")
	require.Equal(t, []string{"a", "b"}, uc.messages)
	require.Same(t, uc.convs[0], uc.convs[1])
	require.Equal(t, 2, uc.convs[1].Len())
}

func TestRun_ErrorContinues(t *testing.T) {
	uc := &scriptedUseCase{
		replies: map[string]string{"second": "ok"},
		errs: map[string]error{
			"first": &usecase.Error{Code: usecase.ErrorTool, Reason: "get_nutrition", Err: errors.New("timeout")},
		},
	}
	out := run(t, uc, "first\nsecond\nexit\n")
	require.Contains(t, out, "Error: the nutrition lookup failed")
	require.Contains(t, out, "Agent: ok")
	require.Equal(t, []string{"first", "second"}, uc.messages)
}

func TestRun_EOFSaysGoodbye(t *testing.T) {
	out := run(t, &scriptedUseCase{}, "")
	require.Equal(t, "You: \nGoodbye!\n", out)
}

func TestRun_CancelledContext(t *testing.T) {
	c, err := New(&scriptedUseCase{}, strings.NewReader("banana\n"), io.Discard, quietLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Run(ctx), context.Canceled)
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "plain", userMessage(errors.New("plain")))
	require.Contains(t, userMessage(&usecase.Error{Code: usecase.ErrorUnknownTool, Reason: "get_weather"}), "get_weather")
	require.Equal(t, "too many lookups for one question", userMessage(&usecase.Error{Code: usecase.ErrorMaxToolRounds}))
}

// ---------------------------------------------------------------------------
// history after a failed turn, against the real chat service
// ---------------------------------------------------------------------------

type recordingLLM struct {
	responses []domain.Completion
	requests  [][]domain.Message
}

func (m *recordingLLM) Generate(_ context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	m.requests = append(m.requests, append([]domain.Message(nil), req.Messages...))
	if len(m.requests) > len(m.responses) {
		return domain.Completion{}, errors.New("no llm response configured")
	}
	return m.responses[len(m.requests)-1], nil
}

type failingTools struct{}

func (failingTools) Declarations() []domain.ToolDeclaration {
	return []domain.ToolDeclaration{{Name: "get_nutrition"}}
}

func (failingTools) Execute(context.Context, domain.ToolCall) (domain.ToolResult, error) {
	return domain.ToolResult{}, errors.New("lookup timed out")
}

func TestRun_FailedTurnLeavesNoDanglingToolCall(t *testing.T) {
	llm := &recordingLLM{responses: []domain.Completion{
		{ToolCalls: []domain.ToolCall{{Name: "get_nutrition", Args: map[string]any{"food": "banana"}}}},
		{Text: "Apples are a good source of fiber."},
	}}
	chat, err := usecase.NewChatService(llm, failingTools{}, usecase.WithLogger(quietLogger()))
	require.NoError(t, err)

	out := run(t, chat, "banana\napple\nexit\n")
	require.Contains(t, out, "Error: the nutrition lookup failed")
	require.Contains(t, out, "Agent: Apples are a good source of fiber.")

	require.Len(t, llm.requests, 2)
	require.Equal(t, []domain.Message{{Role: domain.RoleUser, Text: "apple"}}, llm.requests[1])
}

func TestRun_ErrorRestoresHistoryLength(t *testing.T) {
	uc := &truncatingCheck{}
	run(t, uc, "ok\nfail\nok\nexit\n")
	require.Equal(t, []int{0, 1, 1}, uc.lens)
}

// truncatingCheck appends the message on every turn and fails on "fail",
// recording the history length seen at the start of each turn.
type truncatingCheck struct {
	lens []int
}

func (c *truncatingCheck) Turn(_ context.Context, conv *domain.Conversation, in usecase.TurnInput) (string, error) {
	c.lens = append(c.lens, conv.Len())
	conv.Append(domain.Message{Role: domain.RoleUser, Text: in.Message})
	if in.Message == "fail" {
		conv.Append(domain.Message{Role: domain.RoleModel, ToolCalls: []domain.ToolCall{{Name: "get_nutrition"}}})
		return "", errors.New("boom")
	}
	return "done", nil
}
