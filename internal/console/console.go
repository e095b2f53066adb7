package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kgouthamk/my-first-agent/internal/domain"
	"github.com/kgouthamk/my-first-agent/internal/usecase"
)

const channelConsole = "console"

// ChatUseCase runs one turn of the tool-call loop.
type ChatUseCase interface {
	Turn(ctx context.Context, conv *domain.Conversation, in usecase.TurnInput) (string, error)
}

// Console is an interactive session. One conversation lives for the whole
// session.
type Console struct {
	uc     ChatUseCase
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func New(uc ChatUseCase, in io.Reader, out io.Writer, logger *slog.Logger) (*Console, error) {
	if uc == nil {
		return nil, errors.New("console: usecase must not be nil")
	}
	if in == nil || out == nil {
		return nil, errors.New("console: input and output must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{uc: uc, in: in, out: out, logger: logger}, nil
}

// Run reads messages until "exit", end of input, or ctx is done. Turn
// failures are reported, the failed turn is removed from the session
// history, and the session continues.
func (c *Console) Run(ctx context.Context) error {
	conv := &domain.Conversation{}
	scanner := bufio.NewScanner(c.in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "You: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("console: read input: %w", err)
			}
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		// A failed turn can leave a tool call without its result; drop the
		// partial turn so later requests still carry a well-formed history.
		mark := conv.Len()
		reply, err := c.uc.Turn(ctx, conv, usecase.TurnInput{
			Message:    line,
			Channel:    channelConsole,
			OnToolCall: c.announce,
		})
		if err != nil {
			conv.Messages = conv.Messages[:mark]
			c.logger.Error("turn failed", "err", err)
			fmt.Fprintf(c.out, "\nError: %s\n\n", userMessage(err))
			continue
		}
		fmt.Fprintf(c.out, "\nAgent: %s\n\n", reply)
	}
}

func (c *Console) announce(call domain.ToolCall) {
	if food := call.StringArg("food"); food != "" {
		fmt.Fprintf(c.out, "[Looking up: %s...]\n", food)
		return
	}
	fmt.Fprintf(c.out, "[Calling: %s...]\n", call.Name)
}

func userMessage(err error) string {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return err.Error()
	}
	switch ucErr.Code {
	case usecase.ErrorUpstream:
		return "the language model request failed"
	case usecase.ErrorTool:
		return "the nutrition lookup failed"
	case usecase.ErrorUnknownTool:
		return fmt.Sprintf("the model asked for an unknown tool (%s)", ucErr.Reason)
	case usecase.ErrorMaxToolRounds:
		return "too many lookups for one question"
	default:
		return err.Error()
	}
}
