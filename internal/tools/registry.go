package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

// Handler executes one tool call and returns the text handed back to the model.
type Handler func(ctx context.Context, call domain.ToolCall) (string, error)

type entry struct {
	decl    domain.ToolDeclaration
	handler Handler
}

// Registry maps tool names to declarations and handlers. It is built once at
// startup and shared read-only by every turn.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool. Returns ErrAlreadyExists if the name is taken.
func (r *Registry) Register(decl domain.ToolDeclaration, handler Handler) error {
	decl.Name = strings.TrimSpace(decl.Name)
	if decl.Name == "" {
		return ErrEmptyName
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, decl.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[decl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, decl.Name)
	}
	r.entries[decl.Name] = entry{decl: decl, handler: handler}
	r.order = append(r.order, decl.Name)
	return nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Declarations returns the registered declarations in registration order.
func (r *Registry) Declarations() []domain.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolDeclaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].decl)
	}
	return out
}

// Execute dispatches a call to its handler. Returns ErrNotFound for names
// that were never registered; handler errors are wrapped with the tool name.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall) (domain.ToolResult, error) {
	r.mu.RLock()
	e, exists := r.entries[call.Name]
	r.mu.RUnlock()

	if !exists {
		return domain.ToolResult{}, fmt.Errorf("%w: %s", ErrNotFound, call.Name)
	}

	content, err := e.handler(ctx, call)
	if err != nil {
		return domain.ToolResult{}, fmt.Errorf("tool %s execution failed: %w", call.Name, err)
	}
	return domain.ToolResult{Name: call.Name, Content: content}, nil
}
