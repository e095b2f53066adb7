package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second
)

// generateRequest is the request shape for the generateContent endpoint.
type generateRequest struct {
	SystemInstruction *content `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
	Tools             []Tool    `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// generateResponse is the minimal response shape returned by generateContent.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// KeySource resolves the API key. It is consulted once per process.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a KeySource for a key already known at startup.
type StaticKey string

func (k StaticKey) APIKey(context.Context) (string, error) {
	if strings.TrimSpace(string(k)) == "" {
		return "", errors.New("gemini: API key is empty")
	}
	return strings.TrimSpace(string(k)), nil
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused Gemini client for function-calling content generation.
// Tool declarations are translated once at construction and sent with every
// request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keys       KeySource
	model      string
	tools      []Tool

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTools declares the tools the model may call.
func WithTools(decls []domain.ToolDeclaration) Option {
	return func(c *Client) {
		c.tools = TranslateTools(decls)
	}
}

// NewClient creates a Client for the given model. The key is resolved from
// keys on the first call to Generate and reused for the lifetime of the process.
func NewClient(keys KeySource, model string, opts ...Option) (*Client, error) {
	if keys == nil {
		return nil, errors.New("gemini: key source must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("gemini: model must not be empty")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		keys:       keys,
		model:      model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = c.keys.APIKey(ctx)
		if c.keyErr != nil {
			c.keyErr = fmt.Errorf("gemini: resolve API key: %w", c.keyErr)
		}
	})
	return c.apiKey, c.keyErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func generateURL(baseURL, model string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/v1beta") {
		base += "/v1beta"
	}
	return base + "/models/" + model + ":generateContent"
}

// Generate sends the system instruction, full history, and declared tools,
// and returns the first candidate's text and function calls.
func (c *Client) Generate(ctx context.Context, in domain.CompletionRequest) (domain.Completion, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return domain.Completion{}, err
	}

	body, err := json.Marshal(c.buildRequest(in))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := generateURL(c.baseURL, c.model)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return domain.Completion{}, fmt.Errorf("gemini: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("gemini: request failed: %w", err)
	}

	var payload generateResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return domain.Completion{}, fmt.Errorf("gemini: decode response: %w", decErr)
	}
	if len(payload.Candidates) == 0 {
		if payload.PromptFeedback != nil && payload.PromptFeedback.BlockReason != "" {
			return domain.Completion{}, fmt.Errorf("gemini: prompt blocked: %s", payload.PromptFeedback.BlockReason)
		}
		return domain.Completion{}, errors.New("gemini: no candidates in response")
	}

	candidate := payload.Candidates[0]
	if len(candidate.Content.Parts) == 0 && candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
		return domain.Completion{}, fmt.Errorf("gemini: candidate blocked: %s", candidate.FinishReason)
	}
	return fromContent(candidate.Content), nil
}

func (c *Client) buildRequest(in domain.CompletionRequest) generateRequest {
	req := generateRequest{
		Contents: toContents(in.Messages),
		Tools:    c.tools,
	}
	if system := strings.TrimSpace(in.System); system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	return req
}

func toContents(msgs []domain.Message) []content {
	out := make([]content, 0, len(msgs))
	for _, m := range msgs {
		var c content
		switch m.Role {
		case domain.RoleModel:
			c.Role = "model"
			if m.Text != "" {
				c.Parts = append(c.Parts, part{Text: m.Text})
			}
			for _, tc := range m.ToolCalls {
				c.Parts = append(c.Parts, part{FunctionCall: &functionCall{Name: tc.Name, Args: tc.Args}})
			}
		case domain.RoleTool:
			c.Role = "user"
			if m.ToolResult != nil {
				c.Parts = append(c.Parts, part{FunctionResponse: &functionResponse{
					Name:     m.ToolResult.Name,
					Response: map[string]any{"content": m.ToolResult.Content},
				}})
			}
		default:
			c.Role = "user"
			if m.Text != "" {
				c.Parts = append(c.Parts, part{Text: m.Text})
			}
		}
		if len(c.Parts) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func fromContent(c content) domain.Completion {
	var (
		text  strings.Builder
		calls []domain.ToolCall
	)
	for _, p := range c.Parts {
		if p.FunctionCall != nil {
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, domain.ToolCall{Name: p.FunctionCall.Name, Args: args})
			continue
		}
		text.WriteString(p.Text)
	}
	return domain.Completion{Text: text.String(), ToolCalls: calls}
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
