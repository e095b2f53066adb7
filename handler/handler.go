package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/kgouthamk/my-first-agent/internal/domain"
	"github.com/kgouthamk/my-first-agent/internal/usecase"
)

const (
	ChatPath          = "/api/chat"
	correlationHeader = "X-Correlation-Id"
	channelWeb        = "web"
	maxBodyBytes      = 1 << 20

	msgMissingMessage   = "Missing message"
	msgInternalError    = "Internal server error"
	msgMethodNotAllowed = "Method not allowed"
)

// ChatUseCase runs one turn of the tool-call loop.
type ChatUseCase interface {
	Turn(ctx context.Context, conv *domain.Conversation, in usecase.TurnInput) (string, error)
}

type chatRequest struct {
	Message any `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// response is the transport-neutral result shared by Lambda and net/http.
type response struct {
	status  int
	headers map[string]string
	body    string
}

// Handler serves the chat endpoint. Every request starts a fresh
// conversation; nothing is kept between requests.
type Handler struct {
	uc     ChatUseCase
	logger *slog.Logger
	static http.Handler
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithStaticDir serves files from dir on every non-API path. A missing
// directory disables static serving.
func WithStaticDir(dir string) Option {
	return func(h *Handler) {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			h.logger.Info("static directory not found, static files disabled", "dir", dir)
			return
		}
		h.static = http.FileServer(http.Dir(dir))
	}
}

func NewHandler(uc ChatUseCase, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: usecase must not be nil")
	}
	h := &Handler{uc: uc, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle is the AWS Lambda entry point behind API Gateway.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := resolveCorrelationID(headerValue(req.Headers, correlationHeader))
	res := h.dispatch(ctx, req.HTTPMethod, []byte(req.Body), correlationID)
	return events.APIGatewayProxyResponse{
		StatusCode: res.status,
		Headers:    res.headers,
		Body:       res.body,
	}, nil
}

// ServeHTTP routes the chat endpoint and, when configured, static files.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != ChatPath {
		if h.static == nil {
			http.NotFound(w, r)
			return
		}
		h.static.ServeHTTP(w, r)
		return
	}

	correlationID := resolveCorrelationID(r.Header.Get(correlationHeader))
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("failed to read request body", "correlation_id", correlationID, "err", err)
		body = nil
	}
	res := h.dispatch(r.Context(), r.Method, body, correlationID)
	for k, v := range res.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(res.status)
	_, _ = io.WriteString(w, res.body)
}

func (h *Handler) dispatch(ctx context.Context, method string, body []byte, correlationID string) response {
	switch method {
	case http.MethodOptions:
		return response{status: http.StatusNoContent, headers: baseHeaders(correlationID)}
	case http.MethodPost:
		return h.chat(ctx, body, correlationID)
	default:
		return errorJSON(http.StatusMethodNotAllowed, msgMethodNotAllowed, correlationID)
	}
}

func (h *Handler) chat(ctx context.Context, body []byte, correlationID string) response {
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Info("rejected chat request", "correlation_id", correlationID, "reason", "invalid_json")
		return errorJSON(http.StatusBadRequest, msgMissingMessage, correlationID)
	}
	message, ok := req.Message.(string)
	if !ok || message == "" {
		h.logger.Info("rejected chat request", "correlation_id", correlationID, "reason", "missing_message")
		return errorJSON(http.StatusBadRequest, msgMissingMessage, correlationID)
	}

	reply, err := h.uc.Turn(ctx, &domain.Conversation{}, usecase.TurnInput{
		Message: message,
		Channel: channelWeb,
	})
	if err != nil {
		status := statusFor(err)
		h.logger.Error("chat turn failed", "correlation_id", correlationID, "status", status, "err", err)
		if status == http.StatusBadRequest {
			return errorJSON(status, msgMissingMessage, correlationID)
		}
		return errorJSON(status, msgInternalError, correlationID)
	}

	return jsonResponse(http.StatusOK, chatResponse{Reply: reply}, correlationID)
}

// statusFor maps usecase failures onto HTTP statuses. Only input errors are
// the client's fault.
func statusFor(err error) int {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func baseHeaders(correlationID string) map[string]string {
	return map[string]string{
		correlationHeader:              correlationID,
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, " + correlationHeader,
	}
}

func jsonResponse(status int, v any, correlationID string) response {
	headers := baseHeaders(correlationID)
	headers["Content-Type"] = "application/json"
	body, err := json.Marshal(v)
	if err != nil {
		return response{status: http.StatusInternalServerError, headers: headers, body: `{"error":"` + msgInternalError + `"}`}
	}
	return response{status: status, headers: headers, body: string(body)}
}

func errorJSON(status int, msg, correlationID string) response {
	return jsonResponse(status, errorResponse{Error: msg}, correlationID)
}

func resolveCorrelationID(provided string) string {
	if id := strings.TrimSpace(provided); id != "" {
		return id
	}
	return uuid.NewString()
}

// headerValue looks a header up case-insensitively; API Gateway passes
// headers through as the client sent them.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
