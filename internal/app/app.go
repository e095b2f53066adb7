package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/kgouthamk/my-first-agent/internal/config"
	"github.com/kgouthamk/my-first-agent/internal/integrations/gemini"
	"github.com/kgouthamk/my-first-agent/internal/integrations/mcp"
	"github.com/kgouthamk/my-first-agent/internal/integrations/openfoodfacts"
	"github.com/kgouthamk/my-first-agent/internal/integrations/paramstore"
	"github.com/kgouthamk/my-first-agent/internal/logging"
	"github.com/kgouthamk/my-first-agent/internal/repository"
	"github.com/kgouthamk/my-first-agent/internal/tools"
	"github.com/kgouthamk/my-first-agent/internal/usecase"
)

const (
	Name       = "nutrition-agent"
	ServerName = "nutrition-server"
	Version    = "1.0.0"

	geminiKeyParam = "gemini-api-key"
)

// App holds the long-lived clients shared by every turn.
type App struct {
	Chat   *usecase.ChatService
	Tools  usecase.ToolExecutor
	Logger *slog.Logger

	closers []func() error
}

// New wires the chat service from cfg. AWS configuration is only loaded
// when SSM or DynamoDB is in use.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.ValidateAgent(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Logger: logger}

	exec, err := a.toolExecutor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Tools = exec

	var awsCfg *aws.Config
	if cfg.ParamPrefix != "" || cfg.TurnLogTable != "" {
		loaded, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	keys, err := keySource(cfg, awsCfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	geminiOpts := []gemini.Option{
		gemini.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
		gemini.WithTools(exec.Declarations()),
	}
	if base := strings.TrimSpace(cfg.GeminiBaseURL); base != "" {
		geminiOpts = append(geminiOpts, gemini.WithBaseURL(base))
	}
	llm, err := gemini.NewClient(keys, cfg.GeminiModel, geminiOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: create Gemini client: %w", err)
	}

	chatOpts := []usecase.Option{
		usecase.WithMaxToolRounds(cfg.MaxToolRounds),
		usecase.WithLogger(logging.Component(logger, "usecase")),
	}
	if cfg.TurnLogTable != "" {
		turnLog, err := repository.New(awsdynamodb.NewFromConfig(*awsCfg), cfg.TurnLogTable)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: create turn log: %w", err)
		}
		chatOpts = append(chatOpts, usecase.WithRecorder(turnLog))
	}

	a.Chat, err = usecase.NewChatService(llm, exec, chatOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: create chat service: %w", err)
	}
	return a, nil
}

// NewToolRegistry builds the in-process registry backed by Open Food Facts.
func NewToolRegistry(cfg config.Config) (*tools.Registry, error) {
	opts := []openfoodfacts.Option{
		openfoodfacts.WithHTTPClient(&http.Client{Timeout: cfg.LookupTimeout}),
		openfoodfacts.WithUserAgent(Name + "/" + Version),
	}
	if base := strings.TrimSpace(cfg.OpenFoodFactsBaseURL); base != "" {
		opts = append(opts, openfoodfacts.WithBaseURL(base))
	}
	reg := tools.NewRegistry()
	if err := tools.RegisterNutrition(reg, openfoodfacts.NewClient(opts...)); err != nil {
		return nil, fmt.Errorf("app: register nutrition tool: %w", err)
	}
	return reg, nil
}

func (a *App) toolExecutor(ctx context.Context, cfg config.Config) (usecase.ToolExecutor, error) {
	if cmd := strings.TrimSpace(cfg.ToolServerCommand); cmd != "" {
		remote, err := mcp.DialCommand(ctx, cmd, Name, Version)
		if err != nil {
			return nil, fmt.Errorf("app: connect tool server: %w", err)
		}
		a.closers = append(a.closers, remote.Close)
		a.Logger.Info("connected to tool server", "command", cmd, "tools", len(remote.Declarations()))
		return remote, nil
	}
	return NewToolRegistry(cfg)
}

func keySource(cfg config.Config, awsCfg *aws.Config) (gemini.KeySource, error) {
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		return gemini.StaticKey(key), nil
	}
	if awsCfg == nil {
		return nil, errors.New("app: no Gemini API key source configured")
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(*awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: create SSM client: %w", err)
	}
	return paramstore.NewTokenKey(ssmClient, cfg.ParamPrefix, geminiKeyParam), nil
}

// Close releases the tool server connection, if any.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
