package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the slice of *ssm.Client used here.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter reads one decrypted parameter value by name.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client reads secrets from SSM Parameter Store.
type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter returns the decrypted value of name.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	value := aws.ToString(out.Parameter.Value)
	if value == "" {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return value, nil
}

// tokenPayload is the JSON shape stored in SSM for API tokens.
type tokenPayload struct {
	Token string `json:"token"`
}

// TokenKey resolves an API key stored as {"token": "..."} under Name.
// It satisfies gemini.KeySource.
type TokenKey struct {
	Getter Getter
	Name   string
}

// NewTokenKey returns a TokenKey reading <prefix>/<param>.
func NewTokenKey(g Getter, prefix, param string) TokenKey {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	return TokenKey{Getter: g, Name: prefix + "/" + strings.TrimLeft(param, "/")}
}

func (k TokenKey) APIKey(ctx context.Context) (string, error) {
	if k.Getter == nil {
		return "", errors.New("paramstore: getter is nil")
	}
	name := strings.TrimSpace(k.Name)
	if name == "" || name == "/" {
		return "", errors.New("paramstore: token parameter name is empty")
	}

	raw, err := k.Getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch token: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("paramstore: API token is empty")
	}
	return strings.TrimSpace(tp.Token), nil
}
