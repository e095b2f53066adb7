package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func paramOutput(value *string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name:  aws.String("/nutrition-agent/gemini-api-key"),
		Type:  types.ParameterTypeSecureString,
		Value: value,
	}}
}

func newClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	c, err := New(api)
	require.NoError(t, err)
	return c
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestGetParameter_DecryptsByName(t *testing.T) {
	api := &fakeAPI{getOut: paramOutput(aws.String(`{"token":"t"}`))}
	v, err := newClient(t, api).GetParameter(context.Background(), " /nutrition-agent/gemini-api-key ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"t"}`, v)
	require.Equal(t, "/nutrition-agent/gemini-api-key", aws.ToString(api.lastIn.Name))
	require.True(t, aws.ToBool(api.lastIn.WithDecryption))
}

func TestGetParameter_MissingValue(t *testing.T) {
	for _, out := range []*ssm.GetParameterOutput{nil, {}, paramOutput(nil), paramOutput(aws.String(""))} {
		_, err := newClient(t, &fakeAPI{getOut: out}).GetParameter(context.Background(), "p")
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing value")
	}
}

func TestGetParameter_APIError(t *testing.T) {
	_, err := newClient(t, &fakeAPI{getErr: errors.New("AccessDenied")}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "AccessDenied")
	require.ErrorContains(t, err, `"p"`)
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	_, err := newClient(t, api).GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
	require.Nil(t, api.lastIn)
}

// ---------------------------------------------------------------------------
// TokenKey
// ---------------------------------------------------------------------------

type fakeGetter struct {
	val      string
	err      error
	lastName string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.lastName = name
	return f.val, f.err
}

func TestNewTokenKey_JoinsPrefix(t *testing.T) {
	k := NewTokenKey(&fakeGetter{}, " /nutrition-agent/ ", "/gemini-api-key")
	require.Equal(t, "/nutrition-agent/gemini-api-key", k.Name)
}

func TestTokenKey_HappyPath(t *testing.T) {
	g := &fakeGetter{val: `{"token":"key-from-ssm"}`}
	key, err := NewTokenKey(g, "/nutrition-agent", "gemini-api-key").APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "key-from-ssm", key)
	require.Equal(t, "/nutrition-agent/gemini-api-key", g.lastName)
}

func TestTokenKey_MissingTokenField(t *testing.T) {
	g := &fakeGetter{val: `{"other":"value"}`}
	_, err := NewTokenKey(g, "/p", "k").APIKey(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "API token is empty")
}

func TestTokenKey_MalformedJSON(t *testing.T) {
	g := &fakeGetter{val: `{"broken`}
	_, err := NewTokenKey(g, "/p", "k").APIKey(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}

func TestTokenKey_GetterError(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	_, err := NewTokenKey(g, "/p", "k").APIKey(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm unavailable")
}

func TestTokenKey_NilGetter(t *testing.T) {
	_, err := TokenKey{Name: "/p/k"}.APIKey(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestTokenKey_EmptyName(t *testing.T) {
	_, err := TokenKey{Getter: &fakeGetter{val: `{"token":"x"}`}, Name: " "}.APIKey(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}
