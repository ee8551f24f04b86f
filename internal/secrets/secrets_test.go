package secrets

import (
	"context"
	"errors"
	"testing"

	"devopsquiz/internal/config"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	values map[string]string
	puts   []*ssm.PutParameterInput
	getErr error
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[aws.ToString(params.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: params.Name, Value: aws.String(v)}}, nil
}

func (f *fakeSSM) PutParameter(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.puts = append(f.puts, params)
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[aws.ToString(params.Name)] = aws.ToString(params.Value)
	return &ssm.PutParameterOutput{Version: 1}, nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{})
}

func resolverWith(store ParameterStore, factoryErr error, calls *int) *Resolver {
	return NewResolverWithFactory(func(context.Context) (ParameterStore, error) {
		if calls != nil {
			*calls++
		}
		return store, factoryErr
	}, testLogger())
}

func TestSSMStore_GetParameter(t *testing.T) {
	store := NewSSMStoreWithClient(&fakeSSM{values: map[string]string{"/quiz/key": "sk-abc"}})

	value, err := store.GetParameter(context.Background(), "/quiz/key")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", value)

	_, err = store.GetParameter(context.Background(), "/quiz/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrNotFound)
}

func TestSSMStore_GetParameterFailure(t *testing.T) {
	store := NewSSMStoreWithClient(&fakeSSM{getErr: errors.New("access denied")})

	_, err := store.GetParameter(context.Background(), "/quiz/key")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeSecretUnavailable, contextutils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "access denied")
}

func TestSSMStore_PutParameterWritesSecureString(t *testing.T) {
	client := &fakeSSM{}
	store := NewSSMStoreWithClient(client)

	require.NoError(t, store.PutParameter(context.Background(), "/quiz/key", "sk-new"))
	require.Len(t, client.puts, 1)
	assert.Equal(t, types.ParameterTypeSecureString, client.puts[0].Type)
	assert.True(t, aws.ToBool(client.puts[0].Overwrite))
	assert.Equal(t, "sk-new", client.values["/quiz/key"])
}

func TestResolveAPIKey_ConfigWins(t *testing.T) {
	calls := 0
	r := resolverWith(nil, errors.New("should not be called"), &calls)

	res, err := r.ResolveAPIKey(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, APIKey: "  sk-config  "})
	require.NoError(t, err)
	assert.Equal(t, "sk-config", res.Value)
	assert.Equal(t, SourceConfig, res.Source)
	assert.Zero(t, calls)
}

func TestResolveAPIKey_FallsBackToParameterStore(t *testing.T) {
	calls := 0
	store := NewSSMStoreWithClient(&fakeSSM{values: map[string]string{"/quiz/key": "sk-from-ssm-1234"}})
	r := resolverWith(store, nil, &calls)

	aiCfg := config.AIConfig{Provider: config.ProviderOpenAI, APIKeyParameter: "/quiz/key"}
	res, err := r.ResolveAPIKey(context.Background(), aiCfg)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-ssm-1234", res.Value)
	assert.Equal(t, SourceParameterStore, res.Source)
	assert.Equal(t, "/quiz/key", res.Parameter)
	assert.NotContains(t, res.Masked(), "from-ssm")

	_, err = r.ResolveAPIKey(context.Background(), aiCfg)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "store is created once")
}

func TestResolveAPIKey_Failures(t *testing.T) {
	tests := []struct {
		name       string
		store      ParameterStore
		factoryErr error
		aiCfg      config.AIConfig
	}{
		{
			name:  "no parameter name",
			store: NewSSMStoreWithClient(&fakeSSM{}),
			aiCfg: config.AIConfig{},
		},
		{
			name:       "store unavailable",
			factoryErr: errors.New("no credentials"),
			aiCfg:      config.AIConfig{APIKeyParameter: "/quiz/key"},
		},
		{
			name:  "parameter missing",
			store: NewSSMStoreWithClient(&fakeSSM{}),
			aiCfg: config.AIConfig{APIKeyParameter: "/quiz/key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolverWith(tt.store, tt.factoryErr, nil)
			_, err := r.ResolveAPIKey(context.Background(), tt.aiCfg)
			require.Error(t, err)
			assert.Equal(t, contextutils.ErrorCodeAIConfigInvalid, contextutils.GetErrorCode(err))
		})
	}
}

func TestPutAPIKey(t *testing.T) {
	client := &fakeSSM{}
	r := resolverWith(NewSSMStoreWithClient(client), nil, nil)
	aiCfg := config.AIConfig{APIKeyParameter: "/quiz/key"}

	err := r.PutAPIKey(context.Background(), aiCfg, "   ")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeMissingRequired, contextutils.GetErrorCode(err))

	require.NoError(t, r.PutAPIKey(context.Background(), aiCfg, "sk-put\n"))
	assert.Equal(t, "sk-put", client.values["/quiz/key"])
}
