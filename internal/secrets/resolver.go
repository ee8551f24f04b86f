// Package secrets resolves the completion API key from configuration or the
// AWS SSM parameter store.
package secrets

import (
	"context"
	"strings"
	"sync"

	"devopsquiz/internal/config"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"
)

// ParameterStore reads and writes named secrets
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value string) error
}

// StoreFactory lazily creates the parameter store; the AWS SDK is only
// initialised when a lookup is actually needed
type StoreFactory func(ctx context.Context) (ParameterStore, error)

// Source tells where a resolved key came from
type Source string

const (
	// SourceConfig means the key was set in config.yaml, .env or the environment
	SourceConfig Source = "config"
	// SourceParameterStore means the key was read from SSM
	SourceParameterStore Source = "parameter_store"
)

// Resolution is a resolved API key
type Resolution struct {
	Value     string
	Source    Source
	Parameter string
}

// Masked returns the key in a form safe for logs
func (r *Resolution) Masked() string {
	return contextutils.MaskAPIKey(r.Value)
}

// Resolver finds the completion API key
type Resolver struct {
	factory StoreFactory
	logger  *observability.Logger

	once     sync.Once
	store    ParameterStore
	storeErr error
}

// NewResolver creates a resolver using the SSM store for fallbacks
func NewResolver(awsCfg config.AWSConfig, logger *observability.Logger) *Resolver {
	return NewResolverWithFactory(func(ctx context.Context) (ParameterStore, error) {
		return NewSSMStore(ctx, awsCfg)
	}, logger)
}

// NewResolverWithFactory creates a resolver with a custom store factory
func NewResolverWithFactory(factory StoreFactory, logger *observability.Logger) *Resolver {
	return &Resolver{factory: factory, logger: logger}
}

// Store returns the lazily created parameter store
func (r *Resolver) Store(ctx context.Context) (ParameterStore, error) {
	r.once.Do(func() {
		r.store, r.storeErr = r.factory(ctx)
	})
	return r.store, r.storeErr
}

// ResolveAPIKey returns the configured key, falling back to the parameter store
func (r *Resolver) ResolveAPIKey(ctx context.Context, aiCfg config.AIConfig) (result *Resolution, err error) {
	ctx, span := observability.TraceSecretsFunction(ctx, "resolve_api_key", observability.AttributeProvider(aiCfg.Provider))
	defer observability.FinishSpan(span, &err)

	if key := strings.TrimSpace(aiCfg.APIKey); key != "" {
		r.logger.Debug(ctx, "Using API key from configuration", map[string]interface{}{"provider": aiCfg.Provider})
		return &Resolution{Value: key, Source: SourceConfig}, nil
	}

	name := strings.TrimSpace(aiCfg.APIKeyParameter)
	if name == "" {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIConfigInvalid, "no API key configured and no parameter name set")
	}

	store, err := r.Store(ctx)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIConfigInvalid, "no API key configured and parameter store unavailable: %w", err)
	}

	value, err := store.GetParameter(ctx, name)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIConfigInvalid, "no API key configured and parameter %s unreadable: %w", name, err)
	}

	resolution := &Resolution{Value: strings.TrimSpace(value), Source: SourceParameterStore, Parameter: name}
	r.logger.Info(ctx, "Using API key from parameter store", map[string]interface{}{
		"parameter": name,
		"key":       resolution.Masked(),
	})
	return resolution, nil
}

// PutAPIKey writes a key to the parameter store under the configured name
func (r *Resolver) PutAPIKey(ctx context.Context, aiCfg config.AIConfig, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return contextutils.WrapErrorf(contextutils.ErrMissingRequired, "API key must not be empty")
	}
	store, err := r.Store(ctx)
	if err != nil {
		return err
	}
	return store.PutParameter(ctx, aiCfg.APIKeyParameter, value)
}
