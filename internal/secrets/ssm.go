package secrets

import (
	"context"
	"errors"

	"devopsquiz/internal/config"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"go.opentelemetry.io/otel/attribute"
)

// SSMAPI is the subset of the SSM client used by SSMStore
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMStore reads and writes SecureString parameters in AWS Systems Manager
type SSMStore struct {
	client SSMAPI
}

// NewSSMStore builds an SSM client from the default AWS credential chain
func NewSSMStore(ctx context.Context, cfg config.AWSConfig) (*SSMStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrSecretUnavailable, "failed to load aws config: %w", err)
	}

	client := ssm.NewFromConfig(awsCfg, func(o *ssm.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewSSMStoreWithClient(client), nil
}

// NewSSMStoreWithClient wraps an existing client
func NewSSMStoreWithClient(client SSMAPI) *SSMStore {
	return &SSMStore{client: client}
}

// GetParameter returns the decrypted value of a parameter
func (s *SSMStore) GetParameter(ctx context.Context, name string) (result string, err error) {
	ctx, span := observability.TraceSecretsFunction(ctx, "ssm_get_parameter", attribute.String("secrets.parameter", name))
	defer observability.FinishSpan(span, &err)

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", contextutils.WrapErrorf(contextutils.ErrNotFound, "parameter %s not found", name)
		}
		return "", contextutils.WrapErrorf(contextutils.ErrSecretUnavailable, "failed to read parameter %s: %w", name, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", contextutils.WrapErrorf(contextutils.ErrSecretUnavailable, "parameter %s has no value", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// PutParameter stores value as an encrypted SecureString, replacing any previous version
func (s *SSMStore) PutParameter(ctx context.Context, name, value string) (err error) {
	ctx, span := observability.TraceSecretsFunction(ctx, "ssm_put_parameter", attribute.String("secrets.parameter", name))
	defer observability.FinishSpan(span, &err)

	_, err = s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrSecretUnavailable, "failed to write parameter %s: %w", name, err)
	}
	return nil
}
