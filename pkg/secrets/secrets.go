package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// API is the subset of the Secrets Manager client used here.
type API interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var ErrEmptySecret = errors.New("secret has no string value")

type Loader struct {
	client API
}

// NewLoader builds a loader from the default AWS credential chain.
func NewLoader(ctx context.Context) (*Loader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewLoaderWithClient(secretsmanager.NewFromConfig(cfg)), nil
}

func NewLoaderWithClient(client API) *Loader {
	return &Loader{client: client}
}

// JSON fetches the secret and decodes its string value into dst.
func (l *Loader) JSON(ctx context.Context, secretID string, dst any) error {
	out, err := l.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return fmt.Errorf("secret %s: %w", secretID, ErrEmptySecret)
	}
	if err := json.Unmarshal([]byte(*out.SecretString), dst); err != nil {
		return fmt.Errorf("failed to decode secret %s: %w", secretID, err)
	}
	return nil
}
