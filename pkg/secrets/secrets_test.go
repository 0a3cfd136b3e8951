package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type MockAPI struct {
	GetSecretValueFunc func(ctx context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *MockAPI) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.GetSecretValueFunc(ctx, in)
}

func TestLoader_JSON(t *testing.T) {
	tests := []struct {
		name    string
		out     *secretsmanager.GetSecretValueOutput
		err     error
		wantErr bool
		want    string
	}{
		{
			name: "Decodes Secret",
			out:  &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`{"subject":"mailto:ops@example.com"}`)},
			want: "mailto:ops@example.com",
		},
		{
			name:    "Empty Secret",
			out:     &secretsmanager.GetSecretValueOutput{},
			wantErr: true,
		},
		{
			name:    "Client Error",
			err:     errors.New("access denied"),
			wantErr: true,
		},
		{
			name:    "Invalid JSON",
			out:     &secretsmanager.GetSecretValueOutput{SecretString: aws.String(`not json`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			loader := NewLoaderWithClient(&MockAPI{
				GetSecretValueFunc: func(ctx context.Context, in *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error) {
					gotID = aws.ToString(in.SecretId)
					return tt.out, tt.err
				},
			})

			var dst struct {
				Subject string `json:"subject"`
			}
			err := loader.JSON(context.Background(), "fisyo/vapid", &dst)
			if gotID != "fisyo/vapid" {
				t.Errorf("Expected secret id fisyo/vapid, got %q", gotID)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if dst.Subject != tt.want {
				t.Errorf("Expected subject %q, got %q", tt.want, dst.Subject)
			}
		})
	}
}
