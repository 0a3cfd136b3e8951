package push

import (
	"errors"
	"fmt"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
)

var ErrMissingVAPID = errors.New("vapid credentials are not configured")

// VAPID identifies this application to push services.
type VAPID struct {
	Subject    string `json:"subject" mapstructure:"subject"`
	PublicKey  string `json:"public_key" mapstructure:"public_key"`
	PrivateKey string `json:"private_key" mapstructure:"private_key"`
}

// Validate fails when any of the three values is missing.
func (v VAPID) Validate() error {
	var missing []string
	if v.Subject == "" {
		missing = append(missing, "subject")
	}
	if v.PublicKey == "" {
		missing = append(missing, "public_key")
	}
	if v.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingVAPID, strings.Join(missing, ", "))
	}
	if !strings.HasPrefix(v.Subject, "mailto:") && !strings.HasPrefix(v.Subject, "https:") {
		return fmt.Errorf("vapid subject must be a mailto: or https: URI, got %q", v.Subject)
	}
	return nil
}

// GenerateVAPIDKeys returns a fresh base64url encoded P-256 key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate vapid keys: %w", err)
	}
	return publicKey, privateKey, nil
}
