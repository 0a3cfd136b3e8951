package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/studiofisyo/ledger/internal/registrar"
)

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Enroll or remove a device push subscription",
	Long: `Registers a subscription that was created on a device (endpoint plus keys)
for the account of the given token, through the reminders service API.`,
}

var subFlags struct {
	endpoint  string
	p256dh    string
	auth      string
	serverKey string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Store a device subscription for the token's account",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRegistrar(true)
		if err != nil {
			return err
		}
		sub, err := r.Subscribe(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s registered for %s\n", sub.ID, sub.AccountID)
		return nil
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Delete a device subscription of the token's account",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRegistrar(false)
		if err != nil {
			return err
		}
		if err := r.Unsubscribe(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Subscription removed")
		return nil
	},
}

func newRegistrar(withKeys bool) (*registrar.Registrar, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.API.Token == "" {
		return nil, errors.New("api.token is required (FISYO_API_TOKEN)")
	}
	account, err := tokenSubject(cfg.API.Token)
	if err != nil {
		return nil, err
	}

	raw := registrar.RawSubscription{Endpoint: subFlags.endpoint}
	if withKeys {
		if raw.P256dh, err = decodeKey("p256dh", subFlags.p256dh); err != nil {
			return nil, err
		}
		if raw.Auth, err = decodeKey("auth", subFlags.auth); err != nil {
			return nil, err
		}
	}

	serverKey := subFlags.serverKey
	if serverKey == "" {
		serverKey = cfg.VAPID.PublicKey
	}

	client := registrar.NewAPIClient(cfg.API.Token, registrar.WithBaseURL(cfg.API.URL))
	return registrar.New(registrar.NewStaticPlatform(raw), client, account, serverKey)
}

// tokenSubject reads the account ID for display only; the server verifies
// the token.
func tokenSubject(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse api token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("api token has no subject")
	}
	return claims.Subject, nil
}

// decodeKey accepts both the standard and the URL-safe base64 alphabets,
// padded or not.
func decodeKey(name, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("--%s is required", name)
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("--%s is not valid base64", name)
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, unregisterCmd} {
		c.Flags().StringVar(&subFlags.endpoint, "endpoint", "", "push service endpoint URL")
		c.Flags().StringVar(&subFlags.serverKey, "server-key", "", "VAPID public key (default vapid.public_key)")
		_ = c.MarkFlagRequired("endpoint")
		subscriptionCmd.AddCommand(c)
	}
	registerCmd.Flags().StringVar(&subFlags.p256dh, "p256dh", "", "device public key, base64")
	registerCmd.Flags().StringVar(&subFlags.auth, "auth", "", "device auth secret, base64")

	rootCmd.AddCommand(subscriptionCmd)
}
