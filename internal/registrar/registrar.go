// Package registrar links a device's push subscription to the signed-in
// account.
package registrar

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/studiofisyo/ledger/internal/push"
)

// Store persists subscriptions keyed by (account, endpoint).
type Store interface {
	UpsertSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error)
	DeleteSubscriptionByEndpoint(ctx context.Context, accountID, endpoint string) error
}

type Registrar struct {
	platform  Platform
	store     Store
	accountID string
	serverKey []byte
}

// New builds a registrar for one signed-in account. applicationServerKey is
// the base64url VAPID public key.
func New(platform Platform, store Store, accountID, applicationServerKey string) (*Registrar, error) {
	key, err := decodeServerKey(applicationServerKey)
	if err != nil {
		return nil, err
	}
	return &Registrar{
		platform:  platform,
		store:     store,
		accountID: accountID,
		serverKey: key,
	}, nil
}

func decodeServerKey(s string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidServerKey, err)
	}
	// uncompressed P-256 point
	if len(key) != 65 || key[0] != 0x04 {
		return nil, fmt.Errorf("%w: expected 65 byte uncompressed point, got %d bytes", ErrInvalidServerKey, len(key))
	}
	return key, nil
}

// Supported is false when the device lacks service worker or push support.
// Every other operation is then a no-op.
func (r *Registrar) Supported() bool {
	return r.platform != nil && r.platform.Supported()
}

func (r *Registrar) RequestPermission(ctx context.Context) (Permission, error) {
	if !r.Supported() {
		return PermissionUnsupported, nil
	}
	if p := r.platform.Permission(); p == PermissionGranted || p == PermissionDenied {
		return p, nil
	}
	p, err := r.platform.RequestPermission(ctx)
	if err != nil {
		return PermissionDefault, fmt.Errorf("request permission: %w", err)
	}
	return p, nil
}

// Subscribe creates the device subscription and upserts it for the account.
// Calling it again from the same device updates the existing row.
func (r *Registrar) Subscribe(ctx context.Context) (*push.Subscription, error) {
	if !r.Supported() {
		return nil, nil
	}
	if r.platform.Permission() != PermissionGranted {
		return nil, ErrPermissionNotGranted
	}
	if err := r.platform.Ready(ctx); err != nil {
		return nil, err
	}

	raw, err := r.platform.Subscribe(ctx, r.serverKey)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}

	stored, err := r.store.UpsertSubscription(ctx, push.Subscription{
		AccountID: r.accountID,
		Endpoint:  raw.Endpoint,
		Keys: push.Keys{
			P256dh: push.EncodeKey(raw.P256dh),
			Auth:   push.EncodeKey(raw.Auth),
		},
	})
	if err != nil {
		return nil, &DeliveryConfigError{Op: "save", Err: err}
	}
	return &stored, nil
}

// Unsubscribe cancels the local subscription and deletes the stored row for
// this endpoint and account only.
func (r *Registrar) Unsubscribe(ctx context.Context) error {
	if !r.Supported() {
		return nil
	}
	raw, err := r.platform.Subscription(ctx)
	if err != nil {
		return fmt.Errorf("read push subscription: %w", err)
	}
	if raw == nil {
		return nil
	}

	if err := r.platform.Unsubscribe(ctx); err != nil {
		return fmt.Errorf("cancel push subscription: %w", err)
	}
	if err := r.store.DeleteSubscriptionByEndpoint(ctx, r.accountID, raw.Endpoint); err != nil {
		return &DeliveryConfigError{Op: "delete", Err: err}
	}
	return nil
}

// CheckSubscription reports whether this device currently holds a
// subscription. It never calls the store.
func (r *Registrar) CheckSubscription(ctx context.Context) (bool, error) {
	if !r.Supported() {
		return false, nil
	}
	raw, err := r.platform.Subscription(ctx)
	if err != nil {
		return false, fmt.Errorf("read push subscription: %w", err)
	}
	return raw != nil, nil
}
