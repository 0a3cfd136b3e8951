// Package push holds the Web Push primitives shared by the registrar and the
// reminder dispatcher.
package push

import (
	"encoding/base64"
	"time"
)

// Keys are the base64 encoded key materials a browser hands out with a
// subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one device registration owned by one account.
type Subscription struct {
	ID        string    `json:"id"`
	AccountID string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the subscription carries everything needed for delivery.
func (s Subscription) Valid() bool {
	return s.Endpoint != "" && s.Keys.P256dh != "" && s.Keys.Auth != ""
}

// EncodeKey base64 encodes raw key material the way browsers serialize it.
func EncodeKey(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
