package registrar

import "context"

type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionDefault     Permission = "default"
	PermissionUnsupported Permission = "unsupported"
)

// RawSubscription is what the platform push manager returns: the endpoint and
// the binary key materials.
type RawSubscription struct {
	Endpoint string
	P256dh   []byte
	Auth     []byte
}

// Platform is the device's push capability (service worker + push manager).
type Platform interface {
	// Supported reports whether service workers and push are available.
	Supported() bool
	Permission() Permission
	// RequestPermission shows the permission prompt.
	RequestPermission(ctx context.Context) (Permission, error)
	// Ready returns ErrNoRegistration when no service worker is active.
	Ready(ctx context.Context) error
	Subscribe(ctx context.Context, applicationServerKey []byte) (*RawSubscription, error)
	// Subscription returns the current local subscription, or nil.
	Subscription(ctx context.Context) (*RawSubscription, error)
	Unsubscribe(ctx context.Context) error
}
