package registrar

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionNotGranted = errors.New("push permission not granted")
	ErrNoRegistration       = errors.New("no active service worker registration")
	ErrInvalidServerKey     = errors.New("invalid application server key")
)

// DeliveryConfigError means the store rejected the subscription write, so the
// device will not receive reminders.
type DeliveryConfigError struct {
	Op  string
	Err error
}

func (e *DeliveryConfigError) Error() string {
	return fmt.Sprintf("%s subscription: %v", e.Op, e.Err)
}

func (e *DeliveryConfigError) Unwrap() error {
	return e.Err
}
