package messaging

import "context"

// Publisher delivers a keyed message to a broker destination fixed at
// construction time.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}
