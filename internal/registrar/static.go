package registrar

import (
	"context"
	"sync"
)

// StaticPlatform is a Platform backed by a subscription that was created
// elsewhere, e.g. exported from a device and enrolled from the command line.
// Permission is always granted and Subscribe hands back the stored
// subscription regardless of the server key.
type StaticPlatform struct {
	mu  sync.Mutex
	sub *RawSubscription
}

func NewStaticPlatform(sub RawSubscription) *StaticPlatform {
	return &StaticPlatform{sub: &sub}
}

func (p *StaticPlatform) Supported() bool {
	return true
}

func (p *StaticPlatform) Permission() Permission {
	return PermissionGranted
}

func (p *StaticPlatform) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (p *StaticPlatform) Ready(context.Context) error {
	return nil
}

func (p *StaticPlatform) Subscribe(context.Context, []byte) (*RawSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub == nil {
		return nil, ErrNoRegistration
	}
	s := *p.sub
	return &s, nil
}

func (p *StaticPlatform) Subscription(context.Context) (*RawSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub == nil {
		return nil, nil
	}
	s := *p.sub
	return &s, nil
}

func (p *StaticPlatform) Unsubscribe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sub = nil
	return nil
}
