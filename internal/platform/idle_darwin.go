package platform

import (
	"time"

	"gazeguard/internal/core/coordinator"
)

type idleProvider struct{}

func newIdleProvider() IdleProvider {
	return &idleProvider{}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	return 0, coordinator.ErrIdleUnsupported
}
