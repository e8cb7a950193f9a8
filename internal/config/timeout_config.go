package config

import "time"

type TimeoutConfig interface {
	GetBootstrapTimeout() time.Duration
	GetRefreshTimeout() time.Duration
	GetRequestTimeout() time.Duration
}

type Timeouts struct{}

var _ TimeoutConfig = Timeouts{}

// GetBootstrapTimeout bounds startup credential validation; the session
// watchdog forces a resolution at this bound.
func (Timeouts) GetBootstrapTimeout() time.Duration {
	return 10 * time.Second
}

func (Timeouts) GetRefreshTimeout() time.Duration {
	return 45 * time.Second
}

func (Timeouts) GetRequestTimeout() time.Duration {
	return 30 * time.Second
}
