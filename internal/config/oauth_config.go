package config

import "time"

type OAuthConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetIDTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetAuthCodeTimeout() time.Duration
	GetDeviceCodeTimeout() time.Duration
	GetDeviceCodeInterval() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (OAuth) GetIDTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (OAuth) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour
}

func (OAuth) GetAuthCodeTimeout() time.Duration {
	return 15 * time.Minute
}

func (OAuth) GetDeviceCodeTimeout() time.Duration {
	return 10 * time.Minute
}

// GetDeviceCodeInterval is the minimum polling interval devices are told
// to respect.
func (OAuth) GetDeviceCodeInterval() time.Duration {
	return 5 * time.Second
}
