package config

import "time"

type HTTPConfig interface {
	GetRequestTimeout() time.Duration
}

type HTTP struct {
	source
}

var _ HTTPConfig = HTTP{}

func (h HTTP) GetRequestTimeout() time.Duration {
	timeout, err := time.ParseDuration(h.get("REQUEST_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}
