package adsb

import (
	"fmt"
	"time"

	"github.com/unklstewy/planefinder/pkg/config"
)

// NewDataSource builds the client for a configured source.
func NewDataSource(src config.ADSBSource) (DataSource, error) {
	if src.BaseURL == "" {
		return nil, fmt.Errorf("source %q has no base_url", src.Name)
	}

	switch src.Type {
	case config.SourceOpenSky:
		return NewOpenSkyClient(src.BaseURL, src.Username, src.Password, src.RateLimit()), nil
	case config.SourceAirplanesLive:
		return NewAirplanesLiveClient(src.BaseURL, src.RateLimit()), nil
	default:
		return nil, fmt.Errorf("unknown ADS-B source type %q", src.Type)
	}
}

// RetryFromConfig converts file-level retry settings into a RetryConfig.
func RetryFromConfig(cfg config.RetryConfig) RetryConfig {
	rc := DefaultRetryConfig()
	rc.MaxRetries = cfg.MaxRetries
	if cfg.InitialDelaySeconds > 0 {
		rc.InitialDelay = time.Duration(cfg.InitialDelaySeconds * float64(time.Second))
	}
	if cfg.MaxDelaySeconds > 0 {
		rc.MaxDelay = time.Duration(cfg.MaxDelaySeconds * float64(time.Second))
	}
	return rc
}
