package config

import "time"

// AISConfig holds the live position feed configuration
type AISConfig struct {
	// Enabled turns the AIS ingestion client on
	Enabled bool `mapstructure:"enabled"`

	// EndpointURL is the websocket feed address
	EndpointURL string `mapstructure:"endpoint_url" validate:"omitempty,url"`

	// APIKey authenticates the subscription
	APIKey string `mapstructure:"api_key"`

	// BoundingBox is the tracked area as [minLat, minLon, maxLat, maxLon]
	BoundingBox []float64 `mapstructure:"bounding_box" validate:"omitempty,len=4"`

	// MMSIFilter narrows the subscription to the listed vessels when set
	MMSIFilter []string `mapstructure:"mmsi_filter"`

	// Reconnect backoff bounds
	ReconnectBase time.Duration `mapstructure:"reconnect_base"`
	ReconnectMax  time.Duration `mapstructure:"reconnect_max"`

	// StaleAfter drops reports whose recorded time lags ingestion by more than this
	StaleAfter time.Duration `mapstructure:"stale_after"`
}
