package spoolman

// Config holds configuration for the Spoolman client.
type Config struct {
	// URL is the base URL of the Spoolman installation.
	URL string `mapstructure:"url" default:"http://localhost:7912"`
	// Token is an optional bearer token sent with every request.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds is the per-request HTTP timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// RetryAttempts is the number of fetch attempts before giving up.
	RetryAttempts int `mapstructure:"retry_attempts" default:"3"`
	// ReconnectMaxSeconds caps the WebSocket reconnect backoff interval.
	ReconnectMaxSeconds int `mapstructure:"reconnect_max_seconds" default:"30"`
	// ReconnectGiveUpSeconds stops reconnecting after this much time without
	// a successful connection. Zero means retry forever.
	ReconnectGiveUpSeconds int `mapstructure:"reconnect_give_up_seconds" default:"0"`
}
