package sleeper

import "time"

const (
	providerName       = "sleeper"
	defaultBaseURL     = "https://api.sleeper.app/v1"
	defaultSport       = "nfl"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512
)
