package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Upstream service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrArtistNotFound     = fmt.Errorf("artist not found")
	ErrNoSimilarArtists   = fmt.Errorf("no similar artists returned")

	// Workflow errors
	ErrNoSelection   = fmt.Errorf("no artists selected")
	ErrSearchRunning = fmt.Errorf("search already in progress")
	ErrStopped       = fmt.Errorf("search stopped")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
