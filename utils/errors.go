package utils

import "errors"

// Error kinds surfaced by the ingestion entry points and the dashboard.
// Callers wrap these with fmt.Errorf("...: %w") and test with errors.Is.
var (
	ErrConfig    = errors.New("configuration error")
	ErrFetch     = errors.New("fetch error")
	ErrFeedParse = errors.New("feed parse error")
	ErrStorage   = errors.New("storage error")
)
