package hype

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrEmptyResponse is returned when the model produced nothing usable
	ErrEmptyResponse = errors.New("empty hype response")
)

// classify maps SDK errors onto the package sentinels.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
