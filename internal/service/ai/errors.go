package ai

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a successful response carries no
// usable reply (no choices, or a choice without a message).
var ErrMalformedResponse = errors.New("malformed provider response: missing choices or message")

// ProviderError is a non-success HTTP answer from the provider. Body is the
// verbatim response payload; Detail is its "error" field when present.
type ProviderError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *ProviderError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = e.Body
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, detail)
}
