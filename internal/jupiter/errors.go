package jupiter

import (
	"github.com/pkg/errors"
)

var (
	ErrAPI              = errors.New("jupiter api error")
	ErrRouteUnavailable = errors.New("no usable route")
)

// APIError is returned when the aggregator answers with an {"error": "..."} body.
type APIError struct {
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return "jupiter api: " + e.Message
}

func (e *APIError) Unwrap() error {
	return ErrAPI
}
