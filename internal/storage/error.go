package storage

import "github.com/pkg/errors"

// Error description
const (
	ErrPrepareStatement = "failed to prepare SQL statement"
	ErrExecuteStatement = "failed to execute statement"
	ErrExecuteQuery     = "failed to execute query"
	ErrScanData         = "failed to scan data"
	ErrRetrieveRows     = "failed to retrieve rows affected"
	ErrMarshal          = "failed to marshal value"
	ErrUnmarshal        = "failed to unmarshal value"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid swap record")
)
