package coder

import "github.com/pkg/errors"

var (
	ErrMalformedInput          = errors.New("malformed input")
	ErrTruncatedInput          = errors.Wrap(ErrMalformedInput, "truncated input")
	ErrTooShort                = errors.Wrap(ErrMalformedInput, "instruction data too short")
	ErrUnrecognizedInstruction = errors.New("unrecognized instruction")
	ErrTooManyInstructions     = errors.New("too many instructions")
	ErrDataTooLong             = errors.New("instruction data too long")
	ErrTooManyAccounts         = errors.New("too many accounts")
)
