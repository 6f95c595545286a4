package anyix

import "github.com/pkg/errors"

var (
	ErrUntrustedProgram         = errors.New("untrusted program")
	ErrInstructionCountMismatch = errors.New("unexpected instruction count")
	ErrAccountResolution        = errors.New("account resolution failure")
)
