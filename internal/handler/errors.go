package handler

import (
	"context"
	"net/http"

	"github.com/iqbalbaharum/anyix-swap/internal/anyix"
	"github.com/iqbalbaharum/anyix-swap/internal/coder"
	"github.com/iqbalbaharum/anyix-swap/internal/generators"
	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	bot "github.com/iqbalbaharum/anyix-swap/internal/library"
	"github.com/iqbalbaharum/anyix-swap/internal/rpc"
	"github.com/iqbalbaharum/anyix-swap/internal/utils"
	"github.com/pkg/errors"
)

const (
	ErrTimeout     = "request timed out"
	ErrInvalidBody = "invalid request body"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, coder.ErrMalformedInput),
		errors.Is(err, coder.ErrTruncatedInput),
		errors.Is(err, coder.ErrTooShort),
		errors.Is(err, coder.ErrUnrecognizedInstruction),
		errors.Is(err, coder.ErrTooManyInstructions),
		errors.Is(err, coder.ErrDataTooLong),
		errors.Is(err, coder.ErrTooManyAccounts),
		errors.Is(err, utils.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, jupiter.ErrRouteUnavailable):
		return http.StatusNotFound
	case errors.Is(err, anyix.ErrUntrustedProgram),
		errors.Is(err, anyix.ErrInstructionCountMismatch),
		errors.Is(err, anyix.ErrAccountResolution),
		errors.Is(err, bot.ErrSetupRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, jupiter.ErrAPI),
		errors.Is(err, rpc.ErrRPC):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, generators.ErrDisconnected):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	select {
	case <-ctx.Done():
		http.Error(w, ErrTimeout, http.StatusGatewayTimeout)
	default:
		http.Error(w, err.Error(), errorStatus(err))
	}
}
