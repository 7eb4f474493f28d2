package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/elys-network/curveamm/internal/types"
)

var (
	badRequestErrors = []error{
		types.ErrInvalidPoolConfig,
		types.ErrInvalidAmount,
		types.ErrAssetCountMismatch,
		types.ErrInvalidIndex,
		types.ErrDuplicateAsset,
		types.ErrInvalidActorID,
		types.ErrInvalidInitMessage,
		types.ErrUnknownRequest,
	}
	unprocessableErrors = []error{
		types.ErrSolver,
		types.ErrInvariantNotIncreased,
		types.ErrSlippage,
		types.ErrInsufficientBalance,
		types.ErrInsufficientOutput,
		types.ErrEmptyPool,
	}
)

// StatusFor maps an operation error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrCompensationFailed):
		return http.StatusInternalServerError
	case errors.Is(err, types.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range unprocessableErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}
