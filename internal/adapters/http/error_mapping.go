package httpadapter

import (
	"net/http"

	"github.com/grovelight/leafsense/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrOffline),
		domain.IsKind(err, domain.ErrModelLoading):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrServerOverload),
		domain.IsKind(err, domain.ErrContractViolation),
		domain.IsKind(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
