package plantvision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Detail     string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "plantvision status error"
	}
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("plantvision %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("plantvision %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Detail))
}

func (e *HTTPStatusError) UpstreamStatus() int    { return e.StatusCode }
func (e *HTTPStatusError) UpstreamDetail() string { return strings.TrimSpace(e.Detail) }

// classifyPredictError drives the retry loop. The classifier signals a cold
// model with 503 and that is the only status worth waiting out; every other
// failure mode is either permanent or needs the caller's attention.
func classifyPredictError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusServiceUnavailable {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: statusErr.StatusCode >= 500,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

// wrapClassifierError maps a transport failure onto the domain failure
// taxonomy. Contract violations arrive already wrapped and cancellation
// passes through untouched.
func wrapClassifierError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrContractViolation) || errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return domain.WrapError(kindForStatus(statusErr.StatusCode), operation, err)
	}

	if isTransportFailure(err) {
		return domain.WrapError(domain.ErrOffline, operation, err)
	}
	return domain.WrapError(domain.ErrUpstream, operation, err)
}

func kindForStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusServiceUnavailable:
		return domain.ErrModelLoading
	case statusCode == http.StatusRequestEntityTooLarge:
		return domain.ErrPayloadTooLarge
	case statusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	case statusCode >= 500:
		return domain.ErrServerOverload
	default:
		return domain.ErrUpstream
	}
}

// isTransportFailure covers every way a request dies without an HTTP
// response: refused connections, DNS failures, client-side timeouts.
func isTransportFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
