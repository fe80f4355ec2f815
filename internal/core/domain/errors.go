package domain

import (
	"errors"
	"fmt"
)

// Failure kinds. Every transport, timeout, status and schema failure is
// wrapped in exactly one of these at the transport boundary and never
// re-interpreted downstream.
var (
	ErrContractViolation = errors.New("contract violation")
	ErrOffline           = errors.New("service offline")
	ErrServerOverload    = errors.New("server overload")
	ErrModelLoading      = errors.New("model still loading")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstream          = errors.New("upstream failure")
	ErrInvalidInput      = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Failure is the one normalized, user-facing shape every failure reduces
// to: a short message, a coarse severity, whether a retry affordance makes
// sense, and the upstream HTTP status where one existed. Callers never
// branch on the underlying transport mechanism.
type Failure struct {
	Kind       error    `json:"-"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Retryable  bool     `json:"retryable"`
	StatusCode int      `json:"status_code,omitempty"`
}

// Normalize reduces any error from the classify/metadata path to its
// Failure. Raw transport or parsing detail never becomes the message; the
// only upstream text allowed through is the service's own `detail` field
// on otherwise-unmapped statuses.
func Normalize(err error) Failure {
	f := Failure{Kind: ErrUpstream, Severity: SeverityError, Message: "Analysis failed.", Retryable: true}

	switch {
	case errors.Is(err, ErrContractViolation):
		f = Failure{Kind: ErrContractViolation, Severity: SeverityError, Message: "Unable to display result."}
	case errors.Is(err, ErrOffline):
		f = Failure{Kind: ErrOffline, Severity: SeverityError, Message: "Plant analysis service is unreachable.", Retryable: true}
	case errors.Is(err, ErrModelLoading):
		f = Failure{Kind: ErrModelLoading, Severity: SeverityWarning, Message: "The model is still loading. Try again shortly.", Retryable: true}
	case errors.Is(err, ErrServerOverload):
		f = Failure{Kind: ErrServerOverload, Severity: SeverityError, Message: "The analysis service hit an internal error.", Retryable: true}
	case errors.Is(err, ErrPayloadTooLarge):
		f = Failure{Kind: ErrPayloadTooLarge, Severity: SeverityWarning, Message: "The image is too large for the service."}
	case errors.Is(err, ErrRateLimited):
		f = Failure{Kind: ErrRateLimited, Severity: SeverityWarning, Message: "Too many requests. Wait a moment before retrying."}
	case errors.Is(err, ErrInvalidInput):
		f = Failure{Kind: ErrInvalidInput, Severity: SeverityWarning, Message: "The request was not valid."}
	case errors.Is(err, ErrUpstream):
		if detail := upstreamDetail(err); detail != "" {
			f.Message = detail
		}
	}

	if code := upstreamStatus(err); code != 0 {
		f.StatusCode = code
	}
	return f
}

func upstreamStatus(err error) int {
	var sc interface{ UpstreamStatus() int }
	if errors.As(err, &sc) {
		return sc.UpstreamStatus()
	}
	return 0
}

func upstreamDetail(err error) string {
	var dc interface{ UpstreamDetail() string }
	if errors.As(err, &dc) {
		return dc.UpstreamDetail()
	}
	return ""
}
