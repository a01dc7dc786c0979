// Package resilience implements the fabric's retry policy evaluator, circuit
// breaker state machine, retry orchestrator, degraded-service handler, and
// error taxonomy shared by every resilient RPC proxy and the authenticated
// broker client.
package resilience

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Category is the small classification set every transport or application
// failure is reduced to before a retry policy or circuit breaker looks at it.
type Category int

const (
	CategoryNetwork Category = iota
	CategoryAuthentication
	CategoryRateLimit
	CategoryInvalidRequest
	CategoryServer
	CategoryTimeout
	CategoryModelNotFound
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryNetwork:
		return "Network"
	case CategoryAuthentication:
		return "Authentication"
	case CategoryRateLimit:
		return "RateLimit"
	case CategoryInvalidRequest:
		return "InvalidRequest"
	case CategoryServer:
		return "Server"
	case CategoryTimeout:
		return "Timeout"
	case CategoryModelNotFound:
		return "ModelNotFound"
	default:
		return "Other"
	}
}

// DefaultRetryableCategories is the default retryable set: Network, Timeout,
// RateLimit, and Server. Authentication and InvalidRequest are never retried
// by default.
func DefaultRetryableCategories() map[Category]bool {
	return map[Category]bool{
		CategoryNetwork:   true,
		CategoryTimeout:   true,
		CategoryRateLimit: true,
		CategoryServer:    true,
	}
}

// Kind is the structural error kind surfaced to callers (spec §7). Unlike
// Category (used only to decide retry eligibility), Kind identifies *why*
// an operation failed for diagnostics and for the propagation policy that
// forbids retrying security/validation errors.
type Kind string

const (
	KindTransport       Kind = "Transport"
	KindTimeout         Kind = "Timeout"
	KindConnection      Kind = "Connection"
	KindSerialization   Kind = "Serialization"
	KindNotFound        Kind = "NotFound"
	KindModelNotFound   Kind = "ModelNotFound"
	KindInvalidArgument Kind = "InvalidArgument"
	KindCircuitOpen     Kind = "CircuitOpen"
	KindAuthentication  Kind = "Authentication"
	KindAuthorization   Kind = "Authorization"
	KindInternal        Kind = "Internal"
)

// Error is the fabric's structured error type. Diagnostic messages include
// the service name and a short reason; no secret material is ever embedded.
type Error struct {
	Kind    Kind
	Service string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Service != "" {
		return "[" + e.Service + "] " + string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a fabric error of the given kind.
func New(kind Kind, service, message string) *Error {
	return &Error{Kind: kind, Service: service, Message: message}
}

// Wrap constructs a fabric error wrapping an underlying cause.
func Wrap(kind Kind, service, message string, cause error) *Error {
	return &Error{Kind: kind, Service: service, Message: message, Cause: cause}
}

// ErrCircuitOpen is returned by the orchestrator when the breaker rejects a
// call without invoking the thunk. It is never itself retryable.
func ErrCircuitOpen(service string) *Error {
	return New(KindCircuitOpen, service, "circuit breaker is open")
}

// ErrDegradedMode is returned by the degraded-service handler's FailFast
// strategy.
func ErrDegradedMode(service string) *Error {
	return New(KindInternal, service, "degraded mode: fail-fast")
}

// ErrNoSuitableModel is returned when DefaultUpstream's configured upstream
// cannot be found or has no connector.
func ErrNoSuitableModel(service string) *Error {
	return New(KindModelNotFound, service, "no suitable model")
}

// Categorize classifies an error into its Category. It is deterministic:
// it dispatches on the error's structural Kind first (explicit Timeout,
// InvalidArgument, ModelNotFound, Serialization all map directly), then on
// a gRPC status code if the cause is a gRPC error, and only then falls back
// to case-insensitive substring matching against the error text. Substring
// rule order matters because the phrases overlap.
func Categorize(err error) Category {
	if err == nil {
		return CategoryOther
	}

	var fe *Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case KindTimeout:
			return CategoryTimeout
		case KindInvalidArgument:
			return CategoryInvalidRequest
		case KindModelNotFound:
			return CategoryModelNotFound
		case KindSerialization:
			return CategoryOther
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		switch st.Code() {
		case codes.Unavailable, codes.Aborted:
			return CategoryNetwork
		case codes.DeadlineExceeded:
			return CategoryTimeout
		case codes.Unauthenticated, codes.PermissionDenied:
			return CategoryAuthentication
		case codes.ResourceExhausted:
			return CategoryRateLimit
		case codes.InvalidArgument:
			return CategoryInvalidRequest
		case codes.NotFound:
			return CategoryModelNotFound
		case codes.Internal, codes.Unknown, codes.DataLoss:
			return CategoryServer
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return CategoryTimeout
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection"):
		return CategoryNetwork
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "unauthorized"):
		return CategoryAuthentication
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return CategoryRateLimit
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "bad request"):
		return CategoryInvalidRequest
	case strings.Contains(msg, "server error"), strings.Contains(msg, "internal error"):
		return CategoryServer
	default:
		return CategoryOther
	}
}

// IsRetryable reports whether err is retryable under the given retryable
// set: is_retryable(e, R) ↔ categorize(e) ∈ R.
func IsRetryable(err error, retryable map[Category]bool) bool {
	return retryable[Categorize(err)]
}
