package resilience

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCategorize_StructuralDispatch(t *testing.T) {
	assert.Equal(t, CategoryTimeout, Categorize(New(KindTimeout, "svc", "deadline exceeded")))
	assert.Equal(t, CategoryInvalidRequest, Categorize(New(KindInvalidArgument, "svc", "bad field")))
	assert.Equal(t, CategoryModelNotFound, Categorize(New(KindModelNotFound, "svc", "no such model")))
	assert.Equal(t, CategoryOther, Categorize(New(KindSerialization, "svc", "decode failed")))
}

func TestCategorize_SubstringRules(t *testing.T) {
	cases := []struct {
		msg  string
		want Category
	}{
		{"request timed out", CategoryTimeout},
		{"connection TIMEOUT", CategoryTimeout},
		{"network unreachable", CategoryNetwork},
		{"connection refused", CategoryNetwork},
		{"authentication failed", CategoryAuthentication},
		{"Unauthorized access", CategoryAuthentication},
		{"rate limit exceeded", CategoryRateLimit},
		{"too many requests", CategoryRateLimit},
		{"invalid payload", CategoryInvalidRequest},
		{"bad request body", CategoryInvalidRequest},
		{"internal server error", CategoryServer},
		{"upstream Internal Error", CategoryServer},
		{"something unexpected", CategoryOther},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.want, Categorize(errors.New(tc.msg)))
		})
	}
}

func TestCategorize_SubstringOrderMatters(t *testing.T) {
	// "connection timeout" contains both "connection" and "timeout"; the
	// spec's ordering puts the timeout check first.
	assert.Equal(t, CategoryTimeout, Categorize(errors.New("connection timeout while dialing")))
}

func TestCategorize_GRPCStatus(t *testing.T) {
	assert.Equal(t, CategoryNetwork, Categorize(status.Error(codes.Unavailable, "down")))
	assert.Equal(t, CategoryTimeout, Categorize(status.Error(codes.DeadlineExceeded, "slow")))
	assert.Equal(t, CategoryAuthentication, Categorize(status.Error(codes.Unauthenticated, "no token")))
	assert.Equal(t, CategoryRateLimit, Categorize(status.Error(codes.ResourceExhausted, "quota")))
	assert.Equal(t, CategoryInvalidRequest, Categorize(status.Error(codes.InvalidArgument, "bad arg")))
	assert.Equal(t, CategoryModelNotFound, Categorize(status.Error(codes.NotFound, "no model")))
	assert.Equal(t, CategoryServer, Categorize(status.Error(codes.Internal, "boom")))
}

func TestIsRetryable_MatchesCategorySet(t *testing.T) {
	retryable := DefaultRetryableCategories()
	for _, msg := range []string{"network down", "request timed out", "rate limit hit", "internal error"} {
		assert.True(t, IsRetryable(errors.New(msg), retryable), msg)
	}
	for _, msg := range []string{"authentication failed", "invalid request"} {
		assert.False(t, IsRetryable(errors.New(msg), retryable), msg)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp refused")
	err := Wrap(KindConnection, "memory", "cannot connect", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "memory")
	assert.Contains(t, err.Error(), "Connection")
}
