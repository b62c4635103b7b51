// internal/utils/errors_test.go
package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := WrapError(cause, ErrCodeTransport, "fetch failed").WithContext("url", "https://example.com")

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause must be reachable through errors.Is")
	}
	if CodeOf(err) != ErrCodeTransport {
		t.Fatalf("expected TRANSPORT_ERROR, got %s", CodeOf(err))
	}
	if err.Context["url"] != "https://example.com" {
		t.Fatalf("context lost: %+v", err.Context)
	}
}

func TestCodeOfThroughWrapping(t *testing.T) {
	inner := NewError(ErrCodeEmptyResponse, "nothing there")
	outer := fmt.Errorf("while scraping: %w", inner)

	if CodeOf(outer) != ErrCodeEmptyResponse {
		t.Fatalf("code must survive fmt wrapping, got %s", CodeOf(outer))
	}
	if CodeOf(errors.New("plain")) != ErrCodeInternal {
		t.Fatal("unknown errors default to INTERNAL_ERROR")
	}
}

func TestTransportErrorsRetryableByDefault(t *testing.T) {
	if !NewError(ErrCodeTransport, "boom").Retryable {
		t.Fatal("transport errors must default to retryable")
	}
	if !NewError(ErrCodeRateLimited, "slow down").Retryable {
		t.Fatal("rate-limit errors must default to retryable")
	}
	if NewError(ErrCodeConfiguration, "missing key").Retryable {
		t.Fatal("configuration errors are never retryable")
	}
}

func TestIsRetryableErrorPatterns(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("read tcp: ECONNRESET"), true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("context deadline exceeded (timeout)"), true},
		{errors.New("upstream returned 503"), true},
		{errors.New("upstream returned 429"), true},
		{errors.New("invalid selector syntax"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsRetryableError(tt.err); got != tt.want {
			t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
