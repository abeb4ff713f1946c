package gtasks

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	tasks "google.golang.org/api/tasks/v1"
)

func TestWrapAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "401 maps to auth",
			err:  &googleapi.Error{Code: 401, Message: "Invalid Credentials"},
			want: ErrAuth,
		},
		{
			name: "403 maps to auth",
			err: &googleapi.Error{Code: 403, Message: "Forbidden", Errors: []googleapi.ErrorItem{
				{Reason: "insufficientPermissions"},
			}},
			want: ErrAuth,
		},
		{
			name: "403 rate limit maps to network",
			err: &googleapi.Error{Code: 403, Message: "Rate Limit Exceeded", Errors: []googleapi.ErrorItem{
				{Reason: "rateLimitExceeded"},
			}},
			want: ErrNetwork,
		},
		{
			name: "500 maps to network",
			err:  &googleapi.Error{Code: 500, Message: "Backend Error"},
			want: ErrNetwork,
		},
		{
			name: "503 maps to network",
			err:  &googleapi.Error{Code: 503},
			want: ErrNetwork,
		},
		{
			name: "dial failure maps to network",
			err:  &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			want: ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapAPIError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapAPIError(%v) = %v, want errors.Is %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapAPIError_ClientErrorsPassThrough(t *testing.T) {
	err := wrapAPIError(&googleapi.Error{Code: 400, Message: "Bad Request"})
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrNetwork) {
		t.Errorf("400 should not map to a sentinel, got %v", err)
	}
}

func TestWrapAPIError_KeepsOriginal(t *testing.T) {
	orig := &googleapi.Error{Code: 401}
	wrapped := fmt.Errorf("failed to list remote tasks: %w", wrapAPIError(orig))

	if !errors.Is(wrapped, ErrAuth) {
		t.Error("sentinel lost through wrapping")
	}
	var apiErr *googleapi.Error
	if !errors.As(wrapped, &apiErr) {
		t.Error("original googleapi.Error lost through wrapping")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&googleapi.Error{Code: 404}) {
		t.Error("404 should be not-found")
	}
	if IsNotFound(&googleapi.Error{Code: 401}) {
		t.Error("401 should not be not-found")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("plain error should not be not-found")
	}
}

func TestUpdatedTime(t *testing.T) {
	ts := time.Date(2025, 11, 2, 10, 30, 0, 0, time.UTC)

	got := UpdatedTime(&tasks.Task{Updated: ts.Format(time.RFC3339)})
	if !got.Equal(ts) {
		t.Errorf("UpdatedTime = %v, want %v", got, ts)
	}

	if !UpdatedTime(nil).IsZero() {
		t.Error("nil task should yield zero time")
	}
	if !UpdatedTime(&tasks.Task{}).IsZero() {
		t.Error("missing updated should yield zero time")
	}
	if !UpdatedTime(&tasks.Task{Updated: "yesterday"}).IsZero() {
		t.Error("malformed updated should yield zero time")
	}
}
