package gtasks

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrAuth indicates the access token was rejected by the remote
	// service. The caller should refresh credentials and retry once.
	ErrAuth = errors.New("remote rejected credentials")

	// ErrNetwork indicates a transport-level failure or a server-side
	// error. The current sync pass should be aborted; the next scheduled
	// trigger retries.
	ErrNetwork = errors.New("remote unreachable")
)

// wrapAPIError maps a Google API error onto the package's sentinel errors
// so callers can use errors.Is without importing googleapi.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return errors.Join(ErrAuth, err)
		case apiErr.Code == http.StatusForbidden:
			// 403 covers both revoked/insufficient credentials and quota
			// exhaustion. Refreshing a token does nothing for a quota
			// error, so those wait for the next trigger instead.
			if isRateLimited(apiErr) {
				return errors.Join(ErrNetwork, err)
			}
			return errors.Join(ErrAuth, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return errors.Join(ErrNetwork, err)
		default:
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	// Anything that never produced an HTTP response: DNS, refused
	// connection, TLS failure.
	return errors.Join(ErrNetwork, err)
}

// isRateLimited reports whether a 403 carries a quota or rate-limit reason.
func isRateLimited(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded",
			"quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is an HTTP 404 from the remote service.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
