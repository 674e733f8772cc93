package veeva

import (
	"fmt"
	"strings"
)

// AuthError reports a failed credential exchange, carrying the upstream
// status and message verbatim.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("veeva authentication failed with status %d", e.Status)
	}
	return fmt.Sprintf("veeva authentication failed with status %d: %s", e.Status, e.Message)
}

// UpstreamError reports a non-success response from an object endpoint on the
// hard path, including the body for the caller's error message.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("veeva returned status %d: %s", e.Status, e.Body)
}

// EndpointNotFoundError means no candidate study object path answered with a
// success status. Available carries the diagnostic object listing when it
// could be fetched; it is informational only.
type EndpointNotFoundError struct {
	Tried     []string
	Available []string
}

func (e *EndpointNotFoundError) Error() string {
	msg := fmt.Sprintf("no study object endpoint found, tried: %s", strings.Join(e.Tried, ", "))
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (objects reported by the vault: %s)", strings.Join(e.Available, ", "))
	}
	return msg
}
