package lamini

import "fmt"

// Typed errors for the platform API, mapped from HTTP status codes by the
// transport. All of them unwrap cleanly with errors.As.

// AuthenticationError indicates a missing or rejected API key.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	return "lamini: authentication error: " + e.Detail
}

// RateLimitError indicates the platform rejected the request due to rate
// limiting.
type RateLimitError struct {
	Detail string
}

func (e *RateLimitError) Error() string {
	return "lamini: rate limit exceeded: " + e.Detail
}

// ModelNotFoundError indicates the requested model name is unknown to the
// platform.
type ModelNotFoundError struct {
	Detail string
}

func (e *ModelNotFoundError) Error() string {
	return "lamini: model not found: " + e.Detail
}

// UserError indicates a malformed request rejected by the platform.
type UserError struct {
	Detail string
}

func (e *UserError) Error() string {
	return "lamini: user error: " + e.Detail
}

// UnprocessableContentError indicates the platform could not process the
// request payload, typically a client/server schema mismatch.
type UnprocessableContentError struct {
	Detail string
}

func (e *UnprocessableContentError) Error() string {
	return "lamini: unprocessable content: " + e.Detail
}

// UnavailableResourceError indicates the platform is temporarily unable to
// serve the request.
type UnavailableResourceError struct {
	Detail string
}

func (e *UnavailableResourceError) Error() string {
	return "lamini: resource unavailable: " + e.Detail
}

// APIError is the generic platform error for transport failures, timeouts,
// and status codes with no dedicated type. StatusCode is zero when the
// exchange failed before a response arrived.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("lamini: api error (%d): %s", e.StatusCode, e.Detail)
	}
	return "lamini: api error: " + e.Detail
}

// errorFromStatus maps a non-200 response to its typed error.
func errorFromStatus(status int, detail string) error {
	switch status {
	case 594:
		if detail == "" {
			detail = "ModelNotFound"
		}
		return &ModelNotFoundError{Detail: detail}
	case 429:
		if detail == "" {
			detail = "RateLimitError"
		}
		return &RateLimitError{Detail: detail}
	case 401:
		if detail == "" {
			detail = "AuthenticationError"
		}
		return &AuthenticationError{Detail: detail}
	case 400:
		if detail == "" {
			detail = "UserError"
		}
		return &UserError{Detail: detail}
	case 422:
		if detail == "" {
			detail = "UnprocessableContentError"
		}
		return &UnprocessableContentError{Detail: detail}
	case 503:
		if detail == "" {
			detail = "UnavailableResourceError"
		}
		return &UnavailableResourceError{Detail: detail}
	default:
		if detail == "" {
			detail = fmt.Sprintf("status %d", status)
		}
		return &APIError{StatusCode: status, Detail: detail}
	}
}
