package deriv

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected   = errors.New("deriv: not connected")
	ErrClosed         = errors.New("deriv: connection closed")
	ErrRequestTimeout = errors.New("deriv: request timed out")
	ErrNoCandles      = errors.New("deriv: no candle data received")
	ErrNoProposal     = errors.New("deriv: no proposal received")
	ErrNoConfirmation = errors.New("deriv: no buy confirmation received")
)

// Server error codes that mean the credential is unusable.
const (
	CodeAuthorizationRequired = "AuthorizationRequired"
	CodeInvalidToken          = "InvalidToken"
	CodeAuthorizationFailed   = "AuthorizationFailed"
)

// APIError is the error object the server attaches to a failed response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	MsgType string         `json:"-"`
}

func (e *APIError) Error() string {
	if e.MsgType != "" {
		return fmt.Sprintf("deriv %s error %s: %s", e.MsgType, e.Code, e.Message)
	}
	return fmt.Sprintf("deriv error %s: %s", e.Code, e.Message)
}

// IsAuthError reports whether err carries an authorization-class server error.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeAuthorizationRequired, CodeInvalidToken, CodeAuthorizationFailed:
		return true
	}
	return false
}
