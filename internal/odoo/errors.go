package odoo

import "fmt"

const (
	CodeUnreachable  = "E_ODOO_UNREACHABLE"
	CodeAuthInvalid  = "E_AUTH_INVALID"
	CodeRateLimited  = "E_RATE_LIMITED"
	CodeServerError  = "E_SERVER_ERROR"
	CodeNotFound     = "E_NOT_FOUND"
	CodeBadResponse  = "E_BAD_RESPONSE"
	CodeLoginTimeout = "E_LOGIN_TIMEOUT"
)

// Error wraps Odoo client failures with retryability hints.
type Error struct {
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error         { return e.Err }
func (e *Error) CodeValue() string     { return e.Code }
func (e *Error) RetryableStatus() bool { return e.Retryable }

func wrapError(code string, retryable bool, err error) *Error {
	if err == nil {
		return &Error{Code: code, Retryable: retryable}
	}
	return &Error{Code: code, Retryable: retryable, Err: err}
}

// ServerError is a fault reported by the Odoo server inside a JSON-RPC
// response envelope. The HTTP exchange itself succeeded.
type ServerError struct {
	RPCCode int
	Name    string
	Message string
	Debug   string
}

func (e *ServerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("odoo: %s: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("odoo: rpc error %d: %s", e.RPCCode, e.Message)
}

// HTTPError is a non-2xx response from the Odoo HTTP endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true if this is a rate limit error.
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true if this is a server error.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsRetryable reports whether err is worth retrying: transport-level
// failures and 429/5xx responses. Faults raised by the Odoo application
// itself (access errors, validation errors) are never retried.
func IsRetryable(err error) bool {
	switch e := err.(type) {
	case *HTTPError:
		return e.IsRateLimited() || e.IsServerError()
	case *Error:
		return e.Retryable
	}
	return false
}
