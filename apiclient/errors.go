package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Machine-readable error categories carried by Error.Code. HTTP failures use
// an "HTTP_<status>" code unless the server's error body supplies its own.
const (
	CodeTimeout = "TIMEOUT"
	CodeNetwork = "NETWORK_ERROR"
	CodeUnknown = "UNKNOWN_ERROR"
)

// Error is the single classified failure surfaced by Client for a logical
// call. StatusCode is 0 for failures that never produced an HTTP response.
type Error struct {
	Message    string
	StatusCode int
	Code       string
	Details    json.RawMessage
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNetwork reports a transport-level failure that never reached the server.
func (e *Error) IsNetwork() bool { return e.StatusCode == 0 }

// IsAuth reports an authentication or authorization rejection.
func (e *Error) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsServer reports a server-side failure.
func (e *Error) IsServer() bool { return e.StatusCode >= 500 }

// IsTimeout reports that an attempt exceeded its time budget.
func (e *Error) IsTimeout() bool { return e.Code == CodeTimeout }

// IsNetworkError reports whether err is a classified transport failure.
func IsNetworkError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNetwork()
}

// IsAuthError reports whether err is a classified 401/403.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

// IsServerError reports whether err is a classified 5xx.
func IsServerError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsServer()
}

// IsTimeoutError reports whether err is a classified attempt timeout.
func IsTimeoutError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsTimeout()
}

// errorBody is the wire shape PropSight error responses may take. Detail is
// sniffed separately because it arrives as a string, an object, or an array
// of validation items depending on the endpoint.
type errorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Detail  json.RawMessage `json:"detail"`
}

type detailObject struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type validationItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

// classifyResponse builds the classified error for a non-success HTTP status,
// deriving a human-readable message from the response body when possible.
// It is a pure function so the shape sniffing stays independently testable.
func classifyResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{
		StatusCode: statusCode,
		Code:       fmt.Sprintf("HTTP_%d", statusCode),
		Message:    fmt.Sprintf("request failed with status %d", statusCode),
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return apiErr
	}
	apiErr.Details = json.RawMessage(body)

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Not JSON; treat the raw body as the message.
		apiErr.Message = trimmed
		return apiErr
	}

	if parsed.Code != "" {
		apiErr.Code = parsed.Code
	}
	if msg := messageFromBody(parsed); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}

// messageFromBody tries each known error-body shape in order: top-level
// message, string detail, object detail, then an array of validation items
// flattened into one line.
func messageFromBody(parsed errorBody) string {
	if parsed.Message != "" {
		return parsed.Message
	}
	if len(parsed.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(parsed.Detail, &s); err == nil {
		return s
	}

	var obj detailObject
	if err := json.Unmarshal(parsed.Detail, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	var items []validationItem
	if err := json.Unmarshal(parsed.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			msg := it.Message
			if msg == "" {
				msg = it.Msg
			}
			if msg == "" {
				continue
			}
			if it.Field != "" {
				msg = it.Field + ": " + msg
			}
			parts = append(parts, msg)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return ""
}
