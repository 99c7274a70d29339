package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

const maxErrorMessage = 200

// APIError is a non-2xx answer from the identity service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity: %d: %s", e.Status, e.Message)
}

// Unwrap maps auth statuses to the shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return common.ErrUnavailable
	}
	return nil
}

// IsAPIError reports whether err carries an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		ErrorCode        string `json:"error_code"`
		Code             any    `json:"code"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Message = http.StatusText(status)
		return e
	}

	e.Code = payload.ErrorCode
	if e.Code == "" {
		if s, ok := payload.Code.(string); ok {
			e.Code = s
		} else {
			e.Code = payload.Error
		}
	}

	for _, m := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
		if m != "" {
			e.Message = summarizeErrorMessage(m)
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// summarizeErrorMessage keeps a message short and drops anything that looks
// like a token so credentials never end up in logs or on screen.
func summarizeErrorMessage(msg string) string {
	fields := strings.Fields(msg)
	for i, f := range fields {
		if looksLikeToken(f) {
			fields[i] = "[redacted]"
		}
	}
	out := strings.Join(fields, " ")
	if len(out) > maxErrorMessage {
		out = out[:maxErrorMessage] + "..."
	}
	return out
}

func looksLikeToken(s string) bool {
	s = strings.Trim(s, `"'.,;:()[]{}`)
	if strings.Count(s, ".") == 2 && strings.HasPrefix(s, "eyJ") {
		return true
	}
	return len(s) >= 32 && !strings.ContainsAny(s, " /")
}
