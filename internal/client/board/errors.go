package board

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophboard/internal/common"
)

// APIError is a non-2xx answer from the data API.
type APIError struct {
	Status  int
	Code    string
	Message string
	Hint    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("board: %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return common.ErrUnavailable
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Code    string `json:"code"`
		Error   string `json:"error"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	}
	_ = json.Unmarshal(body, &payload)

	e := &APIError{Status: status, Code: payload.Code, Hint: payload.Hint}
	switch {
	case payload.Error != "":
		e.Message = payload.Error
	case payload.Message != "":
		e.Message = payload.Message
	case payload.Hint != "":
		e.Message = payload.Hint
	default:
		e.Message = http.StatusText(status)
	}
	return e
}
