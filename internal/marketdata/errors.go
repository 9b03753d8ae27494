package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a structured upstream failure. Code is the Tideline error
// code when the body carried one, otherwise the HTTP status.
type APIError struct {
	Code      int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("api error %d: %s (request %s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

func decodeAPIError(status int, body []byte) error {
	var wrapped struct {
		Error struct {
			Code      int    `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil &&
		(wrapped.Error.Code != 0 || wrapped.Error.Message != "") {
		code := wrapped.Error.Code
		if code == 0 {
			code = status
		}
		return &APIError{Code: code, Message: wrapped.Error.Message, RequestID: wrapped.Error.RequestID}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Code: status, Message: msg}
}
