package pipeline

import (
	"encoding/json"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
)

// structuredError covers the error bodies the backend and common proxies produce.
type structuredError struct {
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

// toAPIError converts a status >= 400 response into an *errors.APIError,
// preferring a human readable message from a structured body.
func toAPIError(resp *Response) error {
	var body structuredError
	message := ""
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &body) == nil {
		switch {
		case body.Message != "":
			message = body.Message
		case body.ErrorDescription != "":
			message = body.ErrorDescription
		case body.Error != "":
			message = body.Error
		}
	}
	return apperrors.NewAPIError(resp.Status, message, resp.Body)
}

// settle turns a final response into the caller's outcome.
func settle(resp *Response) (*Response, error) {
	if !resp.OK() {
		return nil, toAPIError(resp)
	}
	return resp, nil
}
