package arm

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crmarques/declarm/faults"
)

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func authError(message string, cause error) error {
	return faults.NewTypedError(faults.AuthError, message, cause)
}

func transportError(message string, cause error) error {
	return faults.NewTypedError(faults.TransportError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}

// classifyStatusError maps an HTTP error status to an error category,
// carrying the backend's own error message when the body has one.
func classifyStatusError(status int, body []byte) error {
	message := fmt.Sprintf("remote request failed with status %d", status)
	if detail := remoteErrorMessage(body); detail != "" {
		message += ": " + detail
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return authError(message, nil)
	case status == http.StatusNotFound:
		return faults.NewTypedError(faults.NotFoundError, message, nil)
	case status == http.StatusConflict:
		return faults.NewTypedError(faults.ConflictError, message, nil)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return transportError(message, nil)
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return validationError(message, nil)
	default:
		return internalError(message, nil)
	}
}

type remoteErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// remoteErrorMessage extracts the error text from an ARM error body, which
// nests it under "error" for resource operations but inlines it on some
// operation-status documents.
func remoteErrorMessage(body []byte) string {
	var decoded remoteErrorBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}

	code, message := decoded.Error.Code, decoded.Error.Message
	if code == "" && message == "" {
		code, message = decoded.Code, decoded.Message
	}
	switch {
	case code != "" && message != "":
		return code + ": " + message
	case message != "":
		return message
	case code != "":
		return code
	default:
		return ""
	}
}
