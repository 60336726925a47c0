package extract

import (
	"errors"
	"fmt"
)

// TransportError means no response reached the client: the service is down,
// unreachable, or the connection broke mid-request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: extraction service unreachable: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectedError means the service answered with an error status. Detail
// carries the service-provided message verbatim when one was sent.
type RejectedError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: rejected (%d): %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: rejected (%d)", e.Op, e.StatusCode)
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejected reports whether err is, or wraps, a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// UserMessage turns an extraction error into the text shown to the user.
// Transport failures ask for the service to be started; rejections show the
// service's own detail.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "Cannot reach the extraction service. Start it and try again."
	}
	var re *RejectedError
	if errors.As(err, &re) {
		if re.Detail != "" {
			return re.Detail
		}
		return fmt.Sprintf("The extraction service rejected the request (status %d).", re.StatusCode)
	}
	return err.Error()
}
