package broker

import (
	"github.com/jmehdipour/sms-broker/internal/model"
)

// Result describes what the gateway answered to a single send.
// StatusCode is zero when the request never got a response.
type Result struct {
	MessageID  string
	StatusCode int
	Body       string
}

// Accepted reports whether the gateway answered with a 2xx status.
func (r Result) Accepted() bool {
	return r.StatusCode/100 == 2
}

// Status maps the result onto the audit status. A transport failure
// must be reported by the caller as model.StatusFailed.
func (r Result) Status() model.MessageStatus {
	if r.Accepted() {
		return model.StatusSent
	}
	return model.StatusRejected
}

// TransportError is returned when the request did not produce an HTTP
// response at all: connection refused, DNS, TLS, timeout or too many
// redirects. Its message is the message of the underlying cause.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
