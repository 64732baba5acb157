package httpclient

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"syscall"
)

var (
	// ErrInvalidURL reports a URL that cannot be requested.
	ErrInvalidURL = errors.New("invalid url")
	// ErrConnect reports a failure to establish the connection (refused, DNS, reset).
	ErrConnect = errors.New("connect failed")
	// ErrTimeout reports that the connect or read phase exceeded the request timeout.
	ErrTimeout = errors.New("timeout exceeded")
	// ErrRead reports an I/O failure while buffering the response body.
	ErrRead = errors.New("read body failed")
)

// StatusError is returned by the typed API helpers for non-OK responses.
// Its message is the bare status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return strconv.Itoa(e.Code) }

// DecodeError wraps a failure to decode an OK response body.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode json: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a timeout-classified fetch error.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// classified joins a sentinel with its cause so both errors.Is checks hold.
type classified struct {
	kind  error
	cause error
}

func (e *classified) Error() string   { return e.kind.Error() + ": " + e.cause.Error() }
func (e *classified) Unwrap() []error { return []error{e.kind, e.cause} }

func classify(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &classified{kind: kind, cause: cause}
}

// classifyOpen maps a transport failure to ErrTimeout or ErrConnect.
func classifyOpen(err error) error {
	if isTimeoutCause(err) {
		return classify(ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return classify(ErrConnect, err)
}

// classifyRead maps a body read failure to ErrTimeout or ErrRead.
func classifyRead(err error) error {
	if isTimeoutCause(err) {
		return classify(ErrTimeout, err)
	}
	return classify(ErrRead, err)
}

func isTimeoutCause(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ETIMEDOUT)
}
