package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Transport opens a single GET connection for a request.
type Transport interface {
	Open(ctx context.Context, req Request) (Conn, error)
}

// Conn is an open connection owned by exactly one in-flight fetch.
// Body yields the success stream for StatusOK and the error stream otherwise.
type Conn interface {
	StatusCode() int
	Body() io.Reader
	Close() error
}

// ErrorFunc receives the terminal failure of a request.
type ErrorFunc func(err error)

// CompletedFunc receives the status code and fully buffered body of a request.
type CompletedFunc func(statusCode int, body []byte)

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
