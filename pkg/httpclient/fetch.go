package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout applies to both the connect and read phases when a request sets none.
	DefaultTimeout = 5 * time.Second
	// StatusOK is the only status the typed helpers decode.
	StatusOK = http.StatusOK

	readChunkSize = 1024
)

// Request describes a single GET. The method is always GET.
type Request struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// Fetcher performs buffered GET requests over a Transport.
// It keeps no per-request state, so one Fetcher may serve concurrent calls.
type Fetcher struct {
	transport Transport
	timeout   time.Duration
	log       Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTransport replaces the default resty-backed transport.
func WithTransport(t Transport) Option {
	return func(f *Fetcher) {
		if t != nil {
			f.transport = t
		}
	}
}

// WithTimeout sets the timeout used by Get and the typed helpers.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger enables debug logging of request lifecycles.
func WithLogger(log Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// New builds a Fetcher. Without options it uses the resty transport and DefaultTimeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		transport: NewRestyTransport(),
		timeout:   DefaultTimeout,
		log:       noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch issues req, buffers the full body, and closes the connection before returning.
// The status code is not interpreted; non-OK bodies are returned as read from the error stream.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Response, error) {
	if f == nil || f.transport == nil {
		return nil, errors.New("fetcher is not initialized")
	}
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	req.Timeout = req.timeout()

	start := time.Now()
	conn, err := f.transport.Open(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", req.URL, classifyOpen(err))
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			f.log.DebugObj("connection close failed", "fetch_close", map[string]any{
				"url":   req.URL,
				"error": cerr.Error(),
			})
		}
	}()

	body, err := readBody(conn.Body())
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", req.URL, classifyRead(err))
	}

	f.log.DebugObj("fetch completed", "fetch_result", map[string]any{
		"url":        req.URL,
		"status":     conn.StatusCode(),
		"bytes":      len(body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return &bufferedResponse{statusCode: conn.StatusCode(), body: body}, nil
}

// Get performs a GET with the Fetcher's timeout, satisfying Client.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	timeout := DefaultTimeout
	if f != nil && f.timeout > 0 {
		timeout = f.timeout
	}
	return f.Fetch(ctx, Request{URL: url, Timeout: timeout, Headers: headers})
}

// Do runs the request on a worker goroutine and blocks until it finishes.
// Exactly one of onError or onCompleted is then invoked on the calling goroutine.
func (f *Fetcher) Do(ctx context.Context, url string, timeout time.Duration, onError ErrorFunc, onCompleted CompletedFunc) {
	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := f.Fetch(ctx, Request{URL: url, Timeout: timeout})
		done <- outcome{resp: resp, err: err}
	}()

	res := <-done
	if res.err != nil {
		if onError != nil {
			onError(res.err)
		}
		return
	}
	if onCompleted != nil {
		onCompleted(res.resp.StatusCode(), res.resp.Body())
	}
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	return nil
}

// readBody drains r in fixed-size chunks. On error the partial buffer is dropped.
func readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	var out bytes.Buffer
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

type bufferedResponse struct {
	statusCode int
	body       []byte
}

func (r *bufferedResponse) Body() []byte    { return r.body }
func (r *bufferedResponse) StatusCode() int { return r.statusCode }
