package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

var errReadIdle = fmt.Errorf("no body bytes within read timeout: %w", os.ErrDeadlineExceeded)

// restyTransport opens one connection per request through a dedicated resty client.
type restyTransport struct{}

// NewRestyTransport returns the default resty-backed Transport.
func NewRestyTransport() Transport { return restyTransport{} }

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// newHTTPTransport applies timeout to the dial, TLS handshake, and response header phases.
// Body reads are bounded separately by the idle timer in restyConn.
func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: timeout,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		DisableKeepAlives:     true,
	}
}

// Open issues the GET and returns the connection with its body unread.
func (restyTransport) Open(ctx context.Context, req Request) (Conn, error) {
	timeout := req.timeout()
	rt := newHTTPTransport(timeout)
	ctx, cancel := context.WithCancelCause(ctx)

	r := resty.New().SetTransport(rt).R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}

	resp, err := r.Get(req.URL)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		cancel(nil)
		rt.CloseIdleConnections()
		return nil, err
	}

	c := &restyConn{
		resp:      resp,
		transport: rt,
		cancel:    cancel,
		timeout:   timeout,
		ctx:       ctx,
	}
	c.idle = time.AfterFunc(timeout, func() { cancel(errReadIdle) })
	return c, nil
}

// restyConn adapts a resty.Response with an unread body to Conn.
type restyConn struct {
	resp      *resty.Response
	transport *http.Transport
	cancel    context.CancelCauseFunc
	idle      *time.Timer
	timeout   time.Duration
	ctx       context.Context
}

func (c *restyConn) StatusCode() int { return c.resp.StatusCode() }

// Body returns the response stream. net/http exposes a single stream for both
// success and error statuses, so the selection collapses to one reader.
func (c *restyConn) Body() io.Reader {
	if c.resp.RawBody() == nil {
		return http.NoBody
	}
	return &idleReader{conn: c, r: c.resp.RawBody()}
}

// Close releases the body, the request context, and the underlying transport.
func (c *restyConn) Close() error {
	c.idle.Stop()
	var err error
	if body := c.resp.RawBody(); body != nil {
		err = body.Close()
	}
	c.cancel(nil)
	c.transport.CloseIdleConnections()
	return err
}

// idleReader re-arms the read timeout after every read and reports idle expiry as a timeout.
type idleReader struct {
	conn *restyConn
	r    io.Reader
}

func (i *idleReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		if cause := context.Cause(i.conn.ctx); errors.Is(cause, errReadIdle) {
			return n, fmt.Errorf("%w: %w", cause, err)
		}
		return n, err
	}
	i.conn.idle.Reset(i.conn.timeout)
	return n, err
}
