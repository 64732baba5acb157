package httpclient

import (
	"context"
	"errors"
	"testing"
)

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

type mockClient struct {
	status int
	body   string
	err    error
	calls  int
}

func (m *mockClient) Get(context.Context, string, map[string]string) (Response, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return mockResponse{body: []byte(m.body), statusCode: m.status}, nil
}

type point struct {
	X int `json:"x"`
}

func TestAPIDecodesOKBody(t *testing.T) {
	client := &mockClient{status: 200, body: `{"x":1}`}

	var got []point
	API(context.Background(), client, "http://example.com/p", func(err error) {
		t.Fatalf("unexpected error: %v", err)
	}, func(p point) {
		got = append(got, p)
	})

	if len(got) != 1 || got[0].X != 1 {
		t.Fatalf("expected one completion with x=1, got %+v", got)
	}
}

func TestAPIReportsStatusWithoutDecoding(t *testing.T) {
	client := &mockClient{status: 404, body: "not json"}

	var errs []error
	API(context.Background(), client, "http://example.com/p", func(err error) {
		errs = append(errs, err)
	}, func(point) {
		t.Fatalf("onCompleted must not fire for non-OK status")
	})

	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	var statusErr *StatusError
	if !errors.As(errs[0], &statusErr) || statusErr.Code != 404 {
		t.Fatalf("expected StatusError 404, got %v", errs[0])
	}
	if errs[0].Error() != "404" {
		t.Fatalf("expected error message 404, got %q", errs[0].Error())
	}
	var decodeErr *DecodeError
	if errors.As(errs[0], &decodeErr) {
		t.Fatalf("body must not be decoded for non-OK status")
	}
}

func TestAPIReportsParseError(t *testing.T) {
	client := &mockClient{status: 200, body: "not json"}

	var errs []error
	API(context.Background(), client, "http://example.com/p", func(err error) {
		errs = append(errs, err)
	}, func(point) {
		t.Fatalf("onCompleted must not fire for malformed body")
	})

	var decodeErr *DecodeError
	if len(errs) != 1 || !errors.As(errs[0], &decodeErr) {
		t.Fatalf("expected one DecodeError, got %v", errs)
	}
}

func TestAPIForwardsTransportErrorVerbatim(t *testing.T) {
	cause := errors.New("dns failure")
	client := &mockClient{err: cause}

	var errs []error
	API(context.Background(), client, "http://example.com/p", func(err error) {
		errs = append(errs, err)
	}, func(point) {
		t.Fatalf("onCompleted must not fire on transport error")
	})

	if len(errs) != 1 || errs[0] != cause {
		t.Fatalf("expected transport error forwarded as-is, got %v", errs)
	}
}

func TestGetJSONThroughFetcher(t *testing.T) {
	tr := &fakeTransport{status: 200, body: []byte(`{"x":42}`)}
	f := New(WithTransport(tr))

	got, err := GetJSON[point](context.Background(), f, "http://example.com/p")
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.X != 42 {
		t.Fatalf("expected x=42, got %+v", got)
	}
	if tr.closes.Load() != 1 {
		t.Fatalf("expected connection closed once, got %d", tr.closes.Load())
	}
}

func TestGetJSONNilClient(t *testing.T) {
	if _, err := GetJSON[point](context.Background(), nil, "http://example.com"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestAPIReplacesInvalidUTF8BeforeDecoding(t *testing.T) {
	client := &mockClient{status: 200, body: "{\"s\":\"a\xffb\"}"}

	var got []string
	API(context.Background(), client, "http://example.com/s", func(err error) {
		t.Fatalf("unexpected error: %v", err)
	}, func(v struct {
		S string `json:"s"`
	}) {
		got = append(got, v.S)
	})

	if len(got) != 1 || got[0] != "a�b" {
		t.Fatalf("expected one completion with replacement char, got %q", got)
	}
}
