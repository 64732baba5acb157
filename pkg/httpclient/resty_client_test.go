package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyTransportReadsSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %q", got)
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	f := New()
	resp, err := f.Get(context.Background(), srv.URL, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != "hello" {
		t.Fatalf("unexpected response status=%d body=%q", resp.StatusCode(), resp.Body())
	}
}

func TestRestyTransportReadsErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	var gotStatus int
	var gotBody string
	New().Do(context.Background(), srv.URL, time.Second, func(err error) {
		t.Fatalf("unexpected error: %v", err)
	}, func(status int, body []byte) {
		gotStatus = status
		gotBody = string(body)
	})

	if gotStatus != http.StatusNotFound || gotBody != "nope\n" {
		t.Fatalf("unexpected result status=%d body=%q", gotStatus, gotBody)
	}
}

func TestRestyTransportHeaderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	const timeout = 100 * time.Millisecond
	start := time.Now()
	_, err := New().Fetch(context.Background(), Request{URL: srv.URL, Timeout: timeout})
	elapsed := time.Since(start)

	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed > timeout+900*time.Millisecond {
		t.Fatalf("timeout reported after %v, expected close to %v", elapsed, timeout)
	}
}

func TestRestyTransportIdleBodyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("first chunk"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	const timeout = 100 * time.Millisecond
	start := time.Now()
	_, err := New().Fetch(context.Background(), Request{URL: srv.URL, Timeout: timeout})

	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > timeout+900*time.Millisecond {
		t.Fatalf("timeout reported after %v, expected close to %v", elapsed, timeout)
	}
}

func TestRestyTransportConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = New().Fetch(context.Background(), Request{URL: "http://" + addr, Timeout: time.Second})
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}
