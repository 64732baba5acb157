package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// GetJSON fetches url through client and decodes an OK body as JSON into T.
// Transport errors are returned unchanged, non-OK statuses as *StatusError
// and decode failures as *DecodeError.
func GetJSON[T any](ctx context.Context, client Client, url string) (T, error) {
	var zero T
	if client == nil {
		return zero, errors.New("http client is nil")
	}
	resp, err := client.Get(ctx, url, nil)
	if err != nil {
		return zero, err
	}
	if resp.StatusCode() != StatusOK {
		return zero, &StatusError{Code: resp.StatusCode()}
	}

	text := strings.ToValidUTF8(string(resp.Body()), "�")
	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return zero, &DecodeError{Err: err}
	}
	return out, nil
}

// API is the callback form of GetJSON. Exactly one of onError or onCompleted fires.
func API[T any](ctx context.Context, client Client, url string, onError ErrorFunc, onCompleted func(T)) {
	out, err := GetJSON[T](ctx, client, url)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onCompleted != nil {
		onCompleted(out)
	}
}
