// Package endpoints loads the monitored endpoint list from YAML/JSON files.
package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatHTML = "html"
	FormatRaw  = "raw"
)

var knownFormats = map[string]bool{
	FormatJSON: true,
	FormatXML:  true,
	FormatHTML: true,
	FormatRaw:  true,
}

// Endpoint is a single URL the monitor fetches.
type Endpoint struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	URL       string            `json:"url" yaml:"url"`
	Format    string            `json:"format" yaml:"format"`
	TimeoutMs int               `json:"timeout_ms" yaml:"timeout_ms"`
	Headers   map[string]string `json:"headers" yaml:"headers"`
}

type fileRegistry struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Registry holds validated endpoints keyed by id.
type Registry struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	idx       map[string]Endpoint
}

const defaultTimeoutMs = 5000

// Option adjusts how a Registry fills in unset endpoint fields.
type Option func(*registryOptions)

type registryOptions struct {
	timeoutMs int
}

// WithDefaultTimeout sets the timeout given to endpoints that declare none.
// Non-positive durations keep the built-in default.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *registryOptions) {
		if ms := int(d.Milliseconds()); ms > 0 {
			o.timeoutMs = ms
		}
	}
}

// LoadRegistry loads endpoints from path. The extension selects the decoder.
func LoadRegistry(path string, opts ...Option) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Endpoints, opts...)
}

// NewRegistry sanitizes and validates eps.
func NewRegistry(eps []Endpoint, opts ...Option) (*Registry, error) {
	if len(eps) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}
	o := registryOptions{timeoutMs: defaultTimeoutMs}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	reg := &Registry{
		endpoints: make([]Endpoint, len(eps)),
		idx:       make(map[string]Endpoint, len(eps)),
	}
	for i := range eps {
		ep := sanitizeEndpoint(eps[i], o.timeoutMs)
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoint[%d]: %w", i, err)
		}
		if _, exists := reg.idx[ep.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		reg.endpoints[i] = ep
		reg.idx[ep.ID] = ep
	}
	return reg, nil
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		reg, err := unmarshalRegistry(d.name, data, d.fn)
		if err == nil {
			return reg, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return fileRegistry{}, fmt.Errorf("endpoints file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return fileRegistry{}, errors.Join(errs...)
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (fileRegistry, error) {
	var reg fileRegistry
	if err := fn(data, &reg); err != nil {
		return fileRegistry{}, fmt.Errorf("decode %s endpoints: %w", name, err)
	}
	return reg, nil
}

func sanitizeEndpoint(ep Endpoint, timeoutMs int) Endpoint {
	ep.ID = strings.TrimSpace(ep.ID)
	ep.Name = strings.TrimSpace(ep.Name)
	ep.URL = strings.TrimSpace(ep.URL)
	ep.Format = strings.ToLower(strings.TrimSpace(ep.Format))
	if ep.Format == "" {
		ep.Format = FormatRaw
	}
	if ep.TimeoutMs <= 0 {
		ep.TimeoutMs = timeoutMs
	}

	if len(ep.Headers) > 0 {
		headers := make(map[string]string, len(ep.Headers))
		for k, v := range ep.Headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			headers[k] = v
		}
		ep.Headers = headers
	}
	return ep
}

func validateEndpoint(ep Endpoint) error {
	if ep.ID == "" {
		return errors.New("id is required")
	}
	if ep.Name == "" {
		return fmt.Errorf("name is required for endpoint %q", ep.ID)
	}
	if ep.URL == "" {
		return fmt.Errorf("url is required for endpoint %q", ep.ID)
	}
	u, err := url.Parse(ep.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q is not an absolute http(s) url for endpoint %q", ep.URL, ep.ID)
	}
	if !knownFormats[ep.Format] {
		return fmt.Errorf("unsupported format %q for endpoint %q", ep.Format, ep.ID)
	}
	return nil
}

// Timeout returns the per-request timeout for the endpoint.
func (ep Endpoint) Timeout() time.Duration {
	if ep.TimeoutMs <= 0 {
		return time.Duration(defaultTimeoutMs) * time.Millisecond
	}
	return time.Duration(ep.TimeoutMs) * time.Millisecond
}

// All returns a copy of the loaded endpoints in file order.
func (r *Registry) All() []Endpoint {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// ByID returns the endpoint for id, if loaded.
func (r *Registry) ByID(id string) (Endpoint, bool) {
	if r == nil {
		return Endpoint{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Endpoint{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.idx[id]
	return ep, ok
}
