package endpoints

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "endpoints.yaml")
	content := `
endpoints:
  - id: status
    name: Status API
    url: https://status.example.com/api/v1/summary
    format: JSON
    timeout_ms: 750
    headers:
      Accept: application/json
      "  ": ignored
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write endpoints file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(reg.All()))
	}

	ep, ok := reg.ByID("status")
	if !ok {
		t.Fatalf("expected endpoint id status to be loaded")
	}
	if ep.Format != FormatJSON {
		t.Fatalf("expected lower-cased format, got %q", ep.Format)
	}
	if ep.Timeout() != 750*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", ep.Timeout())
	}
	if len(ep.Headers) != 1 || ep.Headers["Accept"] != "application/json" {
		t.Fatalf("unexpected headers: %v", ep.Headers)
	}
}

func TestLoadRegistryJSONDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "endpoints.json")
	content := `{"endpoints":[{"id":"home","name":"Home","url":"http://example.com"}]}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write endpoints file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	ep, _ := reg.ByID("home")
	if ep.Format != FormatRaw {
		t.Fatalf("expected raw default format, got %q", ep.Format)
	}
	if ep.Timeout() != 5*time.Second {
		t.Fatalf("expected default timeout, got %v", ep.Timeout())
	}
}

func TestNewRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string][]Endpoint{
		"duplicate id": {
			{ID: "dup", Name: "One", URL: "https://one.example"},
			{ID: "dup", Name: "Two", URL: "https://two.example"},
		},
		"missing name":   {{ID: "x", URL: "https://x.example"}},
		"relative url":   {{ID: "x", Name: "X", URL: "/x"}},
		"unknown format": {{ID: "x", Name: "X", URL: "https://x.example", Format: "csv"}},
		"empty":          nil,
	}
	for name, eps := range cases {
		if _, err := NewRegistry(eps); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestNewRegistryAppliesConfiguredDefaultTimeout(t *testing.T) {
	reg, err := NewRegistry([]Endpoint{
		{ID: "fast", Name: "Fast", URL: "https://fast.example"},
		{ID: "slow", Name: "Slow", URL: "https://slow.example", TimeoutMs: 9000},
	}, WithDefaultTimeout(1500*time.Millisecond))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	fast, _ := reg.ByID("fast")
	if fast.Timeout() != 1500*time.Millisecond {
		t.Fatalf("expected configured default timeout, got %v", fast.Timeout())
	}
	slow, _ := reg.ByID("slow")
	if slow.Timeout() != 9*time.Second {
		t.Fatalf("explicit timeout must win over the default, got %v", slow.Timeout())
	}
}

func TestLoadRegistryReportsDecodeError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "endpoints.yaml")
	content := "endpoints:\n  - id: status\n    name: [unterminated\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write endpoints file: %v", err)
	}

	_, err := LoadRegistry(file)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode yaml endpoints") || !strings.Contains(err.Error(), "line") {
		t.Fatalf("expected yaml error with line info, got %v", err)
	}

	toml := filepath.Join(dir, "endpoints.toml")
	if err := os.WriteFile(toml, []byte("x = 1"), 0o644); err != nil {
		t.Fatalf("write endpoints file: %v", err)
	}
	if _, err := LoadRegistry(toml); err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Fatalf("expected unrecognized extension error, got %v", err)
	}
}
