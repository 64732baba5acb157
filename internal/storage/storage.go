// Package storage keeps the outcome history used for change detection.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/httpfetch/internal/domain"
)

// Store tracks which outcomes have already been published.
type Store interface {
	Close() error
	SeenOutcome(key string) (bool, error)
	MarkOutcome(o domain.Outcome) error
	Latest(endpointID string) (domain.Outcome, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	OutcomeTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultOutcomeTTL      = 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OutcomeTTL <= 0 {
		opts.OutcomeTTL = defaultOutcomeTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                     { return nil }
func (noopStore) SeenOutcome(string) (bool, error) { return false, nil }
func (noopStore) MarkOutcome(domain.Outcome) error { return nil }
func (noopStore) Latest(string) (domain.Outcome, bool, error) {
	return domain.Outcome{}, false, nil
}
