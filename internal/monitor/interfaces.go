package monitor

import (
	"context"

	"github.com/samvad-hq/httpfetch/internal/domain"
	"github.com/samvad-hq/httpfetch/pkg/httpclient"
	"github.com/samvad-hq/httpfetch/pkg/publishers"
)

// Fetcher performs a single buffered GET.
type Fetcher interface {
	Fetch(ctx context.Context, req httpclient.Request) (httpclient.Response, error)
}

// EventPublisher publishes outcomes downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// OutcomeStore keeps the last published outcome per endpoint and the set of
// recently published outcome keys.
type OutcomeStore interface {
	SeenOutcome(key string) (bool, error)
	MarkOutcome(o domain.Outcome) error
	Latest(endpointID string) (domain.Outcome, bool, error)
}
