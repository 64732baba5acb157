package publishers

import (
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/httpfetch/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	EndpointID   string         `json:"endpoint_id"`
	EndpointName string         `json:"endpoint_name"`
	Outcome      domain.Outcome `json:"outcome"`
	PublishedAt  time.Time      `json:"published_at"`
}

// NewEvent constructs an Event for the given endpoint + outcome.
func NewEvent(endpointID, endpointName string, outcome domain.Outcome) Event {
	return Event{
		EndpointID:   endpointID,
		EndpointName: endpointName,
		Outcome:      outcome,
		PublishedAt:  time.Now().UTC(),
	}
}

// attributes are attached as message metadata by queue and topic publishers.
func (e Event) attributes() map[string]string {
	status := "ok"
	if e.Outcome.Failed() {
		status = "error"
	}
	return map[string]string{
		"endpoint_id": e.EndpointID,
		"status":      status,
	}
}

// fifoHeaders returns the group and deduplication ids used by FIFO queues
// and topics. Outcomes of one endpoint share a group. The deduplication id
// pairs the outcome digest with the publish time, so a retried send is
// dropped by the broker while a later return to the same outcome is not.
func (e Event) fifoHeaders() (group, dedupe string) {
	group = e.EndpointID
	if group == "" {
		group = e.Outcome.EndpointID
	}
	dedupe = e.Outcome.Digest
	if !e.PublishedAt.IsZero() {
		dedupe += "-" + strconv.FormatInt(e.PublishedAt.UnixNano(), 10)
	}
	if dedupe == "" {
		dedupe = group
	}
	return group, dedupe
}

func isFIFO(target string) bool {
	return strings.HasSuffix(strings.TrimSpace(target), ".fifo")
}
