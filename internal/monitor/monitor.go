package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samvad-hq/httpfetch/internal/domain"
	"github.com/samvad-hq/httpfetch/internal/logger"
	"github.com/samvad-hq/httpfetch/pkg/endpoints"
	"github.com/samvad-hq/httpfetch/pkg/httpclient"
	"github.com/samvad-hq/httpfetch/pkg/publishers"
)

// Service checks endpoints and publishes outcomes that differ from the last
// outcome published for the same endpoint.
type Service struct {
	fetcher   Fetcher
	publisher EventPublisher
	store     OutcomeStore
	log       logger.Logger
	now       func() time.Time
}

// NewService wires a monitor with its fetcher, publisher, and outcome store.
// A nil store publishes every outcome.
func NewService(fetcher Fetcher, pub EventPublisher, log logger.Logger, store OutcomeStore) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{
		fetcher:   fetcher,
		publisher: pub,
		store:     store,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one pass over eps.
func (s *Service) Run(ctx context.Context, eps []endpoints.Endpoint) error {
	if s == nil || s.fetcher == nil {
		return fmt.Errorf("monitor service is not initialized")
	}
	if len(eps) == 0 {
		return fmt.Errorf("no endpoints configured for monitoring")
	}

	return errors.Join(s.runAll(ctx, eps)...)
}

func (s *Service) runAll(ctx context.Context, eps []endpoints.Endpoint) []error {
	errs := make([]error, 0, len(eps))

	for _, ep := range eps {
		select {
		case <-ctx.Done():
			return errs
		default:
		}

		if err := s.runEndpoint(ctx, ep); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("endpoint check failed", "endpoint_error", map[string]any{
				"endpoint_id": ep.ID,
				"error":       err.Error(),
			})
		}
	}

	return errs
}

func (s *Service) runEndpoint(ctx context.Context, ep endpoints.Endpoint) error {
	outcome := s.Check(ctx, ep)

	var errs []error
	if outcome.Failed() {
		errs = append(errs, fmt.Errorf("check endpoint %s: %s", ep.ID, outcome.Error))
	}

	prev, found, err := s.previous(outcome.EndpointID)
	if err != nil {
		s.log.WarnObj("outcome lookup failed; publishing anyway", "store_error", map[string]any{
			"endpoint_id": ep.ID,
			"error":       err.Error(),
		})
	}
	if found && prev.Digest == outcome.Digest {
		s.log.DebugObj("endpoint unchanged", "endpoint_result", map[string]any{
			"endpoint_id": ep.ID,
			"digest":      outcome.Digest,
		})
		return errors.Join(errs...)
	}

	s.logTransition(prev, found, outcome)

	if s.publisher != nil {
		evt := publishers.NewEvent(ep.ID, ep.Name, outcome)
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			return errors.Join(append(errs, fmt.Errorf("publish endpoint %s: %w", ep.ID, err))...)
		}
	}

	if s.store != nil {
		if err := s.store.MarkOutcome(outcome); err != nil {
			errs = append(errs, fmt.Errorf("mark outcome for %s: %w", ep.ID, err))
		}
	}

	s.log.InfoObj("endpoint check completed", "endpoint_result", map[string]any{
		"endpoint_id": ep.ID,
		"status":      outcome.StatusCode,
		"bytes":       outcome.Bytes,
		"elapsed_ms":  outcome.ElapsedMs,
	})
	return errors.Join(errs...)
}

// previous returns the last outcome marked for endpointID.
func (s *Service) previous(endpointID string) (domain.Outcome, bool, error) {
	if s.store == nil {
		return domain.Outcome{}, false, nil
	}
	return s.store.Latest(endpointID)
}

func (s *Service) logTransition(prev domain.Outcome, found bool, outcome domain.Outcome) {
	if !found {
		return
	}
	if prev.StatusCode != outcome.StatusCode {
		s.log.WarnObj("endpoint status changed", "endpoint_transition", map[string]any{
			"endpoint_id": outcome.EndpointID,
			"from":        prev.StatusCode,
			"to":          outcome.StatusCode,
		})
	}
	// A digest still in the seen-set means the endpoint flipped back to a
	// recent outcome, e.g. a recovery after an outage.
	if seen, err := s.store.SeenOutcome(outcome.Key()); err == nil && seen {
		s.log.InfoObj("endpoint returned to a recent outcome", "endpoint_transition", map[string]any{
			"endpoint_id": outcome.EndpointID,
			"digest":      outcome.Digest,
		})
	}
}

// Check fetches ep once and describes the result. It never returns an error;
// failures are recorded on the outcome.
func (s *Service) Check(ctx context.Context, ep endpoints.Endpoint) domain.Outcome {
	start := s.now()
	out := domain.Outcome{
		EndpointID: ep.ID,
		URL:        ep.URL,
		FetchedAt:  start.UTC(),
	}

	var (
		status  int
		digest  []byte
		summary string
		err     error
	)
	if ep.Format == endpoints.FormatJSON {
		status, digest, summary, err = s.checkJSON(ctx, ep, &out)
	} else {
		status, digest, summary, err = s.checkRaw(ctx, ep, &out)
	}
	out.ElapsedMs = s.now().Sub(start).Milliseconds()
	out.StatusCode = status

	if err != nil {
		out.Error = err.Error()
		out.Digest = hashParts("error", out.Error)
		return out
	}
	out.Summary = summary
	out.Digest = hashParts(strconv.Itoa(status), string(digest))
	return out
}

// checkJSON decodes the body through the typed API helper. The digest is taken
// over the re-encoded document so key order and whitespace do not count as changes.
func (s *Service) checkJSON(ctx context.Context, ep endpoints.Endpoint, out *domain.Outcome) (int, []byte, string, error) {
	rc := &recordingClient{fetcher: s.fetcher, ep: ep}
	doc, err := httpclient.GetJSON[any](ctx, rc, ep.URL)
	if rc.resp != nil {
		out.Bytes = len(rc.resp.Body())
	}

	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Code, nil, "", fmt.Errorf("unexpected status %s", statusErr.Error())
	case err != nil:
		status := 0
		if rc.resp != nil {
			status = rc.resp.StatusCode()
		}
		return status, nil, "", err
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return httpclient.StatusOK, nil, "", fmt.Errorf("encode json: %w", err)
	}
	return httpclient.StatusOK, canonical, jsonSummary(doc), nil
}

func (s *Service) checkRaw(ctx context.Context, ep endpoints.Endpoint, out *domain.Outcome) (int, []byte, string, error) {
	resp, err := s.fetcher.Fetch(ctx, endpointRequest(ep))
	if err != nil {
		return 0, nil, "", err
	}
	body := resp.Body()
	out.Bytes = len(body)

	if resp.StatusCode() != httpclient.StatusOK {
		statusErr := &httpclient.StatusError{Code: resp.StatusCode()}
		return resp.StatusCode(), nil, "", fmt.Errorf("unexpected status %s", statusErr.Error())
	}

	summary, err := summarize(ep.Format, body)
	if err != nil {
		return resp.StatusCode(), nil, "", err
	}
	return resp.StatusCode(), body, summary, nil
}

func endpointRequest(ep endpoints.Endpoint) httpclient.Request {
	return httpclient.Request{URL: ep.URL, Timeout: ep.Timeout(), Headers: ep.Headers}
}

// recordingClient adapts a Fetcher to httpclient.Client with the endpoint's
// timeout and headers, keeping the raw response for size accounting.
type recordingClient struct {
	fetcher Fetcher
	ep      endpoints.Endpoint
	resp    httpclient.Response
}

func (r *recordingClient) Get(ctx context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	req := endpointRequest(r.ep)
	req.URL = url
	if len(headers) > 0 {
		req.Headers = headers
	}
	resp, err := r.fetcher.Fetch(ctx, req)
	r.resp = resp
	return resp, err
}

func hashParts(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
