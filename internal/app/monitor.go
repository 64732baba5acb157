package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/httpfetch/internal/config"
	"github.com/samvad-hq/httpfetch/internal/logger"
	"github.com/samvad-hq/httpfetch/internal/monitor"
	"github.com/samvad-hq/httpfetch/internal/storage"
	"github.com/samvad-hq/httpfetch/pkg/endpoints"
	"github.com/samvad-hq/httpfetch/pkg/httpclient"
	"github.com/samvad-hq/httpfetch/pkg/publishers"
)

// Monitor is the endpoint monitor runtime. It owns the poll loop together
// with the outcome store and publisher fan-out it closes on exit.
type Monitor struct {
	cfg          *config.Config
	endpointReg  *endpoints.Registry
	fanout       *publishers.Fanout
	service      *monitor.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewMonitor builds a monitor runtime from config files.
func NewMonitor(ctx context.Context, cfg *config.Config, log logger.Logger) (*Monitor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	endpointReg, err := endpoints.LoadRegistry(cfg.EndpointsFile, endpoints.WithDefaultTimeout(cfg.FetchTimeout))
	if err != nil {
		return nil, fmt.Errorf("load endpoints registry: %w", err)
	}
	endpointList := endpointReg.All()
	endpointIDs := make([]string, 0, len(endpointList))
	for _, ep := range endpointList {
		endpointIDs = append(endpointIDs, ep.ID)
	}
	log.InfoObj("endpoints registry loaded", "endpoints_meta", map[string]any{
		"count": len(endpointIDs),
		"ids":   endpointIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		OutcomeTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"outcome_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fetcher := httpclient.New(
		httpclient.WithTimeout(cfg.FetchTimeout),
		httpclient.WithLogger(log),
	)

	return &Monitor{
		cfg:          cfg,
		endpointReg:  endpointReg,
		fanout:       fanout,
		service:      monitor.NewService(fetcher, fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run polls all endpoints until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m == nil || m.service == nil {
		return fmt.Errorf("monitor is not initialized")
	}
	defer m.close()

	eps := m.endpointReg.All()
	if len(eps) == 0 {
		m.log.WarnObj("no endpoints configured; monitor idle", "endpoints_file", m.cfg.EndpointsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	m.log.InfoObj("monitor loop starting", "monitor_state", map[string]any{
		"endpoints_count":  len(eps),
		"publishers_count": m.fanout.Size(),
		"poll_interval":    m.pollInterval.String(),
	})

	if err := m.runOnce(ctx, eps); err != nil {
		m.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.InfoObj("monitor loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := m.runOnce(ctx, eps); err != nil {
				m.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context, eps []endpoints.Endpoint) error {
	start := time.Now()
	m.log.InfoObj("poll started", "poll_meta", map[string]any{
		"endpoints_count": len(eps),
		"started_at":      start.UTC(),
	})
	if err := m.service.Run(ctx, eps); err != nil {
		return err
	}
	m.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"endpoints_count": len(eps),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

func (m *Monitor) close() {
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			m.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := m.fanout.Close(); err != nil {
		m.log.ErrorObj("publisher close failed", "error", err)
	}
}
