package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeHTTP      = "http"
	TypeGCPPubSub = "gcp_pubsub"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string                    `json:"id" yaml:"id"`
	Type    string                    `json:"type" yaml:"type"`
	Enabled *bool                     `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig       `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig       `json:"sns" yaml:"sns"`
	HTTP    *HTTPPublisherConfig      `json:"http" yaml:"http"`
	GCP     *GCPPubSubPublisherConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// AWSConfig holds optional overrides shared by the AWS publishers.
// Without static keys the default credential chain is used.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	EndpointURL     string `json:"endpoint_url" yaml:"endpoint_url"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	AWSConfig `yaml:",inline"`
	QueueURL  string `json:"uri" yaml:"uri"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	AWSConfig `yaml:",inline"`
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// GCPPubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type GCPPubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// ConfigRegistry materializes publisher definitions loaded from config files.
type ConfigRegistry struct {
	mu         sync.RWMutex
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads the publisher registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	fileReg, err := parsePublisherRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, len(fileReg.Publishers)),
		idx:        make(map[string]PublisherConfig, len(fileReg.Publishers)),
	}

	for i := range fileReg.Publishers {
		cfg := sanitizePublisherConfig(fileReg.Publishers[i])
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.publishers[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parsePublisherRegistry attempts to decode the publishers file content.
func parsePublisherRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
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
		reg, err := unmarshalPublisherRegistry(d.name, data, d.fn)
		if err == nil {
			return reg, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return configFile{}, fmt.Errorf("publishers file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return configFile{}, errors.Join(errs...)
}

// unmarshalPublisherRegistry decodes the publishers file using the provided function.
func unmarshalPublisherRegistry(name string, data []byte, fn func([]byte, any) error) (configFile, error) {
	var reg configFile
	if err := fn(data, &reg); err != nil {
		return configFile{}, fmt.Errorf("decode %s publishers: %w", name, err)
	}
	return reg, nil
}

// sanitizePublisherConfig trims and normalizes the publisher config fields.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.SQS != nil {
		c := cfg.SQS.sanitized()
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := cfg.SNS.sanitized()
		cfg.SNS = &c
	}
	if cfg.HTTP != nil {
		c := cfg.HTTP.sanitized()
		cfg.HTTP = &c
	}
	if cfg.GCP != nil {
		c := cfg.GCP.sanitized()
		cfg.GCP = &c
	}
	return cfg
}

func (c AWSConfig) sanitized() AWSConfig {
	c.Region = strings.TrimSpace(c.Region)
	c.EndpointURL = strings.TrimSpace(c.EndpointURL)
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	return c
}

// validate checks the settings every AWS sink needs. prefix names the
// config block in error messages.
func (c AWSConfig) validate(prefix string) error {
	if c.Region == "" {
		return fmt.Errorf("%s.region is required", prefix)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together", prefix, prefix)
	}
	if c.EndpointURL != "" {
		if u, err := url.Parse(c.EndpointURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s.endpoint_url %q is not an absolute url", prefix, c.EndpointURL)
		}
	}
	return nil
}

func (c SQSPublisherConfig) sanitized() SQSPublisherConfig {
	c.AWSConfig = c.AWSConfig.sanitized()
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	return c
}

func (c *SQSPublisherConfig) validate() error {
	if c == nil {
		return errors.New("sqs config required")
	}
	if c.QueueURL == "" {
		return errors.New("sqs.uri is required")
	}
	return c.AWSConfig.validate(TypeSQS)
}

func (c SNSPublisherConfig) sanitized() SNSPublisherConfig {
	c.AWSConfig = c.AWSConfig.sanitized()
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	return c
}

func (c *SNSPublisherConfig) validate() error {
	if c == nil {
		return errors.New("sns config required")
	}
	if !strings.HasPrefix(c.TopicARN, "arn:") {
		return fmt.Errorf("sns.topic_arn %q is not an ARN", c.TopicARN)
	}
	return c.AWSConfig.validate(TypeSNS)
}

func (c HTTPPublisherConfig) sanitized() HTTPPublisherConfig {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	c.Headers = sanitizeHeaders(c.Headers)
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	return c
}

func (c *HTTPPublisherConfig) validate() error {
	if c == nil {
		return errors.New("http config required")
	}
	if c.URL == "" {
		return errors.New("http.url is required")
	}
	return nil
}

func (c GCPPubSubPublisherConfig) sanitized() GCPPubSubPublisherConfig {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
	return c
}

func (c *GCPPubSubPublisherConfig) validate() error {
	if c == nil {
		return errors.New("gcp_pubsub config required")
	}
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("gcp_pubsub.project_id and gcp_pubsub.topic are required")
	}
	return nil
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validatePublisherConfig checks the block selected by the publisher type.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	var err error
	switch cfg.Type {
	case "":
		err = errors.New("type is required")
	case TypeSQS:
		err = cfg.SQS.validate()
	case TypeSNS:
		err = cfg.SNS.validate()
	case TypeHTTP:
		err = cfg.HTTP.validate()
	case TypeGCPPubSub:
		err = cfg.GCP.validate()
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return PublisherConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured publishers.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]PublisherConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
