package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestValidatePublisherConfigCloudSinks(t *testing.T) {
	cases := map[string]PublisherConfig{
		"sns without topic": {ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSConfig: AWSConfig{Region: "us-east-1"}}},
		"gcp without topic": {ID: "g", Type: TypeGCPPubSub, GCP: &GCPPubSubPublisherConfig{ProjectID: "p"}},
		"unpaired keys": {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{
			AWSConfig: AWSConfig{Region: "us-east-1", AccessKeyID: "AKIA"},
			QueueURL:  "https://sqs.example/queue",
		}},
		"sqs without region": {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://sqs.example/queue"}},
		"relative endpoint": {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{
			AWSConfig: AWSConfig{Region: "us-east-1", EndpointURL: "localhost:4566"},
			QueueURL:  "https://sqs.example/queue",
		}},
		"sns without block": {ID: "s", Type: TypeSNS},
	}
	for name, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadRegistryInlinesAWSSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yml")
	raw := `
publishers:
  - id: alerts
    type: SNS
    sns:
      region: " ap-south-1 "
      endpoint_url: http://localhost:4566
      topic_arn: arn:aws:sns:ap-south-1:000000000000:alerts
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	cfg, ok := reg.ByID("alerts")
	if !ok {
		t.Fatalf("expected alerts publisher")
	}
	if cfg.Type != TypeSNS || cfg.SNS.Region != "ap-south-1" || cfg.SNS.EndpointURL != "http://localhost:4566" {
		t.Fatalf("unexpected sns config %#v", cfg.SNS)
	}
}

func TestValidatePublisherConfigNamesFailingField(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "alerts",
		Type: TypeSNS,
		SNS:  &SNSPublisherConfig{TopicARN: "arn:aws:sns:us-east-1:000000000000:alerts"},
	})
	if err == nil || !strings.Contains(err.Error(), `publisher "alerts": sns.region is required`) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadRegistryReportsDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	if err := os.WriteFile(path, []byte(`{"publishers": [`), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := LoadRegistry(path)
	if err == nil || !strings.Contains(err.Error(), "decode json publishers") {
		t.Fatalf("expected json decode error, got %v", err)
	}
}
