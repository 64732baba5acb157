package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/samvad-hq/httpfetch/internal/domain"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      discardLogger{},
	}

	err := pub.Publish(context.Background(), Event{
		EndpointID: "status",
		Outcome:    domain.Outcome{EndpointID: "status", Error: "get: timeout exceeded"},
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	if got := aws.ToString(client.input.MessageAttributes["status"].StringValue); got != "error" {
		t.Fatalf("status attribute = %q, want error", got)
	}
	if !strings.Contains(aws.ToString(client.input.Message), `"endpoint_id":"status"`) {
		t.Fatalf("Message missing endpoint_id: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSPublisherPublishError(t *testing.T) {
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::topic",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      discardLogger{},
	}

	if err := pub.Publish(context.Background(), Event{EndpointID: "status"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSNSPublisherSetsFIFOHeaders(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:ap-south-1:000000000000:outcomes.fifo",
		client:   client,
		log:      discardLogger{},
	}

	evt := Event{EndpointID: "status", Outcome: domain.Outcome{EndpointID: "status", Digest: "abc123"}}
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if aws.ToString(client.input.MessageGroupId) != "status" || aws.ToString(client.input.MessageDeduplicationId) != "abc123" {
		t.Fatalf("unexpected fifo headers group=%q dedupe=%q",
			aws.ToString(client.input.MessageGroupId), aws.ToString(client.input.MessageDeduplicationId))
	}
}
