package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQS accepts at most ten entries per SendMessageBatch
const sqsBatchSize = 10

// SQSAPI is the part of the SQS client the publisher uses
type SQSAPI interface {
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// SQSPublisher sends each event as one SQS message whose body is the JSON event.
// cmd/trigger-lambda consumes the queue.
type SQSPublisher struct {
	client   SQSAPI
	queueURL string
	fifo     bool
}

// NewSQSPublisher loads the default AWS credential chain for region
func NewSQSPublisher(region, queueURL string) (*SQSPublisher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSQSPublisherWithClient(sqs.NewFromConfig(cfg), queueURL), nil
}

// NewSQSPublisherWithClient publishes through client
func NewSQSPublisherWithClient(client SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}
}

// Publish sends events in batches of ten. Any rejected entry fails the call.
func (p *SQSPublisher) Publish(ctx context.Context, evts ...Event) error {
	for start := 0; start < len(evts); start += sqsBatchSize {
		end := min(start+sqsBatchSize, len(evts))

		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i, e := range evts[start:end] {
			entry, err := p.entry(strconv.Itoa(i), e)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		out, err := p.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(p.queueURL),
			Entries:  entries,
		})
		if err != nil {
			return fmt.Errorf("failed to publish events to SQS: %w", err)
		}
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return fmt.Errorf("SQS rejected %d of %d events: %s: %s",
				len(out.Failed), len(entries), aws.ToString(f.Code), aws.ToString(f.Message))
		}
	}
	return nil
}

func (p *SQSPublisher) entry(id string, e Event) (types.SendMessageBatchRequestEntry, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return types.SendMessageBatchRequestEntry{}, fmt.Errorf("failed to encode event: %w", err)
	}

	entry := types.SendMessageBatchRequestEntry{
		Id:          aws.String(id),
		MessageBody: aws.String(string(data)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"topic": {DataType: aws.String("String"), StringValue: aws.String(e.Topic())},
		},
	}
	if p.fifo {
		// Changes to one document stay ordered; the event id deduplicates retries
		entry.MessageGroupId = aws.String(e.Collection + "/" + e.DocID)
		entry.MessageDeduplicationId = aws.String(e.ID)
	}
	return entry, nil
}
