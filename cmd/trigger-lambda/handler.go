package main

import (
	"context"
	"encoding/json"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

// sqsHandler decodes SQS records into change events. Failed records are reported back
// as batch item failures so SQS redelivers only those.
type sqsHandler struct {
	handle events.Handler
}

func newSQSHandler(h events.Handler) *sqsHandler {
	return &sqsHandler{handle: h}
}

func (h *sqsHandler) Handle(ctx context.Context, batch awsevents.SQSEvent) (awsevents.SQSEventResponse, error) {
	var resp awsevents.SQSEventResponse

	for _, record := range batch.Records {
		var e events.Event
		if err := json.Unmarshal([]byte(record.Body), &e); err != nil {
			// Redelivery cannot fix a malformed body
			logger.Log.Error("Dropping undecodable SQS record",
				zap.String("message_id", record.MessageId),
				zap.Error(err),
			)
			continue
		}

		if err := h.handle(ctx, e); err != nil {
			logger.Log.Warn("Trigger failed, record will be retried",
				zap.String("message_id", record.MessageId),
				logger.WithEventID(e.ID),
				zap.String("topic", e.Topic()),
				zap.Error(err),
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, awsevents.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	return resp, nil
}
