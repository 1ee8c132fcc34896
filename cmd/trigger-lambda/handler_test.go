package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
)

func record(t *testing.T, id string, e events.Event) awsevents.SQSMessage {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return awsevents.SQSMessage{MessageId: id, Body: string(body)}
}

func TestHandleReportsOnlyFailedRecords(t *testing.T) {
	ok, err := events.New(events.Created, models.CollectionLikes, "like-1", nil, &models.Like{ID: "like-1"})
	require.NoError(t, err)
	bad, err := events.New(events.Created, models.CollectionLikes, "like-2", nil, &models.Like{ID: "like-2"})
	require.NoError(t, err)

	var seen []string
	h := newSQSHandler(func(_ context.Context, e events.Event) error {
		seen = append(seen, e.DocID)
		if e.DocID == "like-2" {
			return errors.New("store unavailable")
		}
		return nil
	})

	resp, err := h.Handle(context.Background(), awsevents.SQSEvent{Records: []awsevents.SQSMessage{
		record(t, "m1", ok),
		{MessageId: "m2", Body: "not json"},
		record(t, "m3", bad),
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"like-1", "like-2"}, seen)
	assert.Equal(t, []awsevents.SQSBatchItemFailure{{ItemIdentifier: "m3"}}, resp.BatchItemFailures)
}

func TestHandleEmptyBatch(t *testing.T) {
	h := newSQSHandler(func(context.Context, events.Event) error {
		t.Fatal("handler must not be called")
		return nil
	})

	resp, err := h.Handle(context.Background(), awsevents.SQSEvent{})
	require.NoError(t, err)
	assert.Empty(t, resp.BatchItemFailures)
}
