package mq

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParsePayload_JobRequested(t *testing.T) {
	jobID := uuid.New()
	msg := newMessage(MessageTypeJobRequested, JobRequestedPayload{JobID: jobID})

	// как после json.Unmarshal: payload — map[string]any
	msg.Payload = map[string]any{"job_id": jobID.String()}

	payload, err := ParsePayload[JobRequestedPayload](msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.JobID != jobID {
		t.Errorf("job id mismatch: %s", payload.JobID)
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	msg := &Message{Payload: map[string]any{"job_id": "not-a-uuid"}}
	if _, err := ParsePayload[JobRequestedPayload](msg); err == nil {
		t.Error("expected error for invalid uuid")
	}
}

func TestNewMessage(t *testing.T) {
	before := time.Now()
	msg := newMessage(MessageTypeJobCompleted, JobCompletedPayload{Status: "SUCCEEDED"})

	if msg.ID == "" || msg.Type != MessageTypeJobCompleted {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.Before(before) {
		t.Error("timestamp should be set")
	}
}

func TestTopology_RequestedHasDLQ(t *testing.T) {
	for _, q := range topologyQueues() {
		if q.name != QueueJobsRequested {
			continue
		}
		if q.args["x-dead-letter-exchange"] != string(ExchangeDLQ) {
			t.Errorf("jobs.requested should dead-letter to %s", ExchangeDLQ)
		}
		return
	}
	t.Fatal("jobs.requested not declared")
}
