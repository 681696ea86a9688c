package service

import (
	"encoding/json"
	"time"

	"hoodlink/internal/model"
)

// newOutboxEvent 组装 outbox 记录，payload 为事件的 JSON 快照
func newOutboxEvent(eventType, communityID, aggregateID string, payload map[string]any) *model.OutboxEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["event_type"] = eventType
	payload["community_id"] = communityID
	payload["aggregate_id"] = aggregateID
	payload["event_time"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, _ := json.Marshal(payload)
	return &model.OutboxEvent{
		EventType:   eventType,
		CommunityID: communityID,
		AggregateID: aggregateID,
		Payload:     string(b),
	}
}
