package appeal

import (
	"time"

	"github.com/openappeals/casework/pkg/types/common"
)

// EventType names a domain event emitted by a casework mutation.
type EventType string

const (
	EventStatusChanged       EventType = "appeal.status_changed"
	EventTimetableRecomputed EventType = "appeal.timetable_recomputed"
	EventStagePublished      EventType = "appeal.stage_published"
	EventDecisionIssued      EventType = "appeal.decision_issued"
	EventReopened            EventType = "appeal.reopened"
)

// Event is the envelope published to the messaging backbone after a
// successful mutation. Payload keys are event-type specific.
type Event struct {
	Type       EventType       `json:"type"`
	AppealID   common.ID       `json:"appeal_id"`
	Reference  string          `json:"reference"`
	ActorID    common.UserID   `json:"actor_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    common.Metadata `json:"payload,omitempty"`
}

// NewStatusChangedEvent builds the event for a completed transition.
func NewStatusChangedEvent(a *Appeal, actor common.UserID, from, to Status, now time.Time) Event {
	return Event{
		Type:       EventStatusChanged,
		AppealID:   a.ID,
		Reference:  a.Reference,
		ActorID:    actor,
		OccurredAt: now,
		Payload: common.Metadata{
			"from": string(from),
			"to":   string(to),
		},
	}
}
