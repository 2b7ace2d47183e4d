// Package audit renders and records the human-readable trail of casework
// actions. Entries are append-only and keyed to the appeal they describe.
package audit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// Entry is one immutable audit-trail row.
type Entry struct {
	ID        common.ID     `json:"id"`
	AppealID  common.ID     `json:"appeal_id"`
	ActorID   common.UserID `json:"actor_id"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// Sink persists rendered entries. Implementations must be append-only;
// there is no update or delete in the contract.
type Sink interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, appealID common.ID, p common.Pagination) ([]Entry, error)
}

// Message templates. The {n} placeholders are replaced positionally by the
// recorder's details arguments.
const (
	TemplateStatusChanged       = "appeal moved from {0} to {1}"
	TemplateCaseStarted         = "case started with the {0} procedure"
	TemplateProcedureChanged    = "procedure changed from {0} to {1}, timetable recomputed"
	TemplateTimetableRecomputed = "timetable recomputed, {0} deadlines set"
	TemplateStagePublished      = "{0} stage published, {1} notifications sent"
	TemplateDecisionIssued      = "decision issued: {0}"
	TemplateRule6Added          = "rule 6 party {0} added"
	TemplateRule6Withdrawn      = "rule 6 party {0} withdrawn"
	TemplateRule6Removed        = "rule 6 party {0} removed"
	TemplateAppealReopened      = "appeal reopened to {0}"
)

// Recorder renders templates into entries and appends them to a sink.
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder constructs a Recorder. A nil clock uses UTC wall time.
func NewRecorder(sink Sink, now func() time.Time) *Recorder {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Recorder{sink: sink, now: now}
}

// Render substitutes {0}, {1}, ... placeholders with the corresponding
// details values. A placeholder beyond the supplied details renders as an
// empty string rather than failing the calling operation.
func Render(template string, details ...string) string {
	out := template
	for i, d := range details {
		out = strings.ReplaceAll(out, "{"+strconv.Itoa(i)+"}", d)
	}
	for i := len(details); strings.Contains(out, "{"+strconv.Itoa(i)+"}"); i++ {
		out = strings.ReplaceAll(out, "{"+strconv.Itoa(i)+"}", "")
	}
	return out
}

// Record renders the template and appends the entry. An empty appeal id or
// template is a caller bug and is rejected.
func (r *Recorder) Record(ctx context.Context, appealID common.ID, actorID common.UserID, template string, details ...string) error {
	if appealID == "" {
		return errors.InvalidParam("audit entry requires an appeal id")
	}
	if template == "" {
		return errors.InvalidParam("audit entry requires a message template")
	}
	e := &Entry{
		ID:        common.NewID(),
		AppealID:  appealID,
		ActorID:   actorID,
		Message:   Render(template, details...),
		CreatedAt: r.now(),
	}
	if err := r.sink.Append(ctx, e); err != nil {
		return errors.Wrap(err, errors.ErrCodeAuditRejected, "appending audit entry")
	}
	return nil
}

// List returns the appeal's trail, newest first per the sink's ordering.
func (r *Recorder) List(ctx context.Context, appealID common.ID, p common.Pagination) ([]Entry, error) {
	if appealID == "" {
		return nil, errors.InvalidParam("audit listing requires an appeal id")
	}
	return r.sink.List(ctx, appealID, p)
}
