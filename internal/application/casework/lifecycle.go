package casework

import (
	"context"
	"strconv"
	"time"

	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// StartCaseInput carries the case-start decision: the procedure the appeal
// will follow and whether a planning obligation applies.
type StartCaseInput struct {
	AppealID           common.ID
	Procedure          appeal.ProcedureType
	PlanningObligation bool
	StartDate          time.Time
	Actor              common.UserID
}

// StartCase anchors the appeal: it fixes the start date and procedure,
// computes the full timetable, and moves the appeal into the questionnaire
// stage. The timetable must compute successfully before anything is
// persisted; a calendar outage aborts the whole start.
func (s *Service) StartCase(ctx context.Context, in StartCaseInput) (*appeal.Appeal, error) {
	a, err := s.repo.GetAppeal(ctx, in.AppealID)
	if err != nil {
		return nil, err
	}
	if err := a.RequireStatus(appeal.StatusReadyToStart); err != nil {
		return nil, err
	}
	if a.CaseType == appeal.CaseTypeHouseholder && in.Procedure != appeal.ProcedureWritten {
		return nil, errors.New(errors.ErrCodeProcedureUnsupported,
			"householder appeals follow the written procedure only")
	}
	if !appeal.ValidProcedure(in.Procedure) {
		return nil, errors.InvalidParam("unknown procedure type " + string(in.Procedure))
	}

	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}

	tt, err := s.calc.Compute(ctx, timetable.Input{
		AppealID:           a.ID,
		CaseType:           a.CaseType,
		Procedure:          in.Procedure,
		AnchorDate:         start,
		PlanningObligation: in.PlanningObligation,
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeCalendarUnavailable) {
			s.metrics.CalendarFetchFailures.Inc()
		}
		return nil, err
	}
	s.metrics.TimetablesComputed.Inc()

	version := a.Version
	proc := in.Procedure
	a.Procedure = &proc
	a.StartedAt = &start
	a.PlanningObligation = in.PlanningObligation
	if err := s.repo.UpdateCaseDetails(ctx, a, version); err != nil {
		return nil, err
	}
	if err := s.timetable.UpsertTimetable(ctx, tt); err != nil {
		return nil, err
	}

	if _, err = s.Transition(ctx, a.ID, appeal.StatusLPAQuestionnaire, in.Actor); err != nil {
		return nil, err
	}
	a, err = s.repo.GetAppeal(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, a.ID, in.Actor, audit.TemplateCaseStarted, string(in.Procedure))
	s.publishEvent(ctx, appeal.Event{
		Type:       appeal.EventTimetableRecomputed,
		AppealID:   a.ID,
		Reference:  a.Reference,
		ActorID:    in.Actor,
		OccurredAt: s.now(),
		Payload:    common.Metadata{"deadlines": len(tt.Deadlines)},
	})
	return a, nil
}

// ChangeProcedure switches a live appeal to a different procedure and
// recomputes the entire timetable from the original start date. Deadlines
// edited by hand since the last computation are replaced, not preserved.
func (s *Service) ChangeProcedure(ctx context.Context, appealID common.ID, procedure appeal.ProcedureType, actor common.UserID) (*timetable.Timetable, error) {
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, err
	}
	current, err := a.CurrentStatus()
	if err != nil {
		return nil, err
	}
	if current.IsTerminal() {
		return nil, errors.InvalidAppealState("cannot change procedure of a " + string(current) + " appeal").
			WithDetail("appeal_id=" + string(appealID))
	}
	if a.StartedAt == nil {
		return nil, errors.InvalidAppealState("appeal has not started; use case start").
			WithDetail("appeal_id=" + string(appealID))
	}
	if a.CaseType == appeal.CaseTypeHouseholder && procedure != appeal.ProcedureWritten {
		return nil, errors.New(errors.ErrCodeProcedureUnsupported,
			"householder appeals follow the written procedure only")
	}

	previous := a.ProcedureOrWritten()
	tt, err := s.calc.Compute(ctx, timetable.Input{
		AppealID:           a.ID,
		CaseType:           a.CaseType,
		Procedure:          procedure,
		AnchorDate:         *a.StartedAt,
		PlanningObligation: a.PlanningObligation,
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeCalendarUnavailable) {
			s.metrics.CalendarFetchFailures.Inc()
		}
		return nil, err
	}
	s.metrics.TimetablesComputed.Inc()

	version := a.Version
	a.Procedure = &procedure
	if err := s.repo.UpdateCaseDetails(ctx, a, version); err != nil {
		return nil, err
	}
	if err := s.timetable.UpsertTimetable(ctx, tt); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, a.ID, actor, audit.TemplateProcedureChanged, string(previous), string(procedure))
	s.publishEvent(ctx, appeal.Event{
		Type:       appeal.EventTimetableRecomputed,
		AppealID:   a.ID,
		Reference:  a.Reference,
		ActorID:    actor,
		OccurredAt: s.now(),
		Payload: common.Metadata{
			"procedure": string(procedure),
			"deadlines": len(tt.Deadlines),
		},
	})
	return tt, nil
}

// DecisionOutcome is the inspector's determination.
type DecisionOutcome string

const (
	DecisionAllowed          DecisionOutcome = "allowed"
	DecisionDismissed        DecisionOutcome = "dismissed"
	DecisionSplit            DecisionOutcome = "split_decision"
	DecisionAllowedInPart    DecisionOutcome = "allowed_in_part"
	DecisionInvalidOnReview  DecisionOutcome = "invalid"
	DecisionWithdrawnOutcome DecisionOutcome = "withdrawn"
)

func validOutcome(o DecisionOutcome) bool {
	switch o {
	case DecisionAllowed, DecisionDismissed, DecisionSplit,
		DecisionAllowedInPart, DecisionInvalidOnReview, DecisionWithdrawnOutcome:
		return true
	}
	return false
}

// IssueDecision records the determination and completes the appeal, or
// parks it awaiting a costs decision when a costs application is live. The
// status guard runs before any side effect: a guard failure leaves no
// partial writes, notifications, events or audit rows behind.
func (s *Service) IssueDecision(ctx context.Context, appealID common.ID, outcome DecisionOutcome, costsApplied bool, actor common.UserID) (*appeal.Appeal, error) {
	if !validOutcome(outcome) {
		return nil, errors.InvalidParam("unknown decision outcome " + string(outcome))
	}
	a, err := s.repo.GetAppeal(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if err := a.RequireStatus(appeal.StatusIssueDetermination); err != nil {
		return nil, err
	}

	target := appeal.StatusComplete
	if costsApplied {
		target = appeal.StatusAwaitingCostsDecision
	}
	a, err = s.Transition(ctx, appealID, target, actor)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, a.ID, actor, audit.TemplateDecisionIssued, string(outcome))
	s.publishEvent(ctx, appeal.Event{
		Type:       appeal.EventDecisionIssued,
		AppealID:   a.ID,
		Reference:  a.Reference,
		ActorID:    actor,
		OccurredAt: s.now(),
		Payload: common.Metadata{
			"outcome":       string(outcome),
			"costs_applied": strconv.FormatBool(costsApplied),
		},
	})
	return a, nil
}
