package appeal

import (
	"time"

	"github.com/openappeals/casework/pkg/errors"
)

// Status is the lifecycle state of an appeal. The allowed edges between
// statuses are policy data in the transition tables below, not code.
type Status string

const (
	StatusReadyToStart          Status = "ready_to_start"
	StatusLPAQuestionnaire      Status = "lpa_questionnaire"
	StatusStatements            Status = "statements"
	StatusFinalComments         Status = "final_comments"
	StatusEvidence              Status = "evidence"
	StatusEvent                 Status = "event"
	StatusAwaitingEvent         Status = "awaiting_event"
	StatusIssueDetermination    Status = "issue_determination"
	StatusAwaitingCostsDecision Status = "awaiting_costs_decision"
	StatusComplete              Status = "complete"
	StatusInvalid               Status = "invalid"
	StatusWithdrawn             Status = "withdrawn"
	StatusClosed                Status = "closed"
)

// IsTerminal reports whether s accepts no further transitions through the
// ordinary tables. Terminal states can only be left via the corrective
// reopen event.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusInvalid, StatusWithdrawn, StatusClosed:
		return true
	}
	return false
}

// TransitionTable maps a current status to the set of statuses reachable
// from it. Tables are immutable policy data; registering a new appeal type
// means registering a new table, not touching the engine.
type TransitionTable map[Status][]Status

// Allowed returns the statuses reachable from the given status. The returned
// slice must not be mutated.
func (t TransitionTable) Allowed(from Status) []Status {
	return t[from]
}

// Can reports whether the edge from → to exists in the table.
func (t TransitionTable) Can(from, to Status) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Shared leading edges: every procedure starts with the questionnaire and
// statement stages and can be invalidated or withdrawn while live.
func baseTable() TransitionTable {
	return TransitionTable{
		StatusReadyToStart:          {StatusLPAQuestionnaire, StatusInvalid, StatusWithdrawn, StatusClosed},
		StatusLPAQuestionnaire:      {StatusStatements, StatusInvalid, StatusWithdrawn, StatusClosed},
		StatusIssueDetermination:    {StatusAwaitingCostsDecision, StatusComplete, StatusWithdrawn},
		StatusAwaitingCostsDecision: {StatusComplete},
	}
}

var (
	writtenTable = func() TransitionTable {
		t := baseTable()
		t[StatusStatements] = []Status{StatusFinalComments, StatusWithdrawn}
		t[StatusFinalComments] = []Status{StatusIssueDetermination, StatusWithdrawn}
		return t
	}()

	hearingTable = func() TransitionTable {
		t := baseTable()
		t[StatusStatements] = []Status{StatusEvent, StatusWithdrawn}
		t[StatusEvent] = []Status{StatusAwaitingEvent, StatusWithdrawn}
		t[StatusAwaitingEvent] = []Status{StatusIssueDetermination, StatusWithdrawn}
		return t
	}()

	inquiryTable = func() TransitionTable {
		t := baseTable()
		t[StatusStatements] = []Status{StatusEvidence, StatusWithdrawn}
		t[StatusEvidence] = []Status{StatusEvent, StatusWithdrawn}
		t[StatusEvent] = []Status{StatusAwaitingEvent, StatusWithdrawn}
		t[StatusAwaitingEvent] = []Status{StatusIssueDetermination, StatusWithdrawn}
		return t
	}()
)

// reopenTargets are the corrective re-opening edges out of terminal states.
// They are deliberately absent from the ordinary tables so a plain
// transition call can never traverse them.
var reopenTargets = map[Status]Status{
	StatusComplete:  StatusIssueDetermination,
	StatusInvalid:   StatusReadyToStart,
	StatusWithdrawn: StatusReadyToStart,
	StatusClosed:    StatusReadyToStart,
}

// TableFor selects the transition table for a case type and procedure.
// Householder appeals always follow the written table.
func TableFor(caseType CaseType, procedure ProcedureType) (TransitionTable, error) {
	if caseType == CaseTypeHouseholder {
		return writtenTable, nil
	}
	switch procedure {
	case ProcedureWritten:
		return writtenTable, nil
	case ProcedureHearing:
		return hearingTable, nil
	case ProcedureInquiry:
		return inquiryTable, nil
	}
	return nil, errors.New(errors.ErrCodeProcedureUnsupported,
		"no transition table for "+string(caseType)+"/"+string(procedure))
}

// AllowedTransitions returns the statuses reachable from the appeal's
// current status under its case type and procedure.
func (a *Appeal) AllowedTransitions() ([]Status, error) {
	current, err := a.CurrentStatus()
	if err != nil {
		return nil, err
	}
	table, err := TableFor(a.CaseType, a.ProcedureOrWritten())
	if err != nil {
		return nil, err
	}
	return table.Allowed(current), nil
}

// ApplyTransition validates target against the appeal's transition table,
// marks the current entry superseded, and appends a new valid entry. The
// caller persists the mutated history conditionally on the version it read.
func (a *Appeal) ApplyTransition(target Status, now time.Time) (*StatusEntry, error) {
	current, err := a.CurrentStatus()
	if err != nil {
		return nil, err
	}
	if current.IsTerminal() {
		return nil, errors.InvalidTransition(string(current) + " is terminal; use corrective reopening").
			WithDetail("appeal_id=" + string(a.ID))
	}
	table, err := TableFor(a.CaseType, a.ProcedureOrWritten())
	if err != nil {
		return nil, err
	}
	if !table.Can(current, target) {
		return nil, errors.InvalidTransition("cannot move from " + string(current) + " to " + string(target)).
			WithDetail("appeal_id=" + string(a.ID))
	}
	return a.appendStatus(target, now), nil
}

// ApplyReopen traverses a corrective re-opening edge out of a terminal
// state. It is a separately-authorized event, never reachable through
// ApplyTransition.
func (a *Appeal) ApplyReopen(now time.Time) (*StatusEntry, error) {
	current, err := a.CurrentStatus()
	if err != nil {
		return nil, err
	}
	target, ok := reopenTargets[current]
	if !ok {
		return nil, errors.InvalidTransition("only terminal appeals can be reopened").
			WithDetail("appeal_id=" + string(a.ID))
	}
	return a.appendStatus(target, now), nil
}

// RequireStatus guards mutating operations: it fails with InvalidAppealState
// when the live status differs from expected.
func (a *Appeal) RequireStatus(expected Status) error {
	current, err := a.CurrentStatus()
	if err != nil {
		return err
	}
	if current != expected {
		return errors.InvalidAppealState("appeal is " + string(current) + ", requires " + string(expected)).
			WithDetail("appeal_id=" + string(a.ID))
	}
	return nil
}

func (a *Appeal) appendStatus(target Status, now time.Time) *StatusEntry {
	for i := range a.StatusHistory {
		a.StatusHistory[i].Valid = false
	}
	a.StatusHistory = append(a.StatusHistory, StatusEntry{
		Status:    target,
		ValidFrom: now,
		Valid:     true,
	})
	a.UpdatedAt = now
	return &a.StatusHistory[len(a.StatusHistory)-1]
}
