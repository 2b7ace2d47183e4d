// Package appeal defines the Appeal aggregate: identity, party references,
// ordered status history, and the finite-state transition policy that governs
// every casework mutation.
package appeal

import (
	"time"

	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// CaseType identifies the statutory appeal category.
type CaseType string

const (
	// CaseTypeHouseholder is a householder (HAS) appeal; always written
	// representations.
	CaseTypeHouseholder CaseType = "householder"

	// CaseTypeFullPlanning is a full planning (S78) appeal; may follow the
	// written, hearing or inquiry procedure.
	CaseTypeFullPlanning CaseType = "full_planning"
)

// ProcedureType determines which deadlines exist and which transition table
// applies. It is unset on an appeal until the procedure is decided.
type ProcedureType string

const (
	ProcedureWritten ProcedureType = "written"
	ProcedureHearing ProcedureType = "hearing"
	ProcedureInquiry ProcedureType = "inquiry"
)

// ValidProcedure reports whether p names a known procedure type.
func ValidProcedure(p ProcedureType) bool {
	switch p {
	case ProcedureWritten, ProcedureHearing, ProcedureInquiry:
		return true
	}
	return false
}

// Party holds the contact details the casework engine needs for a named
// participant. Postal address handling lives outside this subsystem.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatusEntry is one row of an appeal's append-only status history. Exactly
// one entry has Valid == true at any time; superseded entries are never
// mutated beyond clearing that flag.
type StatusEntry struct {
	Status    Status    `json:"status"`
	ValidFrom time.Time `json:"valid_from"`
	Valid     bool      `json:"valid"`
}

// Appeal is the aggregate root. The status history and timetable are owned
// by the appeal and share its transactional boundary; representations and
// Rule 6 parties are referenced by id and persisted independently.
type Appeal struct {
	ID        common.ID `json:"id"`
	Reference string    `json:"reference"`

	CaseType  CaseType       `json:"case_type"`
	Procedure *ProcedureType `json:"procedure,omitempty"`

	// StartedAt anchors every timetable computation. Procedure changes
	// recompute from this date, not from the change date.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// PlanningObligation controls whether the planning-obligation deadline
	// is included for hearing and inquiry procedures.
	PlanningObligation bool `json:"planning_obligation"`

	Appellant Party  `json:"appellant"`
	Agent     *Party `json:"agent,omitempty"`
	LPA       Party  `json:"lpa"`
	LPACode   string `json:"lpa_code"`

	// DocumentFolders maps a stage name to its document-store folder key.
	DocumentFolders map[string]string `json:"document_folders,omitempty"`

	StatusHistory []StatusEntry `json:"status_history"`

	// Version is the optimistic-concurrency token for the aggregate. Every
	// status write is conditional on the version read.
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAppeal creates an appeal in the ready-to-start state.
func NewAppeal(reference string, caseType CaseType, appellant, lpa Party, now time.Time) (*Appeal, error) {
	if reference == "" {
		return nil, errors.InvalidParam("appeal reference must not be empty")
	}
	switch caseType {
	case CaseTypeHouseholder, CaseTypeFullPlanning:
	default:
		return nil, errors.InvalidParam("unknown case type " + string(caseType))
	}

	return &Appeal{
		ID:        common.NewID(),
		Reference: reference,
		CaseType:  caseType,
		Appellant: appellant,
		LPA:       lpa,
		StatusHistory: []StatusEntry{
			{Status: StatusReadyToStart, ValidFrom: now, Valid: true},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CurrentStatus returns the single history entry with Valid == true. A
// history without exactly one valid entry is corrupt and reported as an
// internal error, never silently repaired.
func (a *Appeal) CurrentStatus() (Status, error) {
	var current *StatusEntry
	for i := range a.StatusHistory {
		if !a.StatusHistory[i].Valid {
			continue
		}
		if current != nil {
			return "", errors.Internal("status history holds more than one valid entry").
				WithDetail("appeal_id=" + string(a.ID))
		}
		current = &a.StatusHistory[i]
	}
	if current == nil {
		return "", errors.Internal("status history holds no valid entry").
			WithDetail("appeal_id=" + string(a.ID))
	}
	return current.Status, nil
}

// ProcedureOrWritten resolves the effective procedure, defaulting to written
// representations when the procedure has not been decided (householder
// appeals never set one).
func (a *Appeal) ProcedureOrWritten() ProcedureType {
	if a.Procedure == nil {
		return ProcedureWritten
	}
	return *a.Procedure
}
