// Package exchange resolves, for each multi-party submission stage, which
// notification template every required party must receive when the stage is
// published. The completeness of all parties is computed once and each
// recipient's template is derived from a single table-driven rule, so the
// N-party cross-notification logic lives in exactly one place.
package exchange

import (
	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// Stage is a publishable multi-party submission window.
type Stage string

const (
	StageStatements       Stage = "statements"
	StageProofsOfEvidence Stage = "proofs_of_evidence"
)

// RepresentationType maps a stage to the submission type it collects.
func (s Stage) RepresentationType() (appeal.RepresentationType, error) {
	switch s {
	case StageStatements:
		return appeal.RepresentationStatement, nil
	case StageProofsOfEvidence:
		return appeal.RepresentationProofOfEvidence, nil
	}
	return "", errors.InvalidParam("unknown publish stage " + string(s))
}

// RoleKind distinguishes the required submitter roles.
type RoleKind string

const (
	RoleLPA       RoleKind = "lpa"
	RoleAppellant RoleKind = "appellant"
	RoleRule6     RoleKind = "rule6"
)

// Role is one required submitter for a stage, carrying the human-readable
// name used when other recipients are told it has not submitted.
type Role struct {
	Kind        RoleKind
	PartyID     *common.ID // set for Rule 6 roles only
	DisplayName string
	Email       string
}

// Template names the notification outcome for one recipient.
type Template string

const (
	// TemplateShared: everything the recipient is waiting on has been
	// submitted and the stage content is being shared with it.
	TemplateShared Template = "stage_shared"

	// TemplateNotReceived: one or more other parties have not submitted;
	// the notification names them.
	TemplateNotReceived Template = "stage_not_received"

	// TemplateNoneReceived: no party submitted anything; a single aggregate
	// message replaces a list of one-off not-received messages.
	TemplateNoneReceived Template = "stage_none_received"
)

// Intent is one resolved notification: which role receives which template,
// and which parties it is told are missing.
type Intent struct {
	Role           Role
	Template       Template
	MissingParties []string
}

// RequiredRoles builds the stage's required submitter set: the lead local
// planning authority, the appellant, and every non-withdrawn Rule 6 party.
func RequiredRoles(a *appeal.Appeal, parties []appeal.Rule6Party) []Role {
	roles := []Role{
		{Kind: RoleLPA, DisplayName: "local planning authority", Email: a.LPA.Email},
		{Kind: RoleAppellant, DisplayName: "appellant", Email: a.Appellant.Email},
	}
	for i := range parties {
		p := parties[i]
		if p.Status != appeal.Rule6Active {
			continue
		}
		id := p.ID
		roles = append(roles, Role{
			Kind:        RoleRule6,
			PartyID:     &id,
			DisplayName: p.OrganisationName,
			Email:       p.ContactEmail,
		})
	}
	return roles
}

// submitted reports whether a valid representation of repType exists for the
// role. Rule 6 submissions match on the represented party id; lead-authority
// and appellant submissions carry no represented id and match on source.
func submitted(role Role, reps []appeal.Representation, repType appeal.RepresentationType) bool {
	for i := range reps {
		r := reps[i]
		if r.Type != repType || r.Status != appeal.RepresentationValid {
			continue
		}
		switch role.Kind {
		case RoleRule6:
			if r.RepresentedID != nil && role.PartyID != nil && *r.RepresentedID == *role.PartyID {
				return true
			}
		case RoleLPA:
			if r.RepresentedID == nil && r.Source == "lpa" {
				return true
			}
		case RoleAppellant:
			if r.RepresentedID == nil && r.Source == "appellant" {
				return true
			}
		}
	}
	return false
}

// Resolve computes one notification intent per required role.
//
// Rules, applied per recipient against the completeness of every role:
//   - no role submitted anything → aggregate none-received for everyone;
//   - the recipient's set of missing *others* is empty → shared, even when
//     the recipient itself is the sole missing party;
//   - otherwise → not-received naming the missing others.
func Resolve(roles []Role, reps []appeal.Representation, stage Stage) ([]Intent, error) {
	repType, err := stage.RepresentationType()
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, errors.InvalidParam("publish requires at least one submitter role")
	}

	complete := make([]bool, len(roles))
	anySubmitted := false
	for i, role := range roles {
		complete[i] = submitted(role, reps, repType)
		anySubmitted = anySubmitted || complete[i]
	}

	intents := make([]Intent, 0, len(roles))

	if !anySubmitted {
		for _, role := range roles {
			intents = append(intents, Intent{Role: role, Template: TemplateNoneReceived})
		}
		return intents, nil
	}

	for i, role := range roles {
		var missing []string
		for j, other := range roles {
			if j == i || complete[j] {
				continue
			}
			missing = append(missing, other.DisplayName)
		}
		if len(missing) == 0 {
			intents = append(intents, Intent{Role: role, Template: TemplateShared})
			continue
		}
		intents = append(intents, Intent{Role: role, Template: TemplateNotReceived, MissingParties: missing})
	}
	return intents, nil
}
