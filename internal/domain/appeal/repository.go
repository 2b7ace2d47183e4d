package appeal

import (
	"context"

	"github.com/openappeals/casework/pkg/types/common"
)

// Repository is the persistence contract for the appeal aggregate and its
// independently-stored satellites. Implementations live under
// internal/infrastructure/database.
type Repository interface {
	// GetAppeal loads an appeal with its full status history, or an
	// ErrCodeAppealNotFound error.
	GetAppeal(ctx context.Context, id common.ID) (*Appeal, error)

	// SaveAppeal inserts a new aggregate.
	SaveAppeal(ctx context.Context, a *Appeal) error

	// SetStatus writes the mutated status history conditionally on
	// expectedVersion; a version mismatch yields
	// ErrCodeConcurrentModification and no write.
	SetStatus(ctx context.Context, a *Appeal, expectedVersion int) error

	// UpdateCaseDetails persists non-status aggregate fields (procedure,
	// start date, planning obligation) under the same version check.
	UpdateCaseDetails(ctx context.Context, a *Appeal, expectedVersion int) error

	// ListRepresentations returns the appeal's submissions matching filter.
	ListRepresentations(ctx context.Context, appealID common.ID, filter RepresentationFilter) ([]Representation, error)

	// SaveRepresentation upserts a submission record.
	SaveRepresentation(ctx context.Context, r *Representation) error

	// ListRule6Parties returns the appeal's registered third parties.
	ListRule6Parties(ctx context.Context, appealID common.ID) ([]Rule6Party, error)

	// SaveRule6Party upserts a third-party registration.
	SaveRule6Party(ctx context.Context, p *Rule6Party) error

	// DeleteRule6Party removes a registration outright. Callers must first
	// verify the party has no valid representations; withdrawn parties with
	// submissions on record are soft-unlinked via SaveRule6Party instead.
	DeleteRule6Party(ctx context.Context, partyID common.ID) error
}
