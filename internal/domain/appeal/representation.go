package appeal

import (
	"time"

	"github.com/openappeals/casework/pkg/types/common"
)

// RepresentationType classifies a party's formal written submission.
type RepresentationType string

const (
	RepresentationStatement       RepresentationType = "statement"
	RepresentationFinalComment    RepresentationType = "final_comment"
	RepresentationProofOfEvidence RepresentationType = "proof_of_evidence"
	RepresentationIPComment       RepresentationType = "interested_party_comment"
)

// RepresentationStatus is the review state of a submission. A submission
// whose redaction has been accepted is moved to valid; there is no separate
// redaction status.
type RepresentationStatus string

const (
	RepresentationAwaitingReview RepresentationStatus = "awaiting_review"
	RepresentationValid          RepresentationStatus = "valid"
	RepresentationIncomplete     RepresentationStatus = "incomplete"
	RepresentationInvalid        RepresentationStatus = "invalid"
	RepresentationRejected       RepresentationStatus = "rejected"
)

// Representation is a typed submission referenced to an appeal. RepresentedID
// identifies the Rule 6 party it belongs to; nil means it belongs to the
// lead authority or the appellant, distinguished by type and source.
type Representation struct {
	ID            common.ID            `json:"id"`
	AppealID      common.ID            `json:"appeal_id"`
	Type          RepresentationType   `json:"representation_type"`
	Status        RepresentationStatus `json:"status"`
	RepresentedID *common.ID           `json:"represented_id,omitempty"`

	// Source records which role lodged the submission when RepresentedID is
	// nil: "lpa" or "appellant".
	Source string `json:"source,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RepresentationFilter narrows repository listings.
type RepresentationFilter struct {
	Type   *RepresentationType
	Status *RepresentationStatus
}
