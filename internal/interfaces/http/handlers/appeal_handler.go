package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openappeals/casework/internal/application/casework"
	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/audit"
	"github.com/openappeals/casework/internal/domain/exchange"
	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// CaseworkService is the application surface the HTTP layer depends on.
type CaseworkService interface {
	CreateAppeal(ctx context.Context, reference string, caseType appeal.CaseType, appellant, lpa appeal.Party, actor common.UserID) (*appeal.Appeal, error)
	GetAppeal(ctx context.Context, id common.ID) (*appeal.Appeal, error)
	AllowedTransitions(ctx context.Context, appealID common.ID) ([]appeal.Status, error)
	Transition(ctx context.Context, appealID common.ID, target appeal.Status, actor common.UserID) (*appeal.Appeal, error)
	Reopen(ctx context.Context, appealID common.ID, actor common.UserID) (*appeal.Appeal, error)
	StartCase(ctx context.Context, in casework.StartCaseInput) (*appeal.Appeal, error)
	ChangeProcedure(ctx context.Context, appealID common.ID, procedure appeal.ProcedureType, actor common.UserID) (*timetable.Timetable, error)
	IssueDecision(ctx context.Context, appealID common.ID, outcome casework.DecisionOutcome, costsApplied bool, actor common.UserID) (*appeal.Appeal, error)
	GetTimetable(ctx context.Context, appealID common.ID) (*timetable.Timetable, error)
	PublishStage(ctx context.Context, appealID common.ID, stage exchange.Stage, actor common.UserID) (*casework.PublishResult, error)
	ListAudit(ctx context.Context, appealID common.ID, p common.Pagination) ([]audit.Entry, error)
	ListRule6Parties(ctx context.Context, appealID common.ID) ([]appeal.Rule6Party, error)
	RegisterRule6Party(ctx context.Context, appealID common.ID, organisation, email string, actor common.UserID) (*appeal.Rule6Party, error)
	RemoveRule6Party(ctx context.Context, appealID, partyID common.ID, actor common.UserID) error
	SubmitRepresentation(ctx context.Context, r *appeal.Representation) error
	ReviewRepresentation(ctx context.Context, appealID, repID common.ID, status appeal.RepresentationStatus) error
}

var _ CaseworkService = (*casework.Service)(nil)

// AppealHandler serves the appeal lifecycle endpoints.
type AppealHandler struct {
	svc    CaseworkService
	logger logging.Logger
}

// NewAppealHandler constructs the handler.
func NewAppealHandler(svc CaseworkService, log logging.Logger) *AppealHandler {
	return &AppealHandler{svc: svc, logger: log.Named("appeal_handler")}
}

// RegisterRoutes mounts all appeal routes under the given group.
func (h *AppealHandler) RegisterRoutes(rg *gin.RouterGroup) {
	appeals := rg.Group("/appeals")
	{
		appeals.POST("", h.CreateAppeal)
		appeals.GET("/:id", h.GetAppeal)
		appeals.GET("/:id/transitions", h.AllowedTransitions)
		appeals.POST("/:id/transitions", h.Transition)
		appeals.POST("/:id/reopen", h.Reopen)
		appeals.POST("/:id/start", h.StartCase)
		appeals.PUT("/:id/procedure", h.ChangeProcedure)
		appeals.POST("/:id/decision", h.IssueDecision)
		appeals.GET("/:id/timetable", h.GetTimetable)
		appeals.POST("/:id/publish", h.PublishStage)
		appeals.GET("/:id/audit", h.ListAudit)

		appeals.GET("/:id/rule6-parties", h.ListRule6Parties)
		appeals.POST("/:id/rule6-parties", h.RegisterRule6Party)
		appeals.DELETE("/:id/rule6-parties/:partyID", h.RemoveRule6Party)

		appeals.POST("/:id/representations", h.SubmitRepresentation)
		appeals.PUT("/:id/representations/:repID/status", h.ReviewRepresentation)
	}
}

type createAppealRequest struct {
	Reference string          `json:"reference" binding:"required"`
	CaseType  appeal.CaseType `json:"case_type" binding:"required"`
	Appellant appeal.Party    `json:"appellant" binding:"required"`
	LPA       appeal.Party    `json:"lpa" binding:"required"`
}

// CreateAppeal registers a new appeal in the ready-to-start state.
func (h *AppealHandler) CreateAppeal(c *gin.Context) {
	var req createAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	a, err := h.svc.CreateAppeal(c.Request.Context(), req.Reference, req.CaseType, req.Appellant, req.LPA, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GetAppeal returns the full aggregate including status history.
func (h *AppealHandler) GetAppeal(c *gin.Context) {
	a, err := h.svc.GetAppeal(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AllowedTransitions returns the target statuses reachable from the current one.
func (h *AppealHandler) AllowedTransitions(c *gin.Context) {
	targets, err := h.svc.AllowedTransitions(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": targets})
}

type transitionRequest struct {
	Target appeal.Status `json:"target" binding:"required"`
}

// Transition moves the appeal to the requested status.
func (h *AppealHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	a, err := h.svc.Transition(c.Request.Context(), common.ID(c.Param("id")), req.Target, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Reopen applies the corrective reopen edge for a terminal appeal.
func (h *AppealHandler) Reopen(c *gin.Context) {
	a, err := h.svc.Reopen(c.Request.Context(), common.ID(c.Param("id")), actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type startCaseRequest struct {
	Procedure          appeal.ProcedureType `json:"procedure" binding:"required"`
	PlanningObligation bool                 `json:"planning_obligation"`
	StartDate          *time.Time           `json:"start_date,omitempty"`
}

// StartCase decides the procedure, computes the timetable and opens the
// questionnaire stage.
func (h *AppealHandler) StartCase(c *gin.Context) {
	var req startCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	in := casework.StartCaseInput{
		AppealID:           common.ID(c.Param("id")),
		Procedure:          req.Procedure,
		PlanningObligation: req.PlanningObligation,
		Actor:              actor(c),
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}
	a, err := h.svc.StartCase(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type changeProcedureRequest struct {
	Procedure appeal.ProcedureType `json:"procedure" binding:"required"`
}

// ChangeProcedure switches the procedure and returns the recomputed timetable.
func (h *AppealHandler) ChangeProcedure(c *gin.Context) {
	var req changeProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	tt, err := h.svc.ChangeProcedure(c.Request.Context(), common.ID(c.Param("id")), req.Procedure, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tt)
}

type issueDecisionRequest struct {
	Outcome      casework.DecisionOutcome `json:"outcome" binding:"required"`
	CostsApplied bool                     `json:"costs_applied"`
}

// IssueDecision records the inspector's determination.
func (h *AppealHandler) IssueDecision(c *gin.Context) {
	var req issueDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	a, err := h.svc.IssueDecision(c.Request.Context(), common.ID(c.Param("id")), req.Outcome, req.CostsApplied, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetTimetable returns the computed deadlines for an appeal.
func (h *AppealHandler) GetTimetable(c *gin.Context) {
	tt, err := h.svc.GetTimetable(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tt)
}

type publishStageRequest struct {
	Stage exchange.Stage `json:"stage" binding:"required"`
}

// PublishStage shares a closed stage with every required party.
func (h *AppealHandler) PublishStage(c *gin.Context) {
	var req publishStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	res, err := h.svc.PublishStage(c.Request.Context(), common.ID(c.Param("id")), req.Stage, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListAudit returns the appeal's audit trail, newest first.
func (h *AppealHandler) ListAudit(c *gin.Context) {
	entries, err := h.svc.ListAudit(c.Request.Context(), common.ID(c.Param("id")), parsePagination(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ListRule6Parties returns every Rule 6 party on the appeal.
func (h *AppealHandler) ListRule6Parties(c *gin.Context) {
	parties, err := h.svc.ListRule6Parties(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parties": parties})
}

type registerRule6Request struct {
	Organisation string `json:"organisation" binding:"required"`
	Email        string `json:"email" binding:"required"`
}

// RegisterRule6Party grants Rule 6 status to an organisation.
func (h *AppealHandler) RegisterRule6Party(c *gin.Context) {
	var req registerRule6Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	party, err := h.svc.RegisterRule6Party(c.Request.Context(), common.ID(c.Param("id")), req.Organisation, req.Email, actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, party)
}

// RemoveRule6Party withdraws a party, refusing when valid submissions exist.
func (h *AppealHandler) RemoveRule6Party(c *gin.Context) {
	err := h.svc.RemoveRule6Party(c.Request.Context(),
		common.ID(c.Param("id")), common.ID(c.Param("partyID")), actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type submitRepresentationRequest struct {
	Type          appeal.RepresentationType `json:"representation_type" binding:"required"`
	RepresentedID *common.ID                `json:"represented_id,omitempty"`
	Source        string                    `json:"source,omitempty"`
}

// SubmitRepresentation lodges a submission for review.
func (h *AppealHandler) SubmitRepresentation(c *gin.Context) {
	var req submitRepresentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	rep := &appeal.Representation{
		AppealID:      common.ID(c.Param("id")),
		Type:          req.Type,
		RepresentedID: req.RepresentedID,
		Source:        req.Source,
	}
	if err := h.svc.SubmitRepresentation(c.Request.Context(), rep); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

type reviewRepresentationRequest struct {
	Status appeal.RepresentationStatus `json:"status" binding:"required"`
}

// ReviewRepresentation records the review outcome for a submission.
func (h *AppealHandler) ReviewRepresentation(c *gin.Context) {
	var req reviewRepresentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.InvalidParam(err.Error()))
		return
	}
	err := h.svc.ReviewRepresentation(c.Request.Context(),
		common.ID(c.Param("id")), common.ID(c.Param("repID")), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
