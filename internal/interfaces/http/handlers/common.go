// Package handlers contains the gin HTTP handlers for the casework API.
package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/internal/interfaces/http/middleware"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error     common.ErrorDetail `json:"error"`
	RequestID string             `json:"request_id,omitempty"`
}

// respondError maps an error onto its HTTP status and writes the standard
// error body. Non-AppError failures come out as 500s with the unknown code.
func respondError(c *gin.Context, log logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)

	detail := common.ErrorDetail{
		Code:    string(code),
		Message: err.Error(),
	}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		detail.Message = ae.Message
		detail.Detail = ae.Detail
	}

	if status >= http.StatusInternalServerError {
		log.Error("request error", logging.Err(err), logging.String("code", string(code)))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     detail,
		RequestID: middleware.GetRequestID(c),
	})
}

// actor resolves the acting user from the request headers. Defaults to
// "system" so audit entries always name an actor.
func actor(c *gin.Context) common.UserID {
	if id := c.GetHeader(middleware.ActorHeader); id != "" {
		return common.UserID(id)
	}
	return "system"
}

// parsePagination reads page and page_size query parameters with defaults.
func parsePagination(c *gin.Context) common.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}
	return common.Pagination{Page: page, PageSize: size}
}
