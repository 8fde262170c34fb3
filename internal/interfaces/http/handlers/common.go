// Package handlers implements the REST endpoints of the tender extraction
// API. Every handler speaks the APIResponse envelope and maps typed errors
// to HTTP statuses through the shared error-code table.
package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
	"github.com/turtacn/Tender-Intelligence/pkg/types/common"
)

// timeNow is swapped in tests for deterministic envelopes.
var timeNow = time.Now

func now() common.Timestamp {
	return common.Timestamp(timeNow())
}

// respond writes a success envelope.
func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, common.APIResponse[interface{}]{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
		Timestamp: now(),
	})
}

// respondPage writes a success envelope with pagination metadata.
func respondPage(c *gin.Context, data interface{}, page common.Pagination) {
	c.JSON(http.StatusOK, common.APIResponse[interface{}]{
		Success:    true,
		Data:       data,
		Pagination: &page,
		RequestID:  middleware.GetRequestID(c),
		Timestamp:  now(),
	})
}

// respondError maps the error chain to a status and writes the error
// envelope. Unknown errors become opaque 500s.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	detail := &common.ErrorDetail{
		Code:    code.String(),
		Message: errors.DefaultMessageForCode(code),
	}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		detail.Message = ae.Message
		if ae.Detail != "" {
			detail.Details = map[string]interface{}{"detail": ae.Detail}
		}
	}

	c.AbortWithStatusJSON(status, common.APIResponse[interface{}]{
		Success:   false,
		Error:     detail,
		RequestID: middleware.GetRequestID(c),
		Timestamp: now(),
	})
}

// respondBadRequest rejects malformed input before it reaches the service.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, errors.InvalidParam(message))
}

//Personal.AI order the ending
