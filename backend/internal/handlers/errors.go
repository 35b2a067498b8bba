package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/services"
	"todo-manager/backend/internal/utils"
)

const (
	codeBadRequest   = "bad_request"
	codeValidation   = "validation_error"
	codeNotFound     = "not_found"
	codeForbidden    = "forbidden"
	codeConflict     = "conflict"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal_error"
)

func respondError(c *gin.Context, status int, code, message string) {
	middleware.AbortWithError(c, status, code, message)
}

// respondInternal logs err and hides it from the client.
func respondInternal(c *gin.Context, err error) {
	event := log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(c)).
		Str("method", c.Request.Method).
		Str("route", c.FullPath())
	if userID, uerr := middleware.GetUserID(c); uerr == nil {
		event = event.Uint("user_id", userID)
	}
	event.Msg("request failed")

	respondError(c, http.StatusInternalServerError, codeInternal, "Internal server error")
}

// respondServiceError maps the service error kinds onto the statuses a
// route family uses for them.
func respondServiceError(c *gin.Context, err error, notFoundStatus, invalidStatus int) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		respondError(c, invalidStatus, codeFor(invalidStatus), verr.Message)
		return
	}

	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		respondError(c, notFoundStatus, codeFor(notFoundStatus), nf.Message)
		return
	}

	respondInternal(c, err)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeValidation
	case http.StatusForbidden:
		return codeForbidden
	case http.StatusNotFound:
		return codeNotFound
	default:
		return codeBadRequest
	}
}

func badBody(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
}

// currentUser is only reached behind JWTAuth; a miss means a wiring bug.
func currentUser(c *gin.Context) (uint, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondInternal(c, err)
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		respondError(c, http.StatusNotFound, codeNotFound, "Resource not found")
		return 0, false
	}
	return id, true
}

// inTx runs fn in one transaction bound to the request context.
func inTx(c *gin.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(c.Request.Context()).Transaction(fn)
}
