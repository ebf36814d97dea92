package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vittermi/FastFood/middlewares"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/services"
	"github.com/vittermi/FastFood/utils"
)

var errUnauthorized = errors.New("unauthorized")

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case services.KindInvalidState, services.KindInvalidTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondServiceError writes err with the status and kind of its OrderError.
// Internal errors are logged and reported without their cause.
func respondServiceError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	code := statusForKind(kind)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		utils.RespondErrorKind(c, code, string(services.KindInternal), errors.New("internal server error"))
		return
	}
	utils.RespondErrorKind(c, code, string(kind), err)
}

func mustActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middlewares.ActorFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}
