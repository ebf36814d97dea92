package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vittermi/FastFood/services"
	"github.com/vittermi/FastFood/utils"
)

type PreferenceController struct {
	Service *services.PreferenceService
}

func NewPreferenceController(service *services.PreferenceService) *PreferenceController {
	return &PreferenceController{Service: service}
}

func (pc *PreferenceController) GetPreferences(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	pref, err := pc.Service.Get(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Preferences", pref)
}

// SavePreferences -> PUT /api/preferences, replaces consents and payment method
func (pc *PreferenceController) SavePreferences(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var body services.PreferenceInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondErrorKind(c, http.StatusBadRequest, string(services.KindBadRequest), err)
		return
	}

	pref, err := pc.Service.Save(c.Request.Context(), actor, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Preferences saved", pref)
}
