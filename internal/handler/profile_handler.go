package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/periodic-risk-go/internal/service"
	"github.com/jengzang/periodic-risk-go/pkg/response"
)

// ProfileHandler handles HTTP requests for risk profiles
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetProfile handles GET /api/v1/profiles/:account
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.Get(c.Request.Context(), c.Param("account"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, profile)
}

// DeleteProfile handles DELETE /api/admin/profiles/:account
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	if err := h.profileService.Delete(c.Request.Context(), c.Param("account")); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Profile deleted"})
}
