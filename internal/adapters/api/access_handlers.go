package api

import (
	"net/http"

	"rotafacil/internal/adapters/api/middleware"
	"rotafacil/internal/domain/access"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CheckAccess godoc
//
//	@Summary		Check access window
//	@Description	Reports whether the caller may use the platform now and the minutes left in the current window
//	@Tags			access
//	@Produce		json
//	@Success		200	{object}	access.Decision
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	access.Decision
//	@Failure		500	{object}	access.Decision
//	@Router			/check-access [get]
//	@Security		BearerAuth
func (h *Handler) CheckAccess(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
		return
	}

	// the dev mode user is virtual and cannot be looked up
	var decision access.Decision
	var err error
	if middleware.GetClaimsFromContext(c) != nil {
		decision, err = h.accessService.CheckAccess(c.Request.Context(), user.ID)
	} else {
		decision, err = h.accessService.EvaluateUser(c.Request.Context(), user)
	}
	if err != nil {
		// fail open: a broken check must not log everyone out
		log.Error().Err(err).Str("user_id", user.ID).Msg("check access failed")
		c.JSON(http.StatusInternalServerError, gin.H{"allowed": true, "minutesUntilEnd": nil})
		return
	}

	if !decision.Allowed {
		h.accessService.RecordDenial(c.Request.Context(), user.ID, c.Request.URL.Path, decision, middleware.RequestMeta(c))
		c.JSON(http.StatusForbidden, decision)
		return
	}
	c.JSON(http.StatusOK, decision)
}
