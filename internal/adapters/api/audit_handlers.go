package api

import (
	"net/http"
	"strconv"

	"rotafacil/internal/domain/audit"

	"github.com/gin-gonic/gin"
)

// ListAudit godoc
//
//	@Summary		List audit log
//	@Description	Returns the newest audit entries first
//	@Tags			audit
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries (max 1000)"	default(100)
//	@Success		200		{array}		audit.Entry
//	@Failure		400		{object}	map[string]string
//	@Router			/audit [get]
//	@Security		BearerAuth
func (h *Handler) ListAudit(c *gin.Context) {
	limit := audit.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = audit.ClampLimit(n)
	}

	entries, err := h.accessService.ListAuditEntries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}
