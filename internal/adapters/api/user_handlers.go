package api

import (
	"errors"
	"net/http"

	"rotafacil/internal/adapters/api/middleware"
	appauth "rotafacil/internal/application/auth"
	"rotafacil/internal/domain/access"
	"rotafacil/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// AssignScheduleRequest binds a user to a schedule; null removes the restriction
type AssignScheduleRequest struct {
	AccessScheduleID *string `json:"access_schedule_id"`
}

func userError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email já cadastrado"})
	case errors.Is(err, access.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tabela de horário não encontrada"})
	case errors.Is(err, appauth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListUsers godoc
// @Summary      List accounts
// @Description  Every account with its role and bound access schedule (admin only)
// @Tags         users
// @Produce      json
// @Success      200 {array} auth.User
// @Failure      403 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /users [get]
// @Security     BearerAuth
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary      Get account
// @Description  One account with its role and bound access schedule (admin only)
// @Tags         users
// @Produce      json
// @Param        userId path string true "Account ID"
// @Success      200 {object} auth.User
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/{userId} [get]
// @Security     BearerAuth
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.authService.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		userError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary      Create user
// @Description  Create an account, optionally bound to an access schedule (admin only)
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user body auth.UserCreateRequest true "User creation request"
// @Success      201 {object} auth.User
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /users [post]
// @Security     BearerAuth
func (h *Handler) CreateUser(c *gin.Context) {
	var req auth.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != "" && !auth.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	if req.AccessScheduleID != nil && *req.AccessScheduleID != "" {
		if _, err := h.accessService.GetSchedule(c.Request.Context(), *req.AccessScheduleID); err != nil {
			userError(c, err)
			return
		}
	}

	user, err := h.authService.CreateUser(c.Request.Context(), &req, currentUserID(c), middleware.RequestMeta(c))
	if err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary      Update account
// @Description  Update user name, role or active flag (admin only). Deactivation ends the user's sessions.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId path string true "Account ID"
// @Param        user body auth.UserUpdateRequest true "Fields to change"
// @Success      200 {object} auth.User
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/{userId} [put]
// @Security     BearerAuth
func (h *Handler) UpdateUser(c *gin.Context) {
	var req auth.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != "" && !auth.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	user, err := h.authService.UpdateUser(c.Request.Context(), c.Param("userId"), &req, currentUserID(c), middleware.RequestMeta(c))
	if err != nil {
		userError(c, err)
		return
	}
	if req.IsActive != nil && !*req.IsActive {
		h.wsManager.NotifyUsers(user.ID)
	}

	c.JSON(http.StatusOK, user)
}

// AssignSchedule godoc
// @Summary      Assign access schedule
// @Description  Bind a user to an access schedule, or send null to remove the restriction (admin only)
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId path string true "Account ID"
// @Param        body body AssignScheduleRequest true "Schedule assignment"
// @Success      200 {object} auth.User
// @Failure      400 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /users/{userId}/access-schedule [put]
// @Security     BearerAuth
func (h *Handler) AssignSchedule(c *gin.Context) {
	var req AssignScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accessService.AssignSchedule(c.Request.Context(), c.Param("userId"), req.AccessScheduleID, currentUserID(c), middleware.RequestMeta(c))
	if err != nil {
		userError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
