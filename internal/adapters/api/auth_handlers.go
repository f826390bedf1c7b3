package api

import (
	"errors"
	"net/http"

	"rotafacil/internal/adapters/api/middleware"
	appauth "rotafacil/internal/application/auth"
	"rotafacil/internal/domain/access"
	"rotafacil/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// LoginRequest is the body of a login call
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest is the body of a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Authenticates with email and password. Refused outside the user's access schedule.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		LoginRequest	true	"Credentials"
//	@Success		200			{object}	appauth.LoginResult
//	@Failure		400			{object}	map[string]string
//	@Failure		401			{object}	map[string]string
//	@Failure		403			{object}	map[string]string
//	@Failure		429			{object}	map[string]string
//	@Router			/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email e senha são obrigatórios"})
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, middleware.RequestMeta(c))
	if err != nil {
		var denied *access.DeniedError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou senha inválidos"})
		case errors.Is(err, auth.ErrUserInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "Usuário inativo"})
		case errors.As(err, &denied):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   denied.Message,
				"message": denied.Message,
				"reason":  "access_schedule_restriction",
			})
		default:
			log.Error().Err(err).Msg("login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno do servidor"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Closes the session the bearer token belongs to
//	@Tags			auth
//	@Success		204
//	@Failure		401	{object}	map[string]string
//	@Router			/auth/logout [post]
//	@Security		BearerAuth
func (h *Handler) Logout(c *gin.Context) {
	var sessionID string
	if claims := middleware.GetClaimsFromContext(c); claims != nil {
		sessionID = claims.SessionID
	}
	if err := h.authService.Logout(c.Request.Context(), currentUserID(c), sessionID, middleware.RequestMeta(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Me godoc
//
//	@Summary		Current user
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	auth.User
//	@Failure		401	{object}	map[string]string
//	@Router			/auth/me [get]
//	@Security		BearerAuth
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetUserFromContext(c))
}

// ChangePassword godoc
//
//	@Summary		Change password
//	@Description	Replaces the caller's password and revokes all of their sessions
//	@Tags			auth
//	@Accept			json
//	@Param			body	body	ChangePasswordRequest	true	"Passwords"
//	@Success		204
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Router			/auth/password [put]
//	@Security		BearerAuth
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword, middleware.RequestMeta(c))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Senha atual incorreta"})
	case errors.Is(err, appauth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
