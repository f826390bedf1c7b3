package api

import (
	"net/http"

	"rotafacil/internal/adapters/api/middleware"
	"rotafacil/internal/application/access"
	"rotafacil/internal/application/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	_ "rotafacil/docs" // swagger docs
)

// Handler handles HTTP requests for the access API
type Handler struct {
	authService   *auth.Service
	accessService *access.Service
	loginLimiter  *LoginRateLimiter
	wsManager     *WebSocketManager
}

// NewHandler creates a new API handler and registers its websocket manager
// as the access service's notifier
func NewHandler(authService *auth.Service, accessService *access.Service, loginLimiter *LoginRateLimiter) *Handler {
	h := &Handler{
		authService:   authService,
		accessService: accessService,
		loginLimiter:  loginLimiter,
		wsManager:     NewWebSocketManager(),
	}
	accessService.SetWebSocketNotifier(h.wsManager)
	return h
}

// WebSocketManager returns the push connection registry
func (h *Handler) WebSocketManager() *WebSocketManager {
	return h.wsManager
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine, authMiddleware, requireAdmin, requireAccessWindow gin.HandlerFunc) {
	api := r.Group("/api/v1")
	{
		api.GET("/health", h.Health)
		api.POST("/auth/login", h.loginLimiter.Middleware(), h.Login)
		api.GET("/ws", h.HandleWebSocketToken) // token-based (?token=...)

		protected := api.Group("", authMiddleware)
		{
			// reachable outside the access window so clients can learn why and leave
			protected.GET("/check-access", h.CheckAccess)
			protected.POST("/auth/logout", h.Logout)

			windowed := protected.Group("", requireAccessWindow)
			{
				windowed.GET("/auth/me", h.Me)
				windowed.PUT("/auth/password", h.ChangePassword)

				admin := windowed.Group("", requireAdmin)
				{
					schedules := admin.Group("/access-schedules")
					{
						schedules.GET("", h.ListSchedules)
						schedules.POST("", h.CreateSchedule)
						schedules.GET("/:scheduleId", h.GetSchedule)
						schedules.PUT("/:scheduleId", h.UpdateSchedule)
						schedules.DELETE("/:scheduleId", h.DeleteSchedule)
					}

					users := admin.Group("/users")
					{
						users.GET("", h.ListUsers)
						users.POST("", h.CreateUser)
						users.GET("/:userId", h.GetUser)
						users.PUT("/:userId", h.UpdateUser)
						users.PUT("/:userId/access-schedule", h.AssignSchedule)
					}

					admin.GET("/audit", h.ListAudit)
				}
			}
		}
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Health godoc
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func currentUserID(c *gin.Context) string {
	if u := middleware.GetUserFromContext(c); u != nil {
		return u.ID
	}
	return ""
}
