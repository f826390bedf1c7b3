package api

import (
	"errors"
	"net/http"

	"rotafacil/internal/adapters/api/middleware"
	"rotafacil/internal/domain/access"

	"github.com/gin-gonic/gin"
)

func scheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Tabela de horário não encontrada"})
	case errors.Is(err, access.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListSchedules godoc
//
//	@Summary		List access schedules
//	@Description	Lists the access schedules created by the calling administrator
//	@Tags			access-schedules
//	@Produce		json
//	@Success		200	{array}		access.Schedule
//	@Failure		403	{object}	map[string]string
//	@Router			/access-schedules [get]
//	@Security		BearerAuth
func (h *Handler) ListSchedules(c *gin.Context) {
	schedules, err := h.accessService.ListSchedules(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schedules)
}

// GetSchedule godoc
//
//	@Summary		Get access schedule
//	@Tags			access-schedules
//	@Produce		json
//	@Param			scheduleId	path		string	true	"Schedule ID"
//	@Success		200			{object}	access.Schedule
//	@Failure		404			{object}	map[string]string
//	@Router			/access-schedules/{scheduleId} [get]
//	@Security		BearerAuth
func (h *Handler) GetSchedule(c *gin.Context) {
	schedule, err := h.accessService.GetSchedule(c.Request.Context(), c.Param("scheduleId"))
	if err != nil {
		scheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// CreateSchedule godoc
//
//	@Summary		Create access schedule
//	@Description	Creates a weekly access table. Keys of "schedules" are sunday..saturday, each a list of HH:MM windows.
//	@Tags			access-schedules
//	@Accept			json
//	@Produce		json
//	@Param			schedule	body		access.ScheduleCreateRequest	true	"Schedule"
//	@Success		201			{object}	access.Schedule
//	@Failure		400			{object}	map[string]string
//	@Router			/access-schedules [post]
//	@Security		BearerAuth
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req access.ScheduleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := h.accessService.CreateSchedule(c.Request.Context(), currentUserID(c), &req, middleware.RequestMeta(c))
	if err != nil {
		scheduleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// UpdateSchedule godoc
//
//	@Summary		Update access schedule
//	@Description	Connected users bound to the schedule are told to re-check their access
//	@Tags			access-schedules
//	@Accept			json
//	@Produce		json
//	@Param			scheduleId	path		string							true	"Schedule ID"
//	@Param			schedule	body		access.ScheduleUpdateRequest	true	"Changes"
//	@Success		200			{object}	access.Schedule
//	@Failure		400			{object}	map[string]string
//	@Failure		404			{object}	map[string]string
//	@Router			/access-schedules/{scheduleId} [put]
//	@Security		BearerAuth
func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req access.ScheduleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := h.accessService.UpdateSchedule(c.Request.Context(), c.Param("scheduleId"), &req, currentUserID(c), middleware.RequestMeta(c))
	if err != nil {
		scheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// DeleteSchedule godoc
//
//	@Summary		Delete access schedule
//	@Description	Users bound to the schedule become unrestricted
//	@Tags			access-schedules
//	@Param			scheduleId	path	string	true	"Schedule ID"
//	@Success		204
//	@Failure		404	{object}	map[string]string
//	@Router			/access-schedules/{scheduleId} [delete]
//	@Security		BearerAuth
func (h *Handler) DeleteSchedule(c *gin.Context) {
	if err := h.accessService.DeleteSchedule(c.Request.Context(), c.Param("scheduleId"), currentUserID(c), middleware.RequestMeta(c)); err != nil {
		scheduleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
