package handler

import (
	"net/http"

	"anoa.com/userservice/internal/modules/schedule/dto"
	schedule "anoa.com/userservice/internal/modules/schedule/service"
	"anoa.com/userservice/pkg/etag"
	"anoa.com/userservice/pkg/response"
	"anoa.com/userservice/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	service schedule.ScheduleService
}

func NewScheduleHandler(service schedule.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) List(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.ParamID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	schedules, err := h.service.List(c.Request.Context(), externalID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	etag.JSON(c, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.ParamID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.CreateScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Create(c.Request.Context(), externalID, userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	userID, err := response.ParamID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	scheduleID, err := response.ParamID(c, "schedule_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), externalID, userID, scheduleID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}
