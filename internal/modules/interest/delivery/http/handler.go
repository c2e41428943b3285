package handler

import (
	"net/http"

	"anoa.com/userservice/internal/modules/interest/dto"
	interest "anoa.com/userservice/internal/modules/interest/service"
	"anoa.com/userservice/pkg/response"
	"anoa.com/userservice/pkg/validator"
	"github.com/gin-gonic/gin"
)

type InterestHandler struct {
	service interest.InterestService
}

func NewInterestHandler(service interest.InterestService) *InterestHandler {
	return &InterestHandler{service: service}
}

func (h *InterestHandler) ListAll(c *gin.Context) {
	interests, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, interests)
}

func (h *InterestHandler) ListForUser(c *gin.Context) {
	userID, err := response.ParamID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	interests, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, interests)
}

func (h *InterestHandler) Replace(c *gin.Context) {
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

	var input dto.ReplaceInterestsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	interests, err := h.service.ReplaceForUser(c.Request.Context(), externalID, userID, input.InterestIDs)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, interests)
}
