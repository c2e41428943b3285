package handler

import (
	"context"
	"net/http"

	"anoa.com/userservice/internal/modules/friendship/dto"
	friendship "anoa.com/userservice/internal/modules/friendship/service"
	"anoa.com/userservice/pkg/response"
	"anoa.com/userservice/pkg/validator"
	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	service friendship.FriendshipService
}

func NewFriendshipHandler(service friendship.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{service: service}
}

func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.SendRequest(c.Request.Context(), externalID, input.ToUserID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *FriendshipHandler) ListPendingIncoming(c *gin.Context) {
	h.list(c, h.service.ListPendingIncoming)
}

func (h *FriendshipHandler) ListPendingOutgoing(c *gin.Context) {
	h.list(c, h.service.ListPendingOutgoing)
}

func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	h.list(c, h.service.ListFriends)
}

func (h *FriendshipHandler) list(c *gin.Context, find func(ctx context.Context, externalID string) ([]dto.FriendshipEntry, error)) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	entries, err := find(c.Request.Context(), externalID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *FriendshipHandler) Accept(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := response.ParamID(c, "friendship_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.Accept(c.Request.Context(), externalID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *FriendshipHandler) Reject(c *gin.Context) {
	h.delete(c, h.service.Reject, "friend request rejected")
}

func (h *FriendshipHandler) RemoveFriend(c *gin.Context) {
	h.delete(c, h.service.RemoveFriend, "friend removed")
}

func (h *FriendshipHandler) delete(c *gin.Context, op func(ctx context.Context, externalID string, id int64) error, message string) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := response.ParamID(c, "friendship_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := op(c.Request.Context(), externalID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *FriendshipHandler) Search(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	results, err := h.service.Search(c.Request.Context(), externalID, c.Query("q"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
