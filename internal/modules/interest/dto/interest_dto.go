package dto

import "anoa.com/userservice/internal/entity"

// ReplaceInterestsInput replaces the whole set; an empty list clears it.
type ReplaceInterestsInput struct {
	InterestIDs []int64 `json:"interest_ids" binding:"required,dive,gt=0"`
}

type InterestResponse struct {
	InterestID int64  `json:"interest_id"`
	Name       string `json:"name"`
}

func NewInterestResponses(interests []entity.Interest) []InterestResponse {
	res := make([]InterestResponse, 0, len(interests))
	for _, i := range interests {
		res = append(res, InterestResponse{InterestID: i.InterestID, Name: i.Name})
	}
	return res
}
