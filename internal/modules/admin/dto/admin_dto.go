package dto

type UpdateRoleInput struct {
	Role string `form:"role" binding:"required"`
}

type RoleUpdateResponse struct {
	Status      string `json:"status"`
	UserID      int64  `json:"user_id"`
	FirebaseUID string `json:"firebase_uid"`
	Role        string `json:"role"`
	ClaimSync   string `json:"claim_sync"`
}
