package dto

type RewardCallbackRequestDTO struct {
	UserID       int    `json:"user_id" example:"42"`
	ImpressionID string `json:"impression_id" example:"imp-8f2c1a"`
	AmountPoints int64  `json:"amount_points,omitempty" example:"5"`
}

type RewardCallbackResponseDTO struct {
	Balance int64 `json:"balance" example:"1255"`
}
