package dto

import "time"

type BalanceResponseDTO struct {
	Points int64 `json:"points" example:"1250"`
}

type WithdrawRequestDTO struct {
	Method  string `json:"method" example:"Binance"`
	Account string `json:"account" example:"binance-pay-123456"`
}

type WithdrawalResponseDTO struct {
	ID           int        `json:"id" example:"17"`
	Method       string     `json:"method" example:"Binance"`
	Account      string     `json:"account" example:"binance-pay-123456"`
	AmountPoints int64      `json:"amount_points" example:"1000"`
	AmountUSD    string     `json:"amount_usd" example:"1.00"`
	Status       string     `json:"status" example:"pending"`
	CreatedAt    time.Time  `json:"created_at" example:"2020-12-09T16:09:57+03:00"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

type ResolveRequestDTO struct {
	Outcome string `json:"outcome" example:"completed"`
}

type ProfileDTO struct {
	BinanceID string `json:"binance_id" example:"binance-pay-123456"`
	PayeerID  string `json:"payeer_id" example:"P1234567"`
}
