package domain

import "time"

type User struct {
	ID           int       `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type Account struct {
	ID            int    `db:"id"`
	UserID        int    `db:"user_id"`
	PointsBalance int64  `db:"points_balance"`
	BinanceID     string `db:"binance_id"`
	PayeerID      string `db:"payeer_id"`
}

type Withdrawal struct {
	ID                int        `db:"id"`
	UserID            int        `db:"user_id"`
	Method            string     `db:"method"`
	AccountIdentifier string     `db:"account_identifier"`
	AmountPoints      int64      `db:"amount_points"`
	AmountUSD         string     `db:"amount_usd"`
	Status            string     `db:"status"`
	CreatedAt         time.Time  `db:"created_at"`
	ResolvedAt        *time.Time `db:"resolved_at"`
	NotifiedAt        *time.Time `db:"notified_at"`
}

type RewardEvent struct {
	ImpressionID string    `db:"impression_id"`
	UserID       int       `db:"user_id"`
	AmountPoints int64     `db:"amount_points"`
	CreditedAt   time.Time `db:"credited_at"`
}
