package models

import "time"

// Session is one poker night. Balance rows are stored net of buy-in
// (cash-out minus buy-in), so a player's raw balance is just the sum of
// their Balance.Amount across the group's sessions.
type Session struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	BuyIn     float64   `json:"buy_in"`
	Balances  []Balance `json:"balances,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Balance struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	PlayerID  string  `json:"player_id"`
	Amount    float64 `json:"amount"`
}

// PlayerBalance is one (player, amount) pair as read back for settlement
// computation; Amount here is a single session row, not an aggregate.
type PlayerBalance struct {
	PlayerID string  `json:"player_id"`
	Amount   float64 `json:"amount"`
}
