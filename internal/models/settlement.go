package models

import "time"

// Settlement is a directed debt-clearing instruction: FromPlayerID pays
// ToPlayerID Amount. Unsettled rows are disposable proposals replaced on
// every recompute; once Settled is set the row is permanent and its amount
// is netted out of future recomputes. SettledDate is stamped exactly once.
type Settlement struct {
	ID           string     `json:"id"`
	GroupID      string     `json:"group_id"`
	FromPlayerID string     `json:"from_player_id"`
	ToPlayerID   string     `json:"to_player_id"`
	Amount       float64    `json:"amount"`
	Settled      bool       `json:"settled"`
	SettledDate  *time.Time `json:"settled_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
