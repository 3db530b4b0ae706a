package models

import "time"

// SecretSantaAssignment is one persisted giver -> receiver pair.
type SecretSantaAssignment struct {
	OccasionID string    `json:"occasion_id" db:"occasion_id"`
	GiverID    string    `json:"giver_id" db:"giver_id"`
	ReceiverID string    `json:"receiver_id" db:"receiver_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// MyAssignment is what a giver is allowed to see.
type MyAssignment struct {
	OccasionID   string `json:"occasion_id"`
	ReceiverID   string `json:"receiver_id"`
	ReceiverName string `json:"receiver_name"`
}

// MatchResult summarises a matching run without revealing any pair.
type MatchResult struct {
	OccasionID   string    `json:"occasion_id"`
	Participants int       `json:"participants"`
	MatchedAt    time.Time `json:"matched_at"`
}
