package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

type OccasionInvite struct {
	ID               string       `json:"id" db:"id"`
	OccasionID       string       `json:"occasion_id" db:"occasion_id"`
	OccasionName     string       `json:"occasion_name" db:"occasion_name"`
	OccasionEmoji    string       `json:"occasion_emoji" db:"occasion_emoji"`
	InvitedByUserID  string       `json:"invited_by_user_id" db:"invited_by_user_id"`
	InvitedByName    string       `json:"invited_by_name" db:"invited_by_name"`
	InvitedUserEmail string       `json:"invited_user_email" db:"invited_user_email"`
	InvitedUserID    *string      `json:"invited_user_id,omitempty" db:"invited_user_id"`
	Status           InviteStatus `json:"status" db:"status"`
	Token            string       `json:"-" db:"token"`
	ExpiresAt        time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
}

func (i *OccasionInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
