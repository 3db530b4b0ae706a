package models

import "time"

// OccasionType соответствует ENUM occasion_type в БД.
type OccasionType string

const (
	OccasionBirthday    OccasionType = "birthday"
	OccasionValentine   OccasionType = "valentine"
	OccasionAnniversary OccasionType = "anniversary"
	OccasionChristmas   OccasionType = "christmas"
	OccasionWedding     OccasionType = "wedding"
	OccasionGraduation  OccasionType = "graduation"
	OccasionSecretSanta OccasionType = "secret_santa"
	OccasionOther       OccasionType = "other"
)

var occasionEmoji = map[OccasionType]string{
	OccasionBirthday:    "🎂",
	OccasionValentine:   "💝",
	OccasionAnniversary: "💐",
	OccasionChristmas:   "🎄",
	OccasionWedding:     "💍",
	OccasionGraduation:  "🎓",
	OccasionSecretSanta: "🎅",
	OccasionOther:       "🎁",
}

// Accents the clients know how to render.
var OccasionAccents = []string{"primary", "secondary", "accent"}

func (t OccasionType) Valid() bool {
	_, ok := occasionEmoji[t]
	return ok
}

// Emoji returns the icon shown next to the occasion, falling back to a gift.
func (t OccasionType) Emoji() string {
	if e, ok := occasionEmoji[t]; ok {
		return e
	}
	return occasionEmoji[OccasionOther]
}

type Occasion struct {
	ID          string       `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Budget      *float64     `json:"budget,omitempty" db:"budget"`
	Date        *string      `json:"date,omitempty" db:"date"` // YYYY-MM-DD
	Type        OccasionType `json:"type" db:"type"`
	Emoji       string       `json:"emoji" db:"emoji"`
	Accent      string       `json:"accent" db:"accent"`
	CreatedBy   string       `json:"created_by" db:"created_by"`
	CreatorName string       `json:"creator_name" db:"creator_name"`
	IsPrivate   bool         `json:"is_private" db:"is_private"`
	Matched     bool         `json:"matched" db:"matched"`
	MatchedAt   *time.Time   `json:"matched_at,omitempty" db:"matched_at"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`

	Members []OccasionMember `json:"members,omitempty" db:"-"`
}

type OccasionMember struct {
	OccasionID string    `json:"-" db:"occasion_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email,omitempty" db:"email"`
	JoinedAt   time.Time `json:"joined_at" db:"joined_at"`
}

// HasMember reports whether userID is in the loaded member list.
func (o *Occasion) HasMember(userID string) bool {
	for _, m := range o.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
