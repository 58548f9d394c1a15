package models

// User is the minimal slice of a party user the tournament core needs:
// identity and a display name. Account management lives elsewhere.
type User struct {
	ID       int     `json:"id" db:"id"`
	Nickname *string `json:"nickname,omitempty" db:"nickname"`
}
