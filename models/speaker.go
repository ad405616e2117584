package models

// Speaker is a member of a team who can be listed on a ballot.
type Speaker struct {
	ID     int    `json:"id" db:"id"`
	TeamID int    `json:"team_id" db:"team_id"`
	Name   string `json:"name" db:"name"`
}
