package models

import "time"

// Entry is one journal day as stored server-side. DocID is the natural key
// "{userID}_{date}" so every user owns at most one document per calendar day.
type Entry struct {
	DocID     string
	ID        string
	UserID    string
	Date      string
	Content   string
	Mood      *int
	Images    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MakeDocID builds the natural key for a user's calendar day.
func MakeDocID(userID, date string) string {
	return userID + "_" + date
}
