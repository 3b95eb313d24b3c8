package models

import "time"

// User is an identity row. Anonymous users have no username or password hash
// until they link an account; linking keeps the same id.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Anonymous    bool
	CreatedAt    time.Time
}
