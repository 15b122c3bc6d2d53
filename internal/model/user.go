package model

import "time"

// User is a notification recipient resolved through the user directory.
type User struct {
	ID        int64
	Email     string
	Phone     string
	Name      string
	CreatedAt time.Time
}
