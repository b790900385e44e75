package models

import "time"

// RefreshToken is stored with the opaque token as its id.
type RefreshToken struct {
	Base
	UserID  string    `json:"userId"`
	Expires time.Time `json:"expires"`
}
