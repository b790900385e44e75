package models

import "time"

// UploadTicket is a presigned object-storage URL for one object key.
type UploadTicket struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}
