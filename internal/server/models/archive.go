package models

import "time"

// ArchiveRecord is a snapshot of a deleted entity that can later be
// restored once.
type ArchiveRecord struct {
	Base
	EntityType     Kind           `json:"entityType"`
	OriginalID     string         `json:"originalId"`
	Data           map[string]any `json:"data"`
	DeletedBy      string         `json:"deletedBy"`
	DeletionReason string         `json:"deletionReason"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	IsRestored     bool           `json:"isRestored"`
	RestoredAt     *time.Time     `json:"restoredAt"`
	RestoredBy     *string        `json:"restoredBy"`
}

// ArchiveView is an archive record with the display names of the users that
// deleted and restored it.
type ArchiveView struct {
	ArchiveRecord
	DeletedByName  string `json:"deletedByName"`
	RestoredByName string `json:"restoredByName,omitempty"`
}

// ArchiveSearchFields are matched by the archive free-text search.
var ArchiveSearchFields = []string{
	"originalId", "deletionReason",
	"data.firstName", "data.lastName", "data.middleName", "data.name",
	"data.title", "data.inmateName", "data.username", "data.clearanceId",
}
