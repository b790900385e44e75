// Package models defines the server-side records persisted in the document
// store and the enums shared by services, policy and the HTTP layer.
package models

import "fmt"

// Kind identifies an entity type. The string values are the ones stored in
// archive records under entityType.
type Kind string

const (
	KindPrison       Kind = "prison"
	KindInmate       Kind = "inmate"
	KindWoredaInmate Kind = "woredaInmate"
	KindNotice       Kind = "notice"
	KindClearance    Kind = "clearance"
	KindVisitor      Kind = "visitor"
	KindReport       Kind = "report"
	KindTransfer     Kind = "transfer"
	KindIncident     Kind = "incident"
	KindUser         Kind = "user"
	KindParoleRecord Kind = "paroleRecord"
)

// ArchiveKinds are the kinds that may appear in an archive record, in a
// stable order.
var ArchiveKinds = []Kind{
	KindPrison, KindInmate, KindWoredaInmate, KindNotice, KindClearance,
	KindVisitor, KindReport, KindTransfer, KindIncident, KindUser,
}

var collections = map[Kind]string{
	KindPrison:       "prisons",
	KindInmate:       "inmates",
	KindWoredaInmate: "woreda_inmates",
	KindNotice:       "notices",
	KindClearance:    "clearances",
	KindVisitor:      "visitors",
	KindReport:       "reports",
	KindTransfer:     "transfers",
	KindIncident:     "incidents",
	KindUser:         "users",
	KindParoleRecord: "parole_records",
}

// Collection names that are not tied to an entity kind.
const (
	CollectionArchives      = "archives"
	CollectionRefreshTokens = "refresh_tokens"
)

// Collection returns the store collection holding records of k.
func (k Kind) Collection() string { return collections[k] }

// Archivable reports whether deleting a record of k snapshots it first.
func (k Kind) Archivable() bool {
	for _, a := range ArchiveKinds {
		if a == k {
			return true
		}
	}
	return false
}

func (k Kind) Valid() bool {
	_, ok := collections[k]
	return ok
}

// ParseArchiveKind accepts only archive-participating kinds.
func ParseArchiveKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Archivable() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return k, nil
}

// AllCollections lists every collection the server writes to.
func AllCollections() []string {
	out := make([]string, 0, len(collections)+2)
	for _, k := range append(append([]Kind{}, ArchiveKinds...), KindParoleRecord) {
		out = append(out, k.Collection())
	}
	return append(out, CollectionArchives, CollectionRefreshTokens)
}
