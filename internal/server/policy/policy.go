// Package policy decides which archive and entity operations a role may
// perform. Every decision is a pure function of its inputs over static
// tables, so it can be tested without a store or a transport.
package policy

import (
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
)

// Action is an archive operation.
type Action string

const (
	ActionList    Action = "list"
	ActionView    Action = "view"
	ActionRestore Action = "restore"
	ActionDelete  Action = "delete"
	ActionArchive Action = "archive"
)

// Actions in a stable order.
var Actions = []Action{ActionList, ActionView, ActionRestore, ActionDelete, ActionArchive}

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

type grant struct {
	all   bool
	kinds []models.Kind
	// owner lists actions that require the caller to be the original deleter.
	owner map[Action]bool
	// waived lifts the ownership requirement for specific action/kind pairs.
	waived map[Action][]models.Kind
}

var mutating = map[Action]bool{ActionRestore: true, ActionDelete: true, ActionArchive: true}

var ownedEverything = map[Action]bool{
	ActionList: true, ActionView: true, ActionRestore: true, ActionDelete: true, ActionArchive: true,
}

var archiveGrants = map[models.Role]grant{
	models.RoleAdmin: {all: true},
	models.RoleInspector: {
		kinds: []models.Kind{models.KindPrison, models.KindNotice},
		owner: mutating,
	},
	models.RoleSecurity: {
		kinds: []models.Kind{
			models.KindClearance, models.KindInmate, models.KindVisitor,
			models.KindTransfer, models.KindReport,
		},
		owner:  mutating,
		waived: map[Action][]models.Kind{ActionDelete: {models.KindInmate, models.KindClearance}},
	},
	models.RolePoliceOfficer: {
		kinds: []models.Kind{models.KindIncident, models.KindVisitor, models.KindTransfer},
		owner: ownedEverything,
	},
	models.RoleCourt: {
		kinds: []models.Kind{models.KindClearance},
		owner: ownedEverything,
	},
	models.RoleWoreda: {
		kinds: []models.Kind{models.KindWoredaInmate},
		owner: ownedEverything,
	},
}

func contains(kinds []models.Kind, k models.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Decide reports whether role may perform action on an archive record of
// kind. isOwner is true when the caller is the record's original deleter.
func Decide(role models.Role, action Action, kind models.Kind, isOwner bool) Decision {
	g, ok := archiveGrants[role]
	if !ok {
		return Deny
	}
	if g.all {
		return Allow
	}
	if !contains(g.kinds, kind) {
		return Deny
	}
	if g.owner[action] && !contains(g.waived[action], kind) && !isOwner {
		return Deny
	}
	return Allow
}

// Scope restricts an archive listing.
type Scope struct {
	// AnyKind is set when the listing is not limited to Kinds.
	AnyKind bool
	Kinds   []models.Kind
	// OwnerOnly limits the listing to records the caller deleted.
	OwnerOnly bool

	role models.Role
}

// ListScope derives the listing scope of role from the same table Decide
// uses. Roles with no grant see only their own archives.
func ListScope(role models.Role) Scope {
	g, ok := archiveGrants[role]
	switch {
	case !ok:
		return Scope{AnyKind: true, OwnerOnly: true, role: role}
	case g.all:
		return Scope{AnyKind: true, role: role}
	default:
		return Scope{
			Kinds:     append([]models.Kind(nil), g.kinds...),
			OwnerOnly: g.owner[ActionList],
			role:      role,
		}
	}
}

// Permits reports whether an explicit entityType filter of kind is allowed
// for the scope's role.
func (s Scope) Permits(kind models.Kind) bool {
	return Decide(s.role, ActionList, kind, true) == Allow
}
