package models

import "strings"

// Priority of a notice.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NormalizePriority maps free text onto a Priority, defaulting to normal.
func NormalizePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p
	case "medium":
		return PriorityNormal
	case "critical":
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

type VisitorStatus string

const (
	VisitorPending  VisitorStatus = "pending"
	VisitorApproved VisitorStatus = "approved"
	VisitorRejected VisitorStatus = "rejected"
)

// NormalizeVisitorStatus defaults unknown values to pending.
func NormalizeVisitorStatus(s string) VisitorStatus {
	switch v := VisitorStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case VisitorApproved, VisitorRejected:
		return v
	default:
		return VisitorPending
	}
}

// Severity of an incident.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Severities in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// SeverityForCount derives severity from the number of incidents recorded
// for an inmate, the current one included.
func SeverityForCount(n int) Severity {
	switch {
	case n >= 5:
		return SeverityCritical
	case n >= 3:
		return SeverityHigh
	case n >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func parseSeverity(s string) (Severity, bool) {
	for _, sev := range Severities {
		if strings.EqualFold(string(sev), strings.TrimSpace(s)) {
			return sev, true
		}
	}
	return "", false
}

// Relationship of a contact or visitor to an inmate.
type Relationship string

const (
	RelationshipParent   Relationship = "parent"
	RelationshipSibling  Relationship = "sibling"
	RelationshipSpouse   Relationship = "spouse"
	RelationshipChild    Relationship = "child"
	RelationshipRelative Relationship = "relative"
	RelationshipFriend   Relationship = "friend"
	RelationshipLawyer   Relationship = "lawyer"
	RelationshipOther    Relationship = "other"
)

var relationshipAliases = map[string]Relationship{
	"parent": RelationshipParent, "father": RelationshipParent, "mother": RelationshipParent,
	"sibling": RelationshipSibling, "brother": RelationshipSibling, "sister": RelationshipSibling,
	"spouse": RelationshipSpouse, "husband": RelationshipSpouse, "wife": RelationshipSpouse,
	"child": RelationshipChild, "son": RelationshipChild, "daughter": RelationshipChild,
	"relative": RelationshipRelative, "uncle": RelationshipRelative, "aunt": RelationshipRelative,
	"cousin": RelationshipRelative, "grandparent": RelationshipRelative,
	"friend": RelationshipFriend,
	"lawyer": RelationshipLawyer, "attorney": RelationshipLawyer,
}

// NormalizeRelationship maps free text onto the enum; anything unrecognised
// becomes "other".
func NormalizeRelationship(s string) Relationship {
	if r, ok := relationshipAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r
	}
	return RelationshipOther
}
