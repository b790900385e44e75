package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/cryptox"
)

// Normalizer repairs an archived snapshot so that it satisfies the current
// schema of its kind before it is written back. Snapshots may predate enum
// changes or lack fields that became required later.
type Normalizer func(snapshot map[string]any, originalID string) map[string]any

var normalizers = map[Kind]Normalizer{
	KindPrison:       normalizePrison,
	KindInmate:       normalizeInmate,
	KindWoredaInmate: normalizeWoredaInmate,
	KindNotice:       normalizeNotice,
	KindClearance:    normalizeClearance,
	KindVisitor:      normalizeVisitor,
	KindReport:       normalizeReport,
	KindTransfer:     normalizeTransfer,
	KindIncident:     normalizeIncident,
	KindUser:         normalizeUser,
}

// uniqueFields lists, per kind, the fields no two live records may share.
var uniqueFields = map[Kind][]string{
	KindClearance: {"clearanceId"},
	KindUser:      {"username"},
}

// UniqueFieldsFor returns the fields of k that must be unique among live
// records.
func UniqueFieldsFor(k Kind) []string {
	return uniqueFields[k]
}

// NormalizerFor returns the snapshot normalizer for k. Kinds without one get
// a plain copy.
func NormalizerFor(k Kind) Normalizer {
	if n, ok := normalizers[k]; ok {
		return n
	}
	return func(s map[string]any, _ string) map[string]any { return cloneSnapshot(s) }
}

func cloneSnapshot(s map[string]any) map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		switch k {
		case "id", "_id", "__v", "createdAt", "updatedAt":
			continue
		}
		out[k] = v
	}
	return out
}

func str(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func defaultString(m map[string]any, key, fallback string) {
	if str(m, key) == "" {
		m[key] = fallback
	}
}

const unknown = "Unknown"

func normalizePrison(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "name", "Unnamed prison")
	defaultString(out, "location", unknown)
	return out
}

func normalizeGender(s string) string {
	switch strings.ToLower(s) {
	case "male", "m":
		return "male"
	case "female", "f":
		return "female"
	default:
		return "unspecified"
	}
}

func normalizeInmate(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "firstName", unknown)
	defaultString(out, "lastName", unknown)
	out["gender"] = normalizeGender(str(out, "gender"))
	defaultString(out, "caseType", "unspecified")
	if _, ok := out["contactRelationship"]; ok {
		out["contactRelationship"] = string(NormalizeRelationship(str(out, "contactRelationship")))
	}
	return out
}

func normalizeWoredaInmate(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "firstName", unknown)
	defaultString(out, "lastName", unknown)
	defaultString(out, "crimeType", "unspecified")
	defaultString(out, "woreda", unknown)
	return out
}

func normalizeNotice(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "title", "Untitled notice")
	defaultString(out, "description", "-")
	out["priority"] = string(NormalizePriority(str(out, "priority")))
	return out
}

func normalizeClearance(s map[string]any, originalID string) map[string]any {
	out := cloneSnapshot(s)
	if id := str(out, "clearanceId"); id != "" {
		out["clearanceId"] = id
	}
	defaultString(out, "clearanceId", "RESTORED-"+originalID)
	defaultString(out, "inmateId", unknown)
	defaultString(out, "reason", "-")
	return out
}

func normalizeVisitor(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "firstName", unknown)
	defaultString(out, "lastName", unknown)
	defaultString(out, "phone", "N/A")
	defaultString(out, "inmateId", unknown)
	out["status"] = string(NormalizeVisitorStatus(str(out, "status")))
	if _, ok := out["relationship"]; ok {
		out["relationship"] = string(NormalizeRelationship(str(out, "relationship")))
	}
	return out
}

func normalizeReport(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "title", "Untitled report")
	defaultString(out, "description", "-")
	return out
}

func normalizeTransfer(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "inmateId", unknown)
	defaultString(out, "fromPrison", unknown)
	defaultString(out, "toPrison", unknown)
	defaultString(out, "reason", "-")
	return out
}

func normalizeIncident(s map[string]any, _ string) map[string]any {
	out := cloneSnapshot(s)
	defaultString(out, "inmateId", unknown)
	defaultString(out, "incidentType", "other")
	defaultString(out, "description", "-")
	if sev, ok := parseSeverity(str(out, "severity")); ok {
		out["severity"] = string(sev)
	} else {
		out["severity"] = string(SeverityLow)
	}
	return out
}

func normalizeUser(s map[string]any, originalID string) map[string]any {
	out := cloneSnapshot(s)
	if u := str(out, "username"); u != "" {
		out["username"] = strings.ToLower(u)
	}
	if str(out, "username") == "" {
		id := originalID
		if len(id) > 8 {
			id = id[:8]
		}
		out["username"] = "restored-" + id
	}
	if !Role(str(out, "role")).Valid() {
		out["role"] = string(RoleVisitor)
	}
	if str(out, "passwordHash") == "" {
		out["passwordHash"] = cryptox.PlaceholderHash()
	}
	return out
}
