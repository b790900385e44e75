package models

// RequiredFields lists, per kind, the fields that must be present and
// non-empty.
var RequiredFields = map[Kind][]string{
	KindPrison:       {"name", "location"},
	KindInmate:       {"firstName", "lastName", "gender", "caseType"},
	KindWoredaInmate: {"firstName", "lastName", "crimeType", "woreda"},
	KindNotice:       {"title", "description"},
	KindClearance:    {"clearanceId", "inmateId", "reason"},
	KindVisitor:      {"firstName", "lastName", "phone", "inmateId"},
	KindReport:       {"title", "description"},
	KindTransfer:     {"inmateId", "fromPrison", "toPrison", "reason"},
	KindIncident:     {"inmateId", "incidentType", "description"},
	KindUser:         {"username", "role", "passwordHash"},
	KindParoleRecord: {"inmateId"},
}
