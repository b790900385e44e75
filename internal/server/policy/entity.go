package policy

import "github.com/dmitrijs2005/prisonkeeper/internal/server/models"

// EntityAccess lists, per kind, the roles allowed to create, update and
// delete live records. Admin is implied.
var EntityAccess = map[models.Kind][]models.Role{
	models.KindPrison:       {models.RoleInspector},
	models.KindInmate:       {models.RoleSecurity},
	models.KindWoredaInmate: {models.RoleWoreda},
	models.KindNotice:       {models.RoleInspector},
	models.KindClearance:    {models.RoleSecurity, models.RoleCourt},
	models.KindVisitor:      {models.RoleSecurity, models.RolePoliceOfficer},
	models.KindReport:       {models.RoleSecurity, models.RoleInspector},
	models.KindTransfer:     {models.RoleSecurity, models.RolePoliceOfficer},
	models.KindIncident:     {models.RoleSecurity, models.RolePoliceOfficer},
	models.KindUser:         {},
	models.KindParoleRecord: {models.RoleSecurity, models.RoleCourt},
}

// CanWrite reports whether role may mutate live records of kind.
func CanWrite(role models.Role, kind models.Kind) bool {
	if role == models.RoleAdmin {
		return true
	}
	for _, r := range EntityAccess[kind] {
		if r == role {
			return true
		}
	}
	return false
}

// CanRead reports whether role may read live records of kind. User records
// are admin-only; everything else is open to any known role.
func CanRead(role models.Role, kind models.Kind) bool {
	if kind == models.KindUser {
		return role == models.RoleAdmin
	}
	return role.Valid()
}
