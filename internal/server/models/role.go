package models

// Role is a caller's access class.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleInspector     Role = "inspector"
	RoleSecurity      Role = "security"
	RolePoliceOfficer Role = "police-officer"
	RoleCourt         Role = "court"
	RoleWoreda        Role = "woreda"
	RoleVisitor       Role = "visitor"
)

var knownRoles = map[Role]bool{
	RoleAdmin: true, RoleInspector: true, RoleSecurity: true, RolePoliceOfficer: true,
	RoleCourt: true, RoleWoreda: true, RoleVisitor: true,
}

func (r Role) Valid() bool { return knownRoles[r] }
