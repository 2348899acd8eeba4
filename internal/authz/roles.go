package authz

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleRep     = "rep"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleRep:
		return true
	}
	return false
}

func IsAdmin(role string) bool {
	return role == RoleAdmin
}
