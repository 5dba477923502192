package db_models

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"unique"`
	PasswordHash string
	Role         string `gorm:"size:32;not null;default:'user'"`
}

// IsAdmin reports whether role can review payment requests.
// super_admin is a strict superset of admin.
func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

func IsSuperAdmin(role string) bool {
	return role == RoleSuperAdmin
}
