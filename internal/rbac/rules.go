package rbac

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

var RolePermissions = map[string][]string{
	RoleStudent: {
		"practice:*",
		"course:view",
		"course:enroll",
		"user:profile",
		"user:change_password",
	},
	RoleTeacher: {
		"practice:*",
		"course:view",
		"course:enroll",
		"course:author",
		"user:profile",
		"user:change_password",
	},
	RoleAdmin: {
		"*", // everything, including users:* and events:read
	},
}
