package rbac

// Simple default policy. Pre-save and submit are deliberately absent from
// admin: admins author quizzes, they do not take them.
var RolePermissions = map[string][]string{
	"user": {
		"quiz:list",
		"quiz:view",
		"quiz:presave",
		"quiz:submit",
	},
	"admin": {
		"quiz:create",
		"quiz:list",
		"quiz:view",
	},
}
