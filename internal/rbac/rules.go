package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"lesson:view",
		"quiz:view",
		"result:submit",
		"result:view-own",
		"user:change_password",
	},
	"teacher": {
		"course:*",
		"lesson:*",
		"quiz:*",
		"result:submit",
		"result:view-all",
		"user:change_password",
		"users:bulk_upsert",
		"users:list",
	},
	"admin": {
		"*", // everything
	},
}
