package rbac

// Default policy for the two platform roles.
var RolePermissions = map[string][]string{
	"user": {
		"topic:view",
		"lesson:view",
		"lesson:submit",
		"progress:view-own",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
