package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

const (
	PermUsersRead        = "users.read"
	PermUsersManage      = "users.manage"
	PermCatalogRead      = "catalog.read"
	PermCatalogManage    = "catalog.manage"
	PermCatalogEnroll    = "catalog.enroll"
	PermProjectsRead     = "projects.read"
	PermProjectsManage   = "projects.manage"
	PermProjectsComplete = "projects.complete"
	PermPerformanceRead  = "performance.read"
	PermReportsRead      = "reports.read"
	PermAuditRead        = "audit.read"
)

var DefaultPermissions = []string{
	PermUsersRead,
	PermUsersManage,
	PermCatalogRead,
	PermCatalogManage,
	PermCatalogEnroll,
	PermProjectsRead,
	PermProjectsManage,
	PermProjectsComplete,
	PermPerformanceRead,
	PermReportsRead,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermUsersRead,
		PermCatalogRead,
		PermCatalogEnroll,
		PermProjectsRead,
		PermPerformanceRead,
		PermReportsRead,
	},
	RoleManager: {
		PermUsersRead,
		PermCatalogRead,
		PermCatalogEnroll,
		PermProjectsRead,
		PermProjectsManage,
		PermProjectsComplete,
		PermPerformanceRead,
		PermReportsRead,
	},
	RoleAdmin: {
		PermUsersRead,
		PermUsersManage,
		PermCatalogRead,
		PermCatalogManage,
		PermCatalogEnroll,
		PermProjectsRead,
		PermProjectsManage,
		PermProjectsComplete,
		PermPerformanceRead,
		PermReportsRead,
		PermAuditRead,
	},
}
