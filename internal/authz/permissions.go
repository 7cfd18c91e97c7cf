package authz

// Permission is an atomic authorization unit in "resource.action" form.
type Permission string

// Category groups permissions for the management UI.
type Category string

const (
	CategoryDashboard      Category = "dashboard"
	CategoryAdministration Category = "administration"
	CategoryOperations     Category = "operations"
	CategoryFinance        Category = "finance"
	CategoryContent        Category = "content"
	CategorySecurity       Category = "security"
)

const (
	PermDashboardView   Permission = "dashboard.view"
	PermAdminUsersView  Permission = "admin_users.view"
	PermAdminUsersManage Permission = "admin_users.manage"
	PermRidersView      Permission = "riders.view"
	PermRidersManage    Permission = "riders.manage"
	PermRoadiesView     Permission = "roadies.view"
	PermRoadiesManage   Permission = "roadies.manage"
	PermRequestsView    Permission = "requests.view"
	PermRequestsManage  Permission = "requests.manage"
	PermWalletView      Permission = "wallet.view"
	PermWalletManage    Permission = "wallet.manage"
	PermContentManage   Permission = "content.manage"
	PermSettingsManage  Permission = "settings.manage"
	PermAuditView       Permission = "audit.view"
	PermAuditManage     Permission = "audit.manage"
	PermTwoFactorManage Permission = "twofactor.manage"
)

// PermissionInfo describes one catalog entry. Category is explicit rather than
// derived from the key prefix.
type PermissionInfo struct {
	Key         Permission
	Category    Category
	Description string
}

// Catalog is the full, build-time permission set of the admin application.
var Catalog = []PermissionInfo{
	{Key: PermDashboardView, Category: CategoryDashboard, Description: "View the admin dashboard"},
	{Key: PermAdminUsersView, Category: CategoryAdministration, Description: "View admin user accounts"},
	{Key: PermAdminUsersManage, Category: CategoryAdministration, Description: "Create, edit and deactivate admin user accounts"},
	{Key: PermRidersView, Category: CategoryOperations, Description: "View rider profiles"},
	{Key: PermRidersManage, Category: CategoryOperations, Description: "Edit and deactivate rider profiles"},
	{Key: PermRoadiesView, Category: CategoryOperations, Description: "View roadie profiles"},
	{Key: PermRoadiesManage, Category: CategoryOperations, Description: "Edit and deactivate roadie profiles"},
	{Key: PermRequestsView, Category: CategoryOperations, Description: "View transport requests"},
	{Key: PermRequestsManage, Category: CategoryOperations, Description: "Assign and resolve transport requests"},
	{Key: PermWalletView, Category: CategoryFinance, Description: "View wallet balances"},
	{Key: PermWalletManage, Category: CategoryFinance, Description: "Adjust wallet balances and payouts"},
	{Key: PermContentManage, Category: CategoryContent, Description: "Edit landing page and email template content"},
	{Key: PermSettingsManage, Category: CategoryAdministration, Description: "Change application settings"},
	{Key: PermAuditView, Category: CategorySecurity, Description: "View the audit trail"},
	{Key: PermAuditManage, Category: CategorySecurity, Description: "Purge the audit trail"},
	{Key: PermTwoFactorManage, Category: CategorySecurity, Description: "Manage two-factor enrollment for accounts"},
}

// CatalogKeys returns the permission keys of the full catalog.
func CatalogKeys() []Permission {
	keys := make([]Permission, 0, len(Catalog))
	for _, info := range Catalog {
		keys = append(keys, info.Key)
	}
	return keys
}
