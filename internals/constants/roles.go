package constants

// Role dari claim JWT (sudah lowercase oleh AuthJWT)
const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
	RoleOwner   = "owner"
)

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	// FinanceRoles boleh refund, lihat event webhook, dan kelola payment plan.
	FinanceRoles = []string{
		RoleAdmin,
		RoleFinance,
		RoleOwner,
	}
)
