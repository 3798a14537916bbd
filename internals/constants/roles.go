package constants

import (
	"fmt"
	"strings"
)

// Role global dari JWT (claim "role"). Role di dalam organisasi
// disimpan terpisah di organization_memberships.
const (
	RoleUser          = "user"
	RolePlatformAdmin = "administrator"
)

// Nama locals yang diisi middleware auth
const (
	LocUserID   = "user_id"
	LocUserRole = "userRole"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess = "❌ Hanya administrator platform yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUser,
		RolePlatformAdmin,
	}

	AdminOnly = []string{
		RolePlatformAdmin,
	}
)

// IsPlatformAdmin: pembandingan case-insensitive, role kosong = bukan admin.
func IsPlatformAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RolePlatformAdmin)
}
