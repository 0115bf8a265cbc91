package auth

import "github.com/dmitrijs2005/intelligence/internal/server/models"

// IsAdmin reports whether p holds the admin flag.
func IsAdmin(p *models.User) bool {
	return p != nil && p.Admin
}

// IsSelf reports whether target names p by id, name or email.
func IsSelf(p *models.User, target string) bool {
	if p == nil || target == "" {
		return false
	}
	return target == p.ID || target == p.Name || target == p.Email
}

// CanAccess is IsAdmin(p) || IsSelf(p, target).
func CanAccess(p *models.User, target string) bool {
	return IsAdmin(p) || IsSelf(p, target)
}
