package service

import (
	"strings"

	"github.com/annboard/annboard/internal/models"
)

const (
	// ActionLogin gates establishing a session.
	ActionLogin = "login"
	// ActionManage gates the admin CRUD surface.
	ActionManage = "manage"
)

// Authorizer decides whether an authenticated identity may perform an
// action. A role/permission model can be substituted without touching the
// token flow.
type Authorizer interface {
	Authorize(user *models.User, action string) bool
}

// AdminEmailAuthorizer authorizes exactly one configured address,
// compared case-insensitively. It stands in for a real role system.
type AdminEmailAuthorizer struct {
	adminEmail string
}

func NewAdminEmailAuthorizer(adminEmail string) *AdminEmailAuthorizer {
	return &AdminEmailAuthorizer{adminEmail: strings.ToLower(adminEmail)}
}

func (a *AdminEmailAuthorizer) Authorize(user *models.User, _ string) bool {
	if user == nil {
		return false
	}
	return strings.ToLower(user.Email) == a.adminEmail
}
