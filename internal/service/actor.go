// Package service holds the business rules behind the HTTP handlers:
// validation, ownership checks and orchestration of repositories, cache
// and storage.
package service

import (
	"homestead/internal/models"
)

// Actor is the authenticated caller, taken from the session.
type Actor struct {
	UserID uint
	Email  string
	Role   models.Role
}

// ActorFromIdentity builds an Actor from a verified identity.
func ActorFromIdentity(id models.Identity) *Actor {
	return &Actor{UserID: id.ID, Email: id.Email, Role: id.Role}
}

// IsAdmin reports whether the actor carries the ADMIN role. A nil actor is
// never an admin.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

// CanModify reports whether the actor owns the resource or is an admin.
func (a *Actor) CanModify(ownerID uint) bool {
	if a == nil {
		return false
	}
	return a.UserID == ownerID || a.IsAdmin()
}

func requireActor(a *Actor) error {
	if a == nil || a.UserID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

func requireAdmin(a *Actor) error {
	if err := requireActor(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
