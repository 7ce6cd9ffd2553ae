// Package auth is the permission evaluator: a pure decision function over
// (actor, action, resource) with no side effects, callable independently of
// the engine. Every denial is the same ForbiddenError; callers never learn
// why a request was denied.
package auth

import (
	"rexline/internal/domain"
)

type Action string

const (
	ActionEditContent Action = "edit-content"
	ActionSubmit      Action = "submit"
	ActionValidate    Action = "validate"
	ActionReject      Action = "reject"
	ActionArchive     Action = "archive"
	ActionPromote     Action = "promote"
	ActionChangeRole  Action = "change-role"
)

// ForbiddenError carries the denied action for logs only; its message is
// deliberately uniform.
type ForbiddenError struct {
	Action Action
}

func (e ForbiddenError) Error() string {
	return "forbidden"
}

// Authorize evaluates the rules in order; first match wins, default deny.
func Authorize(actor domain.Actor, action Action, rep domain.Report) error {
	switch action {
	case ActionEditContent:
		if actor.Role.IsAdmin() {
			return nil
		}
		if actor.ID == rep.AuthorID && rep.Status == domain.StatusDraft {
			return nil
		}
	case ActionSubmit:
		if actor.ID == rep.AuthorID {
			return nil
		}
	case ActionValidate, ActionReject:
		if actor.Role.CanValidate() && (actor.Role == domain.RoleSuperAdmin || actor.OrgID == rep.OrgID) {
			return nil
		}
	case ActionArchive:
		if actor.Role.IsAdmin() {
			return nil
		}
	case ActionPromote:
		if actor.ID == rep.AuthorID || actor.Role.IsAdmin() {
			return nil
		}
	}
	return ForbiddenError{Action: action}
}

// AuthorizeRoleChange gates role mutations: admins and super-admins only,
// never on oneself, super-admin grants require a super-admin, and plain
// admins can only touch users of their own organization.
func AuthorizeRoleChange(actor, target domain.Actor, newRole domain.Role) error {
	if !actor.Role.IsAdmin() {
		return ForbiddenError{Action: ActionChangeRole}
	}
	if actor.ID == target.ID {
		return ForbiddenError{Action: ActionChangeRole}
	}
	if newRole == domain.RoleSuperAdmin && actor.Role != domain.RoleSuperAdmin {
		return ForbiddenError{Action: ActionChangeRole}
	}
	if actor.Role == domain.RoleAdmin && actor.OrgID != target.OrgID {
		return ForbiddenError{Action: ActionChangeRole}
	}
	return nil
}
