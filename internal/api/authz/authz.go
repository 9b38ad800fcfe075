package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleMember  = "member"
	RoleManager = "manager"
)

// AuthUser is the identity supplied by the upstream gateway.
type AuthUser struct {
	ID       int64
	Username string
	Role     string
}

// ClubAccess is the part of a club that authorization decisions depend on.
type ClubAccess struct {
	ID            int64
	ManagerUserID int64
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// IsManager reports whether user holds the manager role somewhere.
func IsManager(user *AuthUser) bool {
	return user != nil && strings.EqualFold(user.Role, RoleManager)
}

// CanManageClub is the single capability check for club-scoped manager
// powers: sport configuration, booking on behalf of others, cancelling any
// booking and acting on past slots. A club has exactly one manager today; a
// role table would replace the comparison below without touching callers.
func CanManageClub(user *AuthUser, club ClubAccess) bool {
	if !IsManager(user) {
		return false
	}
	return club.ManagerUserID != 0 && club.ManagerUserID == user.ID
}

// RequireClubManager returns ErrUnauthenticated without a user in ctx and
// ErrForbidden when the user cannot manage club.
func RequireClubManager(ctx context.Context, club ClubAccess) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if !CanManageClub(user, club) {
		return ErrForbidden
	}
	return nil
}

// RequireUser returns the authenticated user or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}
