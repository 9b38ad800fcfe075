package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/Courtbook/internal/api/authz"
	dbgen "github.com/codr1/Courtbook/internal/db/generated"
)

// DefaultMemberLimit is the number of upcoming active bookings a member may
// hold per club.
const DefaultMemberLimit = 1

// OwnerLimitError reports the member's current count against the limit.
type OwnerLimitError struct {
	CurrentCount int64
	Limit        int64
}

func (e OwnerLimitError) Error() string {
	return fmt.Sprintf("booking limit reached (%d/%d)", e.CurrentCount, e.Limit)
}

func (e OwnerLimitError) Is(target error) bool {
	return target == ErrOwnerLimitExceeded
}

// actor is the requester as seen by one club.
type actor struct {
	user    *authz.AuthUser
	manages bool
}

func newActor(user *authz.AuthUser, club dbgen.Club) actor {
	return actor{
		user: user,
		manages: authz.CanManageClub(user, authz.ClubAccess{
			ID:            club.ID,
			ManagerUserID: club.ManagerUserID,
		}),
	}
}

// isPast reports whether a slot starting at start has begun at now.
func isPast(start, now time.Time) bool {
	return start.Before(now)
}

// checkNotPast rejects past slots for everyone but the club's manager.
func (a actor) checkNotPast(start, now time.Time) error {
	if a.manages || !isPast(start, now) {
		return nil
	}
	return fmt.Errorf("%w: started at %s", ErrSlotInPast, start.UTC().Format(time.RFC3339))
}

// resolveOwner returns the user the booking will belong to. Only the club's
// manager may name another user.
func (a actor) resolveOwner(ctx context.Context, q *dbgen.Queries, onBehalfOf string) (dbgen.User, error) {
	onBehalfOf = strings.TrimSpace(onBehalfOf)
	if onBehalfOf == "" || strings.EqualFold(onBehalfOf, a.user.Username) {
		owner, err := q.GetUserByID(ctx, a.user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return dbgen.User{}, fmt.Errorf("%w: id %d", ErrUnknownUser, a.user.ID)
			}
			return dbgen.User{}, fmt.Errorf("load requester: %w", err)
		}
		return owner, nil
	}
	if !a.manages {
		return dbgen.User{}, fmt.Errorf("%w: only the club manager may book for another member", ErrForbidden)
	}
	owner, err := q.GetUserByUsername(ctx, onBehalfOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, fmt.Errorf("%w: %q", ErrUnknownUser, onBehalfOf)
		}
		return dbgen.User{}, fmt.Errorf("load user %q: %w", onBehalfOf, err)
	}
	return owner, nil
}

// checkOwnerLimit enforces the member limit. The club's manager is exempt,
// including when booking for somebody else.
func (a actor) checkOwnerLimit(ctx context.Context, l ledger, clubID, ownerID int64, now time.Time, limit int) error {
	if a.manages || limit <= 0 {
		return nil
	}
	count, err := l.upcomingForOwner(ctx, clubID, ownerID, now)
	if err != nil {
		return err
	}
	if count >= int64(limit) {
		return OwnerLimitError{CurrentCount: count, Limit: int64(limit)}
	}
	return nil
}

// checkCanCancel applies the cancellation rules in order: ownership, then the
// past-slot rule.
func (a actor) checkCanCancel(b dbgen.Booking, now time.Time) error {
	if a.manages {
		return nil
	}
	if b.OwnerUserID != a.user.ID {
		return fmt.Errorf("%w: booking %d belongs to another member", ErrForbidden, b.ID)
	}
	return a.checkNotPast(b.SlotStartUtc, now)
}
