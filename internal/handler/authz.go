package handler

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
)

// teamAccess is what the caller may do within one team.
type teamAccess int

const (
	teamNone teamAccess = iota
	teamMember
	teamManager
)

// teamAccessFor combines the caller's team role with the platform
// capabilities. Only manage_users reaches teams the caller is not in;
// elevate raises a plain member of the team to manager access.
func teamAccessFor(ctx context.Context, teams *team.Manager, sess *auth.Session, teamID uuid.UUID, elevate access.Capability) (teamAccess, error) {
	caps := sess.Capabilities()
	if caps.ManageUsers {
		return teamManager, nil
	}

	role, err := teams.MemberRole(ctx, teamID, sess.UserID())
	if err != nil {
		if errors.Is(err, team.ErrNotMember) {
			return teamNone, nil
		}
		return teamNone, err
	}
	if role.CanManageMembers() || caps.Allows(elevate) {
		return teamManager, nil
	}
	return teamMember, nil
}
