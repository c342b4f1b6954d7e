package invite

import (
	"time"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
)

// Status is an invite's lifecycle state. It only moves forward.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

// Invite offers an email address either a platform role or, when TeamID is
// set, a place in a team.
type Invite struct {
	ID         uuid.UUID        `json:"id"`
	Email      string           `json:"email"`
	TeamID     *uuid.UUID       `json:"team_id,omitempty"`
	ProjectID  *uuid.UUID       `json:"project_id,omitempty"`
	Role       access.Role      `json:"role"`
	TeamRole   *access.TeamRole `json:"team_role,omitempty"`
	InvitedBy  string           `json:"invited_by"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
	AcceptedAt *time.Time       `json:"accepted_at,omitempty"`
}

// Live reports whether the invite can still be accepted at now.
func (i *Invite) Live(now time.Time) bool {
	return i.Status == StatusPending && now.Before(i.ExpiresAt)
}

// CreateInput describes a new invite.
type CreateInput struct {
	Email     string
	TeamID    *uuid.UUID
	ProjectID *uuid.UUID
	Role      access.Role
	TeamRole  access.TeamRole
	InvitedBy string
}
