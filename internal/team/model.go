package team

import (
	"time"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
)

// Team is a group of members. Its creator is its first admin.
type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is one user's membership in a team.
type Member struct {
	UserID   string          `json:"user_id"`
	Role     access.TeamRole `json:"role"`
	Email    string          `json:"email"`
	JoinedAt time.Time       `json:"joined_at"`
}

// MemberUIDs returns the ids of the team's members in join order.
func (t *Team) MemberUIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Member returns the membership for userID, if any.
func (t *Team) Member(userID string) (Member, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
