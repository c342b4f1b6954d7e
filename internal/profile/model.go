package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
)

// Profile is the dashboard's record of a principal.
// ID is the auth provider's principal id.
type Profile struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	PhotoURL  string      `json:"photo_url"`
	Role      access.Role `json:"role"`
	TeamIDs   []uuid.UUID `json:"team_ids"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Changes is a partial profile edit. Nil fields are left untouched.
type Changes struct {
	Name     *string
	PhotoURL *string
}
