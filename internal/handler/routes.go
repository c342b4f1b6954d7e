package handler

import (
	"net/http"

	"github.com/thakuramit5464/Personal-Dashboard/internal/access"
	"github.com/thakuramit5464/Personal-Dashboard/internal/attendance"
	"github.com/thakuramit5464/Personal-Dashboard/internal/auth"
	"github.com/thakuramit5464/Personal-Dashboard/internal/config"
	"github.com/thakuramit5464/Personal-Dashboard/internal/invite"
	"github.com/thakuramit5464/Personal-Dashboard/internal/middleware"
	"github.com/thakuramit5464/Personal-Dashboard/internal/profile"
	"github.com/thakuramit5464/Personal-Dashboard/internal/project"
	"github.com/thakuramit5464/Personal-Dashboard/internal/task"
	"github.com/thakuramit5464/Personal-Dashboard/internal/team"
	"github.com/thakuramit5464/Personal-Dashboard/internal/todo"
)

// Dependencies are the services the routes are built from.
type Dependencies struct {
	Config     *config.Config
	DB         HealthChecker
	Sessions   auth.SessionStore
	Profiles   *profile.Manager
	Teams      *team.Manager
	Projects   *project.Manager
	Tasks      *task.Manager
	Invites    *invite.Manager
	Attendance *attendance.Manager
	Todos      *todo.Store
	Images     ImageUploader
}

// RegisterRoutes registers all HTTP routes with the provided mux.
func RegisterRoutes(mux *http.ServeMux, d Dependencies) {
	// Health and status endpoints (no auth required)
	mux.HandleFunc("GET /health", HealthCheck(d.DB))
	mux.HandleFunc("GET /api/v1/status", statusHandler(d.Config))

	authed := middleware.RequireAuth(d.Sessions)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}
	// gated runs the capability check after the session is resolved.
	gated := func(pattern string, c access.Capability, h http.HandlerFunc) {
		mux.Handle(pattern, authed(middleware.RequireCapability(c)(h)))
	}

	var origins []string
	if d.Config != nil {
		origins = d.Config.AllowedOrigins
	}

	profiles := NewProfilesHandler(d.Profiles, d.Images, origins)
	handle("GET /api/v1/me", profiles.Me)
	handle("GET /api/v1/me/stream", profiles.Stream)
	handle("PATCH /api/v1/me", profiles.UpdateMe)
	handle("POST /api/v1/me/photo", profiles.UploadPhoto)
	gated("GET /api/v1/users", access.ManageUsers, profiles.ListUsers)
	gated("PUT /api/v1/users/{id}/role", access.ManageUsers, profiles.SetRole)

	teams := NewTeamsHandler(d.Teams, d.Projects)
	handle("GET /api/v1/teams", teams.List)
	handle("POST /api/v1/teams", teams.Create)
	handle("GET /api/v1/teams/{id}", teams.Get)
	handle("POST /api/v1/teams/{id}/members", teams.AddMember)
	handle("DELETE /api/v1/teams/{id}/members/{userId}", teams.RemoveMember)
	handle("GET /api/v1/teams/{id}/projects", teams.ListProjects)

	projects := NewProjectsHandler(d.Projects, d.Teams)
	handle("GET /api/v1/projects", projects.List)
	handle("POST /api/v1/projects", projects.Create)
	handle("GET /api/v1/projects/{id}", projects.Get)
	handle("PUT /api/v1/projects/{id}/status", projects.UpdateStatus)

	tasks := NewTasksHandler(d.Tasks, origins)
	handle("GET /api/v1/tasks", tasks.List)
	handle("GET /api/v1/tasks/stream", tasks.Stream)
	handle("POST /api/v1/tasks", tasks.Create)
	handle("PUT /api/v1/tasks/{id}/status", tasks.UpdateStatus)
	handle("PUT /api/v1/tasks/{id}/assignees", tasks.Assign)
	handle("DELETE /api/v1/tasks/{id}", tasks.Delete)

	invites := NewInvitesHandler(d.Invites, d.Teams)
	handle("GET /api/v1/invites", invites.List)
	handle("POST /api/v1/invites", invites.Create)
	handle("POST /api/v1/invites/{id}/accept", invites.Accept)

	att := NewAttendanceHandler(d.Attendance, d.Images)
	handle("GET /api/v1/attendance", att.Get)
	handle("POST /api/v1/attendance/clock-in", att.ClockIn)
	handle("POST /api/v1/attendance/clock-out", att.ClockOut)

	todos := NewTodosHandler(d.Todos)
	handle("GET /api/v1/todos", todos.List)
	handle("POST /api/v1/todos", todos.Create)
	handle("PUT /api/v1/todos/{id}/toggle", todos.Toggle)
	handle("DELETE /api/v1/todos/{id}", todos.Delete)

	uploads := NewUploadsHandler(d.Images)
	handle("POST /api/v1/uploads/sign", uploads.Sign)
}
