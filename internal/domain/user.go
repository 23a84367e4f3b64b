package domain

import (
	"slices"
	"strings"
)

// Role determines which pages and actions a user can reach.
type Role string

const (
	RoleAgent    Role = "AGENT"
	RoleApprover Role = "APPROVER"
	RoleMonitor  Role = "MONITOR"
)

// Roles lists every role.
var Roles = []Role{RoleAgent, RoleApprover, RoleMonitor}

// ParseRole converts raw input into a known Role.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !slices.Contains(Roles, r) {
		return "", &UnknownRoleError{Role: raw}
	}
	return r, nil
}

// User is the authenticated principal of a session.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserForRole derives the demo identity for a role, e.g. "user_agent" / "Agent User".
func UserForRole(r Role) User {
	lower := strings.ToLower(string(r))
	return User{
		ID:    "user_" + lower,
		Name:  strings.ToUpper(lower[:1]) + lower[1:] + " User",
		Email: lower + "@merchantapp.com",
		Role:  r,
	}
}

// Allowed reports whether u may see a page restricted to roles.
func Allowed(u *User, roles ...Role) bool {
	if u == nil {
		return false
	}
	return slices.Contains(roles, u.Role)
}

// Route is an entry of the navigation surface.
type Route struct {
	Path  string
	Title string
	Roles []Role
}

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/loginPage"

// Navigation is the role-scoped route table.
var Navigation = []Route{
	{Path: "/", Title: "Dashboard", Roles: Roles},
	{Path: "/applications", Title: "Applications", Roles: []Role{RoleAgent}},
	{Path: "/applications/new", Title: "New Application", Roles: []Role{RoleAgent}},
	{Path: "/applications/:id/edit", Title: "Edit Application", Roles: []Role{RoleAgent}},
	{Path: "/review", Title: "Review Queue", Roles: []Role{RoleApprover}},
	{Path: "/applications/:id/review", Title: "Application Review", Roles: []Role{RoleApprover}},
	{Path: "/monitor/overview", Title: "Overview", Roles: []Role{RoleMonitor}},
	{Path: "/monitor/applications", Title: "All Applications", Roles: []Role{RoleMonitor}},
	{Path: "/monitor/applications/:id/view", Title: "Application", Roles: []Role{RoleMonitor}},
	{Path: "/monitor/applications/:id/qr", Title: "QR Code", Roles: []Role{RoleMonitor}},
	{Path: "/registration", Title: "Agent Registration", Roles: []Role{RoleMonitor}},
	{Path: "/pages/profilePage", Title: "Profile", Roles: Roles},
}

// RoutesFor returns the navigation entries visible to u.
func RoutesFor(u *User) []Route {
	var out []Route
	for _, r := range Navigation {
		if Allowed(u, r.Roles...) {
			out = append(out, r)
		}
	}
	return out
}
