package httptransport

import (
	"time"

	"clubportal/internal/dashboard"
	"clubportal/internal/role"
)

type PageResponse struct {
	Page          string `json:"page"`
	Title         string `json:"title"`
	Locale        string `json:"locale"`
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"display_name,omitempty"`
	Next          string `json:"next,omitempty"`
}

type SessionResponse struct {
	Status      string `json:"status"`
	PrincipalID string `json:"principal_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
	RoleHint    string `json:"role_hint,omitempty"`
}

type DashboardResponse struct {
	Tabs []TabResponse `json:"tabs"`
}

type TabResponse struct {
	Tab   string `json:"tab"`
	Title string `json:"title"`
}

type MessagesResponse struct {
	Messages []dashboard.Message `json:"messages"`
}

type ProfilesResponse struct {
	Profiles []dashboard.Profile `json:"profiles"`
}

type AssignmentResponse struct {
	PrincipalID string    `json:"principal_id"`
	Role        string    `json:"role"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AdminResponse struct {
	Title       string               `json:"title"`
	Assignments []AssignmentResponse `json:"assignments"`
}

func fromAssignment(a role.Assignment) AssignmentResponse {
	return AssignmentResponse{
		PrincipalID: a.PrincipalID.String(),
		Role:        a.Role.String(),
		UpdatedAt:   a.UpdatedAt,
	}
}
