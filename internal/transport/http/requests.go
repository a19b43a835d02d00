package httptransport

import (
	"strings"

	"clubportal/internal/role"
	dErrors "clubportal/pkg/domain-errors"
)

// SignInRequest is the body of POST /auth/session.
type SignInRequest struct {
	Token string `json:"token"`
}

func (r *SignInRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

// PostMessageRequest is the body of POST /dashboard/messages. The body is
// sanitized and length-checked by the dashboard service.
type PostMessageRequest struct {
	Body string `json:"body"`
}

func (r *PostMessageRequest) Validate() error {
	return nil
}

// UpdateProfileRequest is the body of PUT /dashboard/profile.
type UpdateProfileRequest struct {
	Bio    string   `json:"bio"`
	Skills []string `json:"skills"`
	Tags   []string `json:"tags"`
}

func (r *UpdateProfileRequest) Validate() error {
	if len(r.Skills) > 100 || len(r.Tags) > 100 {
		return dErrors.New(dErrors.CodeValidation, "too many list entries")
	}
	return nil
}

// AssignRoleRequest is the body of PUT /admin/roles/{principalID}.
type AssignRoleRequest struct {
	Role string `json:"role"`

	parsed role.Role
}

func (r *AssignRoleRequest) Validate() error {
	parsed, err := role.Parse(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsed = parsed
	return nil
}
