// Package dashboard holds the member-dashboard content: the message board and
// member profiles. Every free-text field passes through internal/sanitize before it
// is stored.
package dashboard

import (
	"time"

	id "clubportal/pkg/domain"
)

// Tabs are the member dashboard sections, in menu order.
var Tabs = []string{
	"messages", "search", "profile", "events", "resources",
	"videos", "articles", "jobs", "experts", "news", "calendar",
}

// IsTab reports whether name is a dashboard tab.
func IsTab(name string) bool {
	for _, t := range Tabs {
		if t == name {
			return true
		}
	}
	return false
}

// Message is a post on the members' message board.
type Message struct {
	ID         id.MessageID   `json:"id"`
	Author     id.PrincipalID `json:"-"`
	AuthorName string         `json:"author_name"`
	Body       string         `json:"body"`
	PostedAt   time.Time      `json:"posted_at"`
}

// Profile is a member's public profile.
type Profile struct {
	PrincipalID id.PrincipalID `json:"-"`
	DisplayName string         `json:"display_name"`
	Bio         string         `json:"bio"`
	Skills      []string       `json:"skills"`
	Tags        []string       `json:"tags"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProfileUpdate carries the editable profile fields as submitted.
type ProfileUpdate struct {
	Bio    string
	Skills []string
	Tags   []string
}
