package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"clubportal/internal/platform/metrics"
	"clubportal/internal/sanitize"
	id "clubportal/pkg/domain"
	dErrors "clubportal/pkg/domain-errors"
	"clubportal/pkg/platform/sentinel"
	"clubportal/pkg/requestcontext"
)

const (
	MaxMessageLength = sanitize.DefaultMaxLength
	MaxBioLength     = 500
	MaxListEntries   = 20
	MaxEntryLength   = 50
	DefaultPageSize  = 50
	MinQueryLength   = 2
)

// Store persists dashboard content.
type Store interface {
	SaveMessage(ctx context.Context, m Message) error
	RecentMessages(ctx context.Context, limit int) ([]Message, error)
	SaveProfile(ctx context.Context, p Profile) error
	FindProfile(ctx context.Context, principalID id.PrincipalID) (*Profile, error)
	SearchProfiles(ctx context.Context, query string) ([]Profile, error)
}

// Service applies input rules to dashboard content.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, metrics: m}
}

// PostMessage sanitizes body and stores it. Bodies that are empty after sanitizing
// or longer than MaxMessageLength runes are rejected.
func (s *Service) PostMessage(ctx context.Context, author id.PrincipalID, authorName, body string) (*Message, error) {
	res := sanitize.ValidateTextInput(body, MaxMessageLength)
	if !res.IsValid {
		s.metrics.IncrementSanitizerRejects()
		return nil, dErrors.New(dErrors.CodeValidation, "message must be between 1 and 1000 characters")
	}
	msg := Message{
		ID:         id.NewMessageID(),
		Author:     author,
		AuthorName: sanitize.Sanitize(authorName),
		Body:       res.Sanitized,
		PostedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save message")
	}
	s.logger.InfoContext(ctx, "message posted",
		"message_id", msg.ID.String(),
		"principal_id", author.String(),
	)
	return &msg, nil
}

func (s *Service) RecentMessages(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit > DefaultPageSize {
		limit = DefaultPageSize
	}
	msgs, err := s.store.RecentMessages(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load messages")
	}
	return msgs, nil
}

// UpdateProfile replaces the editable fields of the caller's profile.
func (s *Service) UpdateProfile(ctx context.Context, principalID id.PrincipalID, displayName string, update ProfileUpdate) (*Profile, error) {
	bio := sanitize.Sanitize(update.Bio)
	if utf8.RuneCountInString(bio) > MaxBioLength {
		s.metrics.IncrementSanitizerRejects()
		return nil, dErrors.New(dErrors.CodeValidation, "bio must be at most 500 characters")
	}
	skills, err := s.cleanList("skills", update.Skills)
	if err != nil {
		return nil, err
	}
	tags, err := s.cleanList("tags", update.Tags)
	if err != nil {
		return nil, err
	}

	p := Profile{
		PrincipalID: principalID,
		DisplayName: sanitize.Sanitize(displayName),
		Bio:         bio,
		Skills:      skills,
		Tags:        tags,
		UpdatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}
	return &p, nil
}

func (s *Service) cleanList(field string, values []string) ([]string, error) {
	cleaned := sanitize.List(values)
	if len(cleaned) > MaxListEntries {
		s.metrics.IncrementSanitizerRejects()
		return nil, dErrors.New(dErrors.CodeValidation, field+" must have at most 20 entries")
	}
	for _, v := range cleaned {
		if utf8.RuneCountInString(v) > MaxEntryLength {
			s.metrics.IncrementSanitizerRejects()
			return nil, dErrors.New(dErrors.CodeValidation, field+" entries must be at most 50 characters")
		}
	}
	return cleaned, nil
}

func (s *Service) Profile(ctx context.Context, principalID id.PrincipalID) (*Profile, error) {
	p, err := s.store.FindProfile(ctx, principalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// Search finds member profiles by name, skill or tag.
func (s *Service) Search(ctx context.Context, query string) ([]Profile, error) {
	q := strings.TrimSpace(sanitize.Sanitize(query))
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil, dErrors.New(dErrors.CodeValidation, "query must be at least 2 characters")
	}
	out, err := s.store.SearchProfiles(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search profiles")
	}
	return out, nil
}
