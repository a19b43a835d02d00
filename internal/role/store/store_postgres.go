package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clubportal/internal/role"
	id "clubportal/pkg/domain"
	"clubportal/pkg/platform/sentinel"
)

// Schema is the table the role authority reads. Row-level security and the rest of
// the member schema belong to the hosted backend; this is the slice we query.
const Schema = `
CREATE TABLE IF NOT EXISTS user_roles (
	user_id    UUID PRIMARY KEY,
	role       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// PostgresAuthority reads role assignments from the backend database.
type PostgresAuthority struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresOption configures a PostgresAuthority instance.
type PostgresOption func(*PostgresAuthority)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(s *PostgresAuthority) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresAuthority {
	s := &PostgresAuthority{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// EnsureSchema creates the user_roles table when missing.
func (s *PostgresAuthority) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure user_roles schema: %w", err)
	}
	return nil
}

// UserRole returns the stored role. Missing rows map to sentinel.ErrNotFound and
// values outside the hierarchy to role.ErrUnknownRole.
func (s *PostgresAuthority) UserRole(ctx context.Context, principalID id.PrincipalID) (role.Role, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`,
		uuid.UUID(principalID),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", classify(err, "get user role")
	}
	return role.Parse(raw)
}

// SetRole upserts an assignment.
func (s *PostgresAuthority) SetRole(ctx context.Context, principalID id.PrincipalID, r role.Role) error {
	if !r.Valid() {
		return role.ErrUnknownRole
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`, uuid.UUID(principalID), string(r), s.clock())
	if err != nil {
		return classify(err, "set user role")
	}
	return nil
}

// List returns all assignments with a recognized role, highest role first.
func (s *PostgresAuthority) List(ctx context.Context) ([]role.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, role, updated_at FROM user_roles
		WHERE role = ANY($1)
		ORDER BY array_position($1, role) DESC, user_id
	`, pq.Array(roleNames()))
	if err != nil {
		return nil, classify(err, "list user roles")
	}
	defer rows.Close()

	var out []role.Assignment
	for rows.Next() {
		var (
			userID    uuid.UUID
			raw       string
			updatedAt time.Time
		)
		if err := rows.Scan(&userID, &raw, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		r, err := role.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, role.Assignment{PrincipalID: id.PrincipalID(userID), Role: r, UpdatedAt: updatedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user roles: %w", err)
	}
	return out, nil
}

func roleNames() []string {
	all := role.All()
	names := make([]string, len(all))
	for i, r := range all {
		names[i] = string(r)
	}
	return names
}

func classify(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%s: %w: %v", op, sentinel.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
