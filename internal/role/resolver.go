package role

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"clubportal/internal/platform/metrics"
	id "clubportal/pkg/domain"
	dErrors "clubportal/pkg/domain-errors"
	"clubportal/pkg/requestcontext"
)

// DefaultLookupTimeout bounds a single authority round trip.
const DefaultLookupTimeout = 5 * time.Second

// ErrRoleLookup wraps every failure to obtain an authoritative role.
var ErrRoleLookup = dErrors.New(dErrors.CodeUnavailable, "role lookup failed")

func lookupFailed(cause error) error {
	return dErrors.Wrap(cause, dErrors.CodeUnavailable, "role lookup failed")
}

// Authority is the backend that owns role assignments.
type Authority interface {
	UserRole(ctx context.Context, principalID id.PrincipalID) (Role, error)
}

// Resolver answers role questions for a principal by asking the Authority.
// Concurrent lookups for the same principal share one round trip.
type Resolver struct {
	authority Authority
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	group     singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout overrides DefaultLookupTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(authority Authority, opts ...Option) *Resolver {
	r := &Resolver{
		authority: authority,
		timeout:   DefaultLookupTimeout,
		logger:    slog.Default(),
		tracer:    otel.Tracer("clubportal/internal/role"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the principal's assigned role. Any failure (timeout, unknown
// principal, unrecognized role value, backend error) is reported as ErrRoleLookup.
func (r *Resolver) Resolve(ctx context.Context, principalID id.PrincipalID) (Role, error) {
	if principalID.IsNil() {
		return "", lookupFailed(errors.New("nil principal"))
	}

	ctx, span := r.tracer.Start(ctx, "role.Resolve",
		trace.WithAttributes(attribute.String("principal.id", principalID.String())))
	defer span.End()

	ch := r.group.DoChan(principalID.String(), func() (any, error) {
		// The shared flight must not die with whichever caller started it.
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		start := time.Now()
		assigned, err := r.authority.UserRole(lookupCtx, principalID)
		r.metrics.ObserveRoleLookup(time.Since(start), err)
		if err != nil {
			return Role(""), err
		}
		if !assigned.Valid() {
			return Role(""), ErrUnknownRole
		}
		return assigned, nil
	})

	select {
	case <-ctx.Done():
		err := lookupFailed(ctx.Err())
		span.SetStatus(codes.Error, err.Error())
		return "", err
	case res := <-ch:
		if res.Err != nil {
			err := lookupFailed(res.Err)
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		assigned := res.Val.(Role)
		span.SetAttributes(attribute.String("role", string(assigned)))
		return assigned, nil
	}
}

// CheckRole reports whether the principal's assigned role equals want, surfacing
// lookup errors to the caller.
func (r *Resolver) CheckRole(ctx context.Context, principalID id.PrincipalID, want Role) (bool, error) {
	if !want.Valid() {
		return false, ErrUnknownRole
	}
	assigned, err := r.Resolve(ctx, principalID)
	if err != nil {
		return false, err
	}
	return assigned == want, nil
}

// CheckRoleOrHigher reports whether the principal ranks at or above min, surfacing
// lookup errors to the caller.
func (r *Resolver) CheckRoleOrHigher(ctx context.Context, principalID id.PrincipalID, min Role) (bool, error) {
	if !min.Valid() {
		return false, ErrUnknownRole
	}
	assigned, err := r.Resolve(ctx, principalID)
	if err != nil {
		return false, err
	}
	return assigned.AtLeast(min), nil
}

// HasRole is CheckRole with errors folded into false.
func (r *Resolver) HasRole(ctx context.Context, principalID id.PrincipalID, want Role) bool {
	ok, err := r.CheckRole(ctx, principalID, want)
	if err != nil {
		r.logDenied(ctx, principalID, want, err)
		return false
	}
	return ok
}

// HasRoleOrHigher is CheckRoleOrHigher with errors folded into false.
func (r *Resolver) HasRoleOrHigher(ctx context.Context, principalID id.PrincipalID, min Role) bool {
	ok, err := r.CheckRoleOrHigher(ctx, principalID, min)
	if err != nil {
		r.logDenied(ctx, principalID, min, err)
		return false
	}
	return ok
}

func (r *Resolver) logDenied(ctx context.Context, principalID id.PrincipalID, required Role, err error) {
	r.logger.WarnContext(ctx, "role check denied after lookup failure",
		"error", err,
		"principal_id", principalID.String(),
		"required_role", required.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
