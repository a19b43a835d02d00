package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	jwttoken "clubportal/internal/jwt_token"
	"clubportal/internal/session"
	dErrors "clubportal/pkg/domain-errors"
)

const (
	// Well-known flat keys, prefixed per deployment.
	tokenKey  = "auth_token"
	userIDKey = "user_id"
	eventsKey = "session_events"

	eventSignedIn  = "signed_in"
	eventSignedOut = "signed_out"
	eventRefreshed = "refreshed"

	notifyTimeout = 5 * time.Second
)

// TokenValidator validates a raw session token.
type TokenValidator interface {
	Validate(tokenString string) (*jwttoken.Claims, error)
}

// Redis keeps the raw session token under flat keys and broadcasts session changes
// over a pub/sub channel, so every process sharing the prefix observes sign-in and
// sign-out.
type Redis struct {
	client    *redis.Client
	validator TokenValidator
	prefix    string
	logger    *slog.Logger
}

// RedisOption configures a Redis provider.
type RedisOption func(*Redis)

// WithPrefix namespaces the keys and channel, e.g. per CLI profile.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRedis(client *redis.Client, validator TokenValidator, opts ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		validator: validator,
		prefix:    "clubportal:",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) key(name string) string { return r.prefix + name }

// CurrentSession reads the stored token. Missing, malformed, expired or mismatched
// tokens all mean "no session".
func (r *Redis) CurrentSession(ctx context.Context) (*session.Session, error) {
	values, err := r.client.MGet(ctx, r.key(tokenKey), r.key(userIDKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session keys: %w", err)
	}
	raw, _ := values[0].(string)
	storedUserID, _ := values[1].(string)
	if raw == "" {
		return nil, nil
	}

	claims, err := r.validator.Validate(raw)
	if err != nil {
		r.logger.InfoContext(ctx, "stored session token rejected", "error", err)
		return nil, nil
	}
	principalID, err := claims.PrincipalID()
	if err != nil || principalID.String() != storedUserID {
		r.logger.WarnContext(ctx, "stored session token does not match user id")
		return nil, nil
	}
	return &session.Session{
		PrincipalID: principalID,
		DisplayName: claims.Name,
		RoleHint:    claims.Role,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// SignIn validates and stores a token, then broadcasts the change.
func (r *Redis) SignIn(ctx context.Context, token string) (*session.Session, error) {
	claims, err := r.validator.Validate(token)
	if err != nil {
		return nil, err
	}
	principalID, err := claims.PrincipalID()
	if err != nil {
		return nil, jwttoken.ErrMalformedToken
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil, jwttoken.ErrExpiredToken
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(tokenKey), token, ttl)
		pipe.Set(ctx, r.key(userIDKey), principalID.String(), ttl)
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "store session")
	}
	if err := r.client.Publish(ctx, r.key(eventsKey), eventSignedIn).Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "broadcast sign in")
	}
	return &session.Session{
		PrincipalID: principalID,
		DisplayName: claims.Name,
		RoleHint:    claims.Role,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Refresh broadcasts a refresh event so observers re-read the session.
func (r *Redis) Refresh(ctx context.Context) error {
	return r.client.Publish(ctx, r.key(eventsKey), eventRefreshed).Err()
}

// SignOut deletes the stored token and broadcasts the change.
func (r *Redis) SignOut(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(tokenKey), r.key(userIDKey)).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "clear session")
	}
	if err := r.client.Publish(ctx, r.key(eventsKey), eventSignedOut).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "broadcast sign out")
	}
	return nil
}

// OnSessionChange subscribes to the events channel and calls fn with the session as
// re-read after each event. The subscription is confirmed before returning.
func (r *Redis) OnSessionChange(ctx context.Context, fn func(*session.Session)) (func(), error) {
	pubsub := r.client.Subscribe(ctx, r.key(eventsKey))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to session events: %w", err)
	}

	ch := pubsub.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
			var sess *session.Session
			var err error
			if msg.Payload != eventSignedOut {
				sess, err = r.CurrentSession(readCtx)
			}
			cancel()
			if err != nil {
				r.logger.WarnContext(ctx, "re-read session after event failed",
					"event", msg.Payload,
					"error", err,
				)
				continue
			}
			fn(sess)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			r.logger.Warn("close session subscription", "error", err)
		}
		<-done
	}, nil
}
