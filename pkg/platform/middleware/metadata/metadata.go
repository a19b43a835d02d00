package metadata

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"clubportal/pkg/requestcontext"
)

// Client describes the caller as derived from request headers.
type Client struct {
	IP             string
	UserAgent      string
	Browser        string
	BrowserVersion string
	Mobile         bool
	Bot            bool
}

type contextKeyClient struct{}

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and the request logger.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ParseClient(ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		ctx := WithClient(r.Context(), client)
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseClient classifies a User-Agent string.
func ParseClient(ip, userAgent string) Client {
	client := Client{IP: ip, UserAgent: userAgent}
	if userAgent == "" {
		return client
	}
	ua := useragent.New(userAgent)
	client.Browser, client.BrowserVersion = ua.Browser()
	client.Mobile = ua.Mobile()
	client.Bot = ua.Bot()
	return client
}

// GetClient retrieves the client metadata from the context.
func GetClient(ctx context.Context) Client {
	if client, ok := ctx.Value(contextKeyClient{}).(Client); ok {
		return client
	}
	return Client{}
}

// WithClient injects client metadata into a context.
// Useful for handler tests that don't run the full HTTP middleware chain.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, contextKeyClient{}, client)
}

// RequestLogger logs one line per request with status, latency and client class.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ctx := r.Context()
			client := GetClient(ctx)
			logger.InfoContext(ctx, "http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"browser", client.Browser,
				"mobile", client.Mobile,
				"bot", client.Bot,
				"request_id", requestcontext.RequestID(ctx),
			)
		})
	}
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
