package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"clubportal/internal/dashboard"
	jwttoken "clubportal/internal/jwt_token"
	"clubportal/internal/platform/metrics"
	"clubportal/internal/role"
	rolestore "clubportal/internal/role/store"
	id "clubportal/pkg/domain"
	authmw "clubportal/pkg/platform/middleware/auth"
	"clubportal/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	codec     *jwttoken.Codec
	authority *rolestore.InMemoryAuthority
	registry  *prometheus.Registry
	healthErr error
	router    http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.codec = jwttoken.NewCodec("router-test-key")
	s.authority = rolestore.NewInMemory()
	s.registry = prometheus.NewRegistry()
	s.healthErr = nil
	m := metrics.New(s.registry)

	s.router = NewRouter(Config{
		Logger:      logger,
		Metrics:     m,
		Gatherer:    s.registry,
		Tokens:      jwttoken.NewCodecAdapter(s.codec),
		Roles:       role.NewResolver(s.authority, role.WithLogger(logger), role.WithMetrics(m)),
		Assignments: s.authority,
		Dashboard:   dashboard.NewService(dashboard.NewInMemoryStore(), logger, m),
		SignInRoute: "/signin",
		Health: func(context.Context) error {
			return s.healthErr
		},
	})
}

// member creates a principal holding r and returns a bearer token for it.
func (s *RouterSuite) member(r role.Role, name string) (id.PrincipalID, string) {
	principalID := id.PrincipalID(uuid.New())
	if r != "" {
		s.Require().NoError(s.authority.SetRole(context.Background(), principalID, r))
	}
	token, err := s.codec.Issue(principalID, name, string(r), time.Hour)
	s.Require().NoError(err)
	return principalID, token
}

func (s *RouterSuite) TestPublicPages() {
	t := s.T()
	testutil.Given(t, "an anonymous visitor", func(t *testing.T) {
		testutil.When(t, "they open the home page", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/", nil))
			testutil.Then(t, "the page is served unauthenticated", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
				page := testutil.UnmarshalResponse[PageResponse](t, rr)
				assert.Equal(t, "home", page.Page)
				assert.Equal(t, "Home", page.Title)
				assert.False(t, page.Authenticated)
			})
		})
		testutil.When(t, "they ask for French", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/partners?lang=fr", nil))
			testutil.Then(t, "the title is translated", func(t *testing.T) {
				page := testutil.UnmarshalResponse[PageResponse](t, rr)
				assert.Equal(t, "Partenaires", page.Title)
				assert.Equal(t, "fr", page.Locale)
			})
		})
	})
}

func (s *RouterSuite) TestDashboardRequiresMember() {
	t := s.T()
	testutil.Given(t, "no session", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/dashboard/news", nil))
		testutil.Then(t, "the visitor is sent to the site root", func(t *testing.T) {
			testutil.AssertRedirect(t, rr, "/")
		})
	})

	testutil.Given(t, "a free account", func(t *testing.T) {
		_, token := s.member(role.Free, "Fred")
		rr := testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/dashboard/news", nil), token))
		testutil.Then(t, "the dashboard is refused", func(t *testing.T) {
			testutil.AssertRedirect(t, rr, "/")
		})
	})

	testutil.Given(t, "a member", func(t *testing.T) {
		_, token := s.member(role.Member, "Ada")
		rr := testutil.DoRequest(s.router, testutil.WithSessionCookie(testutil.NewJSONRequest(t, http.MethodGet, "/dashboard/news", nil), token))
		testutil.Then(t, "the tab is served", func(t *testing.T) {
			require.Equal(t, http.StatusOK, rr.Code)
			tab := testutil.UnmarshalResponse[TabResponse](t, rr)
			assert.Equal(t, "news", tab.Tab)
			assert.Equal(t, "News", tab.Title)
		})

		rr = testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/dashboard/lounge", nil), token))
		testutil.Then(t, "unknown tabs are not found", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		})

		rr = testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/dashboard", nil), token))
		testutil.Then(t, "the tab index lists every tab", func(t *testing.T) {
			require.Equal(t, http.StatusOK, rr.Code)
			resp := testutil.UnmarshalResponse[DashboardResponse](t, rr)
			assert.Len(t, resp.Tabs, len(dashboard.Tabs))
		})
	})
}

func (s *RouterSuite) TestUnknownPrincipalIsDenied() {
	principalID := id.PrincipalID(uuid.New())
	token, err := s.codec.Issue(principalID, "Ghost", "superadmin", time.Hour)
	s.Require().NoError(err)

	rr := testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin", nil), token))
	testutil.AssertRedirect(s.T(), rr, "/")
}

func (s *RouterSuite) TestInvalidTokensRedirectToSignIn() {
	principalID := id.PrincipalID(uuid.New())
	expired, err := s.codec.Issue(principalID, "Ada", "member", -time.Minute)
	s.Require().NoError(err)

	for name, token := range map[string]string{
		"expired":   expired,
		"malformed": "not.a.token",
		"foreign":   mustIssue(s.T(), jwttoken.NewCodec("other-key"), principalID),
	} {
		s.Run(name, func() {
			rr := testutil.DoRequest(s.router, testutil.WithSessionCookie(testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/news", nil), token))
			testutil.AssertRedirect(s.T(), rr, "/signin?next="+url.QueryEscape("/dashboard/news"))

			cleared := false
			for _, c := range rr.Result().Cookies() {
				if c.Name == authmw.SessionCookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			s.True(cleared, "stale session cookie is cleared")
		})
	}
}

func mustIssue(t *testing.T, codec *jwttoken.Codec, principalID id.PrincipalID) string {
	t.Helper()
	token, err := codec.Issue(principalID, "Mallory", "superadmin", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *RouterSuite) TestAdminPanel() {
	_, memberToken := s.member(role.Member, "Ada")
	_, superToken := s.member(role.SuperAdmin, "Grace")

	rr := testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin", nil), memberToken))
	testutil.AssertRedirect(s.T(), rr, "/")

	rr = testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin", nil), superToken))
	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[AdminResponse](s.T(), rr)
	s.Equal("Admin panel", resp.Title)
	s.Require().Len(resp.Assignments, 2)
	s.Equal("superadmin", resp.Assignments[0].Role)
	s.Equal("member", resp.Assignments[1].Role)
}

func (s *RouterSuite) TestAssignRole() {
	target, _ := s.member(role.Member, "Ada")
	_, adminToken := s.member(role.Admin, "Alan")
	superID, superToken := s.member(role.SuperAdmin, "Grace")
	path := "/admin/roles/" + target.String()

	s.Run("admin cannot assign roles", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPut, path, AssignRoleRequest{Role: "admin"}), adminToken)
		testutil.AssertRedirect(s.T(), testutil.DoRequest(s.router, req), "/")
	})

	s.Run("superadmin promotes a member", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]string{"role": "admin"}), superToken)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

		got, err := s.authority.UserRole(context.Background(), target)
		s.Require().NoError(err)
		s.Equal(role.Admin, got)
	})

	s.Run("unknown role is rejected", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPut, path, map[string]string{"role": "owner"}), superToken)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "invalid_input")
	})

	s.Run("invalid principal id", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/roles/nope", map[string]string{"role": "admin"}), superToken)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "invalid_input")
	})

	s.Run("own role cannot be changed", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/roles/"+superID.String(), map[string]string{"role": "free"}), superToken)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden, "forbidden")
	})
}

func (s *RouterSuite) TestMessages() {
	_, token := s.member(role.Member, "Ada")

	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/dashboard/messages",
		PostMessageRequest{Body: `<script>document.cookie</script>Hi <a href="javascript:alert(1)">all</a>`}), token)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	msg := testutil.UnmarshalResponse[dashboard.Message](s.T(), rr)
	s.Equal(`Hi <a href="alert(1)">all</a>`, msg.Body)
	s.Equal("Ada", msg.AuthorName)

	req = testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/dashboard/messages", PostMessageRequest{Body: "<script>x</script>"}), token)
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "validation_error")

	req = testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/dashboard/messages", map[string]any{"body": "hi", "author": "x"}), token)
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/messages", nil), token))
	s.Require().Equal(http.StatusOK, rr.Code)
	list := testutil.UnmarshalResponse[MessagesResponse](s.T(), rr)
	s.Require().Len(list.Messages, 1)
	s.Equal(msg.ID, list.Messages[0].ID)
}

func (s *RouterSuite) TestProfileAndSearch() {
	_, token := s.member(role.Member, "Ada Lovelace")

	rr := testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/profile", nil), token))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPut, "/dashboard/profile", UpdateProfileRequest{
		Bio:    "Analyst",
		Skills: []string{"Maths", "maths", "<script>x</script>"},
		Tags:   []string{"engines"},
	}), token)
	rr = testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	p := testutil.UnmarshalResponse[dashboard.Profile](s.T(), rr)
	s.Equal([]string{"Maths"}, p.Skills)

	rr = testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/search?q=engine", nil), token))
	s.Require().Equal(http.StatusOK, rr.Code)
	found := testutil.UnmarshalResponse[ProfilesResponse](s.T(), rr)
	s.Require().Len(found.Profiles, 1)
	s.Equal("Ada Lovelace", found.Profiles[0].DisplayName)

	rr = testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/dashboard/search?q=a", nil), token))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *RouterSuite) TestSessionEndpoints() {
	s.Run("anonymous", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/auth/session", nil))
		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal("anonymous", resp.Status)
	})

	s.Run("role comes from the authority, not the token", func() {
		principalID := id.PrincipalID(uuid.New())
		s.Require().NoError(s.authority.SetRole(context.Background(), principalID, role.Member))
		token, err := s.codec.Issue(principalID, "Ada", "superadmin", time.Hour)
		s.Require().NoError(err)

		rr := testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/auth/session", nil), token))
		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal("authenticated", resp.Status)
		s.Equal("member", resp.Role)
		s.Equal("superadmin", resp.RoleHint)
		s.Equal(principalID.String(), resp.PrincipalID)
	})

	s.Run("failed lookup reports free", func() {
		_, token := s.member("", "Nobody")
		rr := testutil.DoRequest(s.router, testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/auth/session", nil), token))
		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal("authenticated", resp.Status)
		s.Equal("free", resp.Role)
	})

	s.Run("sign in sets the session cookie", func() {
		principalID, token := s.member(role.Member, "Ada")
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/session", SignInRequest{Token: token}))
		s.Require().Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal(principalID.String(), resp.PrincipalID)

		cookies := rr.Result().Cookies()
		s.Require().Len(cookies, 1)
		s.Equal(authmw.SessionCookieName, cookies[0].Name)
		s.Equal(token, cookies[0].Value)
		s.True(cookies[0].HttpOnly)
	})

	s.Run("sign in rejects bad tokens", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/session", SignInRequest{Token: "garbage"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")

		rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/session", SignInRequest{Token: "  "}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("sign out clears the cookie", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/signout", nil))
		s.Require().Equal(http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		s.Require().Len(cookies, 1)
		s.Less(cookies[0].MaxAge, 0)
	})
}

func (s *RouterSuite) TestHealthAndMetrics() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rr.Code)

	s.healthErr = errors.New("redis down")
	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/healthz", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")

	// Generate one access decision so the counter family is exported.
	testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin", nil))
	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rr.Code)
	s.True(strings.Contains(rr.Body.String(), "clubportal_access_decisions_total"))
}
