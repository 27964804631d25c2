package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/metrics"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/httpx"
	"github.com/coachhub/platform/pkg/kvx"
	"github.com/coachhub/platform/pkg/slogx"

	_ "github.com/coachhub/platform/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-route profiles, usually httpx.StrictLimit,
// ModerateLimit and PublicLimit after environment overrides.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Public:   httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	kv      kvx.Store
	metrics *metrics.Metrics

	AuthService   *service.AuthService
	TokenService  *service.TokenService
	SignupService *service.SignupService
	UserService   *service.UserService

	// Events is reported by /readyz when it implements Pinger.
	Events any
	Limits RateLimits

	// Tracing, when set, wraps every request in a server span.
	Tracing httpx.Middleware
}

func NewRouter(
	buildVersion string,
	st store.Store,
	kv kvx.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		kv:           kv,
		metrics:      m,
		Limits:       DefaultRateLimits(),
	}
}

// ApplyRoutes registers every route and builds the global middleware
// chain. Services must be set before calling it.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSignup()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	// Metrics sits directly on the mux so it sees the matched pattern.
	r.handler = httpx.Chain(r.Mux,
		r.Tracing,
		slogx.HTTPMiddleware(r.logger),
		r.metrics.Middleware,
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Coaching Platform Auth API
//	@version		1.0
//	@description	Registration, login and JWT access/refresh token lifecycle for the coaching platform.
//	@description	Access and refresh tokens are HS256 JWTs signed with separate secrets. Refresh tokens are single use.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(tokenAuthenticator{tokens: r.TokenService})
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, TokenService: r.TokenService}

	// Credential endpoints: strict, keyed by IP + email so one address can't
	// lock out everyone behind the same NAT.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "email"),
		),
	)

	r.Mux.Handle("POST /auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.authn(),
			httpx.RateLimitByPrincipal(r.Limits.Public),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.authn(),
			httpx.RateLimitByPrincipal(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerSignup() {
	h := &SignupHandler{SignupService: r.SignupService}

	r.Mux.Handle("POST /auth/register/otp",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIPAndJSONField(r.Limits.Moderate, "email"),
		),
	)
	// Verification guesses codes, so it gets the strict profile.
	r.Mux.Handle("POST /auth/register/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "email"),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminUsersHandler{UserService: r.UserService}

	r.Mux.Handle("PATCH /admin/users/{id}/active",
		httpx.Chain(http.HandlerFunc(h.HandleSetActive),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByPrincipal(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.kv, r.Events),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
