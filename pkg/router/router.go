package router

import (
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	authapi "github.com/ukhsc/ukhsc-system-backend/pkg/auth/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	"github.com/ukhsc/ukhsc-system-backend/pkg/device"
	deviceapi "github.com/ukhsc/ukhsc-system-backend/pkg/device/api"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	memberapi "github.com/ukhsc/ukhsc-system-backend/pkg/member/api"
	"github.com/ukhsc/ukhsc-system-backend/pkg/metrics"
	orderapi "github.com/ukhsc/ukhsc-system-backend/pkg/order/api"
	schoolapi "github.com/ukhsc/ukhsc-system-backend/pkg/school/api"
)

// Config holds all the dependencies and handlers needed to setup routes
type Config struct {
	AuthHandle   *authapi.AuthHandler
	DeviceHandle *deviceapi.DeviceHandler
	MemberHandle *memberapi.MemberHandler
	SchoolHandle *schoolapi.SchoolHandler
	OrderHandle  *orderapi.OrderHandler

	// JWT authentication
	JWTAuth *jwtauth.JWTAuth

	// Optional: /metrics and request metrics are skipped when nil
	Metrics *metrics.Metrics

	// Browser origins allowed by CORS
	AllowedOrigins []string

	// Per-IP limit on /auth
	AuthRateLimit  int
	AuthRateWindow time.Duration
	// Peers whose forwarded client IP headers the limiter believes
	TrustedProxies []netip.Prefix
}

// SetupMiddleware installs the cross-cutting middleware. It must run before
// any route is registered on router.
func SetupMiddleware(router chi.Router, cfg Config) {
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware)
	}
}

// Authenticators returns the chain that turns a bearer access token into a
// client.AuthUser.
func Authenticators(ja *jwtauth.JWTAuth) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		client.Verifier(ja),
		jwtauth.Authenticator(ja),
		client.AuthUserMiddleware,
	}
}

// SetupRoutes mounts all API routes on the provided router
func SetupRoutes(router chi.Router, cfg Config) {
	authn := Authenticators(cfg.JWTAuth)

	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// Login flows, rate limited per client IP
	router.Route("/auth", func(r chi.Router) {
		if cfg.AuthRateLimit > 0 {
			r.Use(httprate.Limit(cfg.AuthRateLimit, cfg.AuthRateWindow,
				httprate.WithKeyFuncs(rateLimitKey(cfg.TrustedProxies)),
				httprate.WithLimitHandler(renderRateLimited),
			))
		}
		r.Mount("/", authapi.Handler(cfg.AuthHandle, authn...))
	})

	// School reads are public, writes and school orders need an admin
	router.Route("/schools", func(r chi.Router) {
		schoolapi.RegisterRoutes(r, cfg.SchoolHandle, authn...)
		r.With(authn...).With(client.RequireRole(client.RoleAdmin)).Get("/{id}/orders", cfg.OrderHandle.ListSchoolOrders)
	})

	// Mount authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(authn...)

		r.Mount("/me", memberapi.Handler(cfg.MemberHandle))
		r.Mount("/devices", deviceapi.Handler(cfg.DeviceHandle))
		r.Mount("/orders", orderapi.Handler(cfg.OrderHandle))
	})
}

// rateLimitKey keys the limiter by transport peer. Forwarded client IP
// headers are only believed when the peer is a trusted proxy, otherwise
// any caller could pick a fresh bucket per request.
func rateLimitKey(trusted []netip.Prefix) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		if len(trusted) > 0 && fromTrustedProxy(r.RemoteAddr, trusted) {
			if ip := device.ExtractClientIP(r.Header, r.RemoteAddr); ip != "" {
				return ip, nil
			}
		}
		return httprate.KeyByIP(r)
	}
}

func fromTrustedProxy(remoteAddr string, trusted []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func renderRateLimited(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, authapi.ErrorResponse{
		Status:  "error",
		Message: "too many requests, please retry later",
		Code:    string(apperrors.ErrCodeRateLimitExceeded),
	})
}
