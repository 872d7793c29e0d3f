package client

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/ukhsc/ukhsc-system-backend/pkg/tokengenerator"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// AuthUser is the caller identified by a verified access token.
type AuthUser struct {
	UserID   uuid.UUID `json:"user_id"`
	DeviceID uuid.UUID `json:"device_id"`
	Role     string    `json:"role"`
}

func (u AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", u.UserID.String()),
		slog.String("device", u.DeviceID.String()),
		slog.String("role", u.Role),
	)
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "ukhsc context value " + k.name
}

var AuthUserKey = &contextKey{"AuthUser"}

// NewJWTAuth returns the HS256 verifier for access tokens minted by
// tokengenerator with the same secret, issuer and audience.
func NewJWTAuth(secret, issuer, audience string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil,
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
}

// Verifier reads the bearer token from the Authorization header only.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader)
}

// AuthUserMiddleware turns verified jwtauth claims into an AuthUser. Only
// access tokens are accepted. Must run after Verifier and
// jwtauth.Authenticator.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || claims == nil {
			http.Error(w, "missing or invalid JWT", http.StatusUnauthorized)
			return
		}

		payload, err := tokengenerator.PayloadFromClaims(claims)
		if err != nil {
			slog.Debug("Rejected token claims", "err", err)
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}
		access, ok := payload.(tokengenerator.AccessPayload)
		if !ok {
			slog.Debug("Rejected non-access token", "kind", payload.Kind())
			http.Error(w, "access token required", http.StatusUnauthorized)
			return
		}

		authUser := &AuthUser{UserID: access.UserID, DeviceID: access.DeviceID, Role: access.Role}
		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), authUser)))
	})
}
