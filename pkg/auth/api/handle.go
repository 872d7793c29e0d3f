package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/ukhsc/ukhsc-system-backend/pkg/auth"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	"github.com/ukhsc/ukhsc-system-backend/pkg/device"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	"github.com/ukhsc/ukhsc-system-backend/pkg/validator"
)

const tokenTypeBearer = "Bearer"

type AuthHandler struct {
	authService *auth.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *auth.AuthService, v *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   v,
	}
}

type RegisterRequest struct {
	OnboardingToken string `json:"onboarding_token" validate:"required"`
	SchoolID        string `json:"school_id" validate:"required,uuid"`
	DisplayName     string `json:"display_name" validate:"required,max=50"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SessionResponse is returned by login, register and refresh
type SessionResponse struct {
	TokenType        string    `json:"token_type"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	DeviceID         string    `json:"device_id"`
}

// OnboardingResponse is returned by the callback for identities without a member
type OnboardingResponse struct {
	OnboardingToken   string    `json:"onboarding_token"`
	ExpiresAt         time.Time `json:"expires_at"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	SuggestedSchoolID string    `json:"suggested_school_id,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func toSessionResponse(s auth.Session) SessionResponse {
	return SessionResponse{
		TokenType:        tokenTypeBearer,
		AccessToken:      s.AccessToken,
		AccessExpiresAt:  s.AccessExpiresAt,
		RefreshToken:     s.RefreshToken,
		RefreshExpiresAt: s.RefreshExpiresAt,
		DeviceID:         s.DeviceID.String(),
	}
}

func toOnboardingResponse(o auth.Onboarding) OnboardingResponse {
	resp := OnboardingResponse{
		OnboardingToken: o.Token,
		ExpiresAt:       o.ExpiresAt,
		Email:           o.Email,
		Name:            o.Name,
	}
	if o.SuggestedSchoolID != nil {
		resp.SuggestedSchoolID = o.SuggestedSchoolID.String()
	}
	return resp
}

// BeginLogin redirects the browser to the identity provider
func (h *AuthHandler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.authService.BeginLogin(r.Context(), r.URL.Query().Get("redirect"))
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the login. Browser logins that started with a redirect
// are sent back to it with the result in the URL fragment; otherwise the
// result is rendered as JSON.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")

	if reason := query.Get("error"); reason != "" {
		redirect := h.authService.AbortLogin(r.Context(), state, reason)
		if redirect != "" {
			http.Redirect(w, r, withFragment(redirect, url.Values{"error": {reason}}), http.StatusFound)
			return
		}
		renderAppError(w, r, apperrors.Unauthorized("login was cancelled: "+reason))
		return
	}

	code := query.Get("code")
	if code == "" {
		renderAppError(w, r, apperrors.InvalidInput("code", "missing"))
		return
	}

	result, err := h.authService.CompleteLogin(r.Context(), code, state, device.ClientInfoFromRequest(r))
	if err != nil {
		if result.Redirect != "" {
			http.Redirect(w, r, withFragment(result.Redirect, url.Values{"error": {string(apperrors.GetCode(err))}}), http.StatusFound)
			return
		}
		renderAppError(w, r, err)
		return
	}

	switch {
	case result.Session != nil:
		resp := toSessionResponse(*result.Session)
		if result.Redirect != "" {
			http.Redirect(w, r, withFragment(result.Redirect, url.Values{
				"token_type":         {resp.TokenType},
				"access_token":       {resp.AccessToken},
				"access_expires_at":  {strconv.FormatInt(resp.AccessExpiresAt.Unix(), 10)},
				"refresh_token":      {resp.RefreshToken},
				"refresh_expires_at": {strconv.FormatInt(resp.RefreshExpiresAt.Unix(), 10)},
				"device_id":          {resp.DeviceID},
			}), http.StatusFound)
			return
		}
		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
	case result.Onboarding != nil:
		resp := toOnboardingResponse(*result.Onboarding)
		if result.Redirect != "" {
			values := url.Values{
				"onboarding_token": {resp.OnboardingToken},
				"email":            {resp.Email},
				"name":             {resp.Name},
			}
			if resp.SuggestedSchoolID != "" {
				values.Set("suggested_school_id", resp.SuggestedSchoolID)
			}
			http.Redirect(w, r, withFragment(result.Redirect, values), http.StatusFound)
			return
		}
		render.Status(r, http.StatusOK)
		render.JSON(w, r, resp)
	default:
		renderAppError(w, r, apperrors.New(apperrors.ErrCodeInternal, "login produced no result"))
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderAppError(w, r, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if errs := h.validator.ValidateStructured(&req); errs != nil {
		renderAppError(w, r, apperrors.ValidationFailed(errs))
		return
	}

	session, err := h.authService.Register(r.Context(), auth.RegisterParams{
		OnboardingToken: req.OnboardingToken,
		SchoolID:        uuid.MustParse(req.SchoolID),
		DisplayName:     req.DisplayName,
	}, device.ClientInfoFromRequest(r))
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toSessionResponse(session))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderAppError(w, r, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if errs := h.validator.ValidateStructured(&req); errs != nil {
		renderAppError(w, r, apperrors.ValidationFailed(errs))
		return
	}

	session, err := h.authService.Refresh(r.Context(), req.RefreshToken, device.ClientInfoFromRequest(r))
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toSessionResponse(session))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	if err := h.authService.Logout(r.Context(), authUser.UserID, authUser.DeviceID); err != nil {
		renderAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Handler mounts the login routes. authMiddlewares guard logout, which
// needs a verified access token.
func Handler(h *AuthHandler, authMiddlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	provider := "/" + h.authService.ProviderName()
	r.Get(provider, h.BeginLogin)
	r.Get(provider+"/callback", h.Callback)
	r.Post("/register", h.Register)
	r.Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(authMiddlewares...)
		r.Post("/logout", h.Logout)
	})

	return r
}

func withFragment(target string, values url.Values) string {
	return target + "#" + values.Encode()
}

func renderAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) {
		appErr = apperrors.InternalWrap(err, "unexpected error")
	}

	status := appErr.HTTPStatusCode()
	response := ErrorResponse{
		Status:  "error",
		Message: appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Auth request failed", "path", r.URL.Path, "error", err)
		response.Message = "Internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, response)
}
