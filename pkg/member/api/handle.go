package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	"github.com/ukhsc/ukhsc-system-backend/pkg/member"
	"github.com/ukhsc/ukhsc-system-backend/pkg/validator"
)

// MemberHandler serves the caller's own member record and settings
type MemberHandler struct {
	memberService *member.MemberService
	validator     *validator.Validator
}

func NewMemberHandler(memberService *member.MemberService, v *validator.Validator) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		validator:     v,
	}
}

type MemberResponse struct {
	ID          string `json:"id"`
	SchoolID    string `json:"school_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type SettingsResponse struct {
	NotifyEmail       bool   `json:"notify_email"`
	Locale            string `json:"locale"`
	ShareWithPartners bool   `json:"share_with_partners"`
}

// UpdateSettingsRequest changes only the fields that are present
type UpdateSettingsRequest struct {
	NotifyEmail       *bool   `json:"notify_email"`
	Locale            *string `json:"locale" validate:"omitempty,locale"`
	ShareWithPartners *bool   `json:"share_with_partners"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (h *MemberHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	m, err := h.memberService.GetMember(r.Context(), authUser.UserID)
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	var resp MemberResponse
	copier.Copy(&resp, &m)
	resp.ID = m.ID.String()
	resp.SchoolID = m.SchoolID.String()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *MemberHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	settings, err := h.memberService.GetSettings(r.Context(), authUser.UserID)
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	var resp SettingsResponse
	copier.Copy(&resp, &settings)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *MemberHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderAppError(w, r, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if errs := h.validator.ValidateStructured(&req); errs != nil {
		renderAppError(w, r, apperrors.ValidationFailed(errs))
		return
	}

	settings, err := h.memberService.GetSettings(r.Context(), authUser.UserID)
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	if req.NotifyEmail != nil {
		settings.NotifyEmail = *req.NotifyEmail
	}
	if req.Locale != nil {
		settings.Locale = *req.Locale
	}
	if req.ShareWithPartners != nil {
		settings.ShareWithPartners = *req.ShareWithPartners
	}

	saved, err := h.memberService.UpdateSettings(r.Context(), settings)
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	var resp SettingsResponse
	copier.Copy(&resp, &saved)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// Handler returns a http.Handler for the /me API
func Handler(h *MemberHandler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.GetMe)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	return r
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
		slog.Error("Member request failed", "path", r.URL.Path, "error", err)
		response.Message = "Internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, response)
}
