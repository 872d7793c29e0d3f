package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	"github.com/ukhsc/ukhsc-system-backend/pkg/school"
	"github.com/ukhsc/ukhsc-system-backend/pkg/validator"
)

// SchoolHandler handles HTTP requests for schools
type SchoolHandler struct {
	schoolService *school.SchoolService
	validator     *validator.Validator
}

func NewSchoolHandler(schoolService *school.SchoolService, v *validator.Validator) *SchoolHandler {
	return &SchoolHandler{
		schoolService: schoolService,
		validator:     v,
	}
}

// SchoolRequest is the body of create and update requests
type SchoolRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	ShortName string `json:"short_name" validate:"required,alphanum,max=32"`
	Domain    string `json:"domain" validate:"omitempty,fqdn"`
}

// SchoolResponse is a school as returned by the API
type SchoolResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Domain    string `json:"domain,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func toResponse(s school.School) SchoolResponse {
	var resp SchoolResponse
	copier.Copy(&resp, &s)
	resp.ID = s.ID.String()
	return resp
}

func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	schools, err := h.schoolService.List(r.Context())
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	resp := make([]SchoolResponse, 0, len(schools))
	for _, s := range schools {
		resp = append(resp, toResponse(s))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *SchoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s, err := h.schoolService.Get(r.Context(), id)
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponse(s))
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, ok := h.decode(w, r)
	if !ok {
		return
	}
	s, err := h.schoolService.Create(r.Context(), params)
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	slog.Info("School created", "id", s.ID, "shortName", s.ShortName)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toResponse(s))
}

func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	params, ok := h.decode(w, r)
	if !ok {
		return
	}
	s, err := h.schoolService.Update(r.Context(), id, params)
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponse(s))
}

func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.schoolService.Delete(r.Context(), id); err != nil {
		renderAppError(w, r, err)
		return
	}
	slog.Info("School deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchoolHandler) decode(w http.ResponseWriter, r *http.Request) (school.SchoolParams, bool) {
	var req SchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderAppError(w, r, apperrors.InvalidInput("body", err.Error()))
		return school.SchoolParams{}, false
	}
	if errs := h.validator.ValidateStructured(&req); errs != nil {
		renderAppError(w, r, apperrors.ValidationFailed(errs))
		return school.SchoolParams{}, false
	}
	var params school.SchoolParams
	copier.Copy(&params, &req)
	return params, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderAppError(w, r, apperrors.InvalidInput("school id", err.Error()))
		return uuid.Nil, false
	}
	return id, true
}

// RegisterRoutes adds the school routes to r. Writes pass authMiddlewares
// and then require the admin role.
func RegisterRoutes(r chi.Router, h *SchoolHandler, authMiddlewares ...func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddlewares...)
		r.Use(client.RequireRole(client.RoleAdmin))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Handler returns a http.Handler for the school API
func Handler(h *SchoolHandler) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, h)
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
		slog.Error("School request failed", "path", r.URL.Path, "error", err)
		response.Message = "Internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, response)
}
