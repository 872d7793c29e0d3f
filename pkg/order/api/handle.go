package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/ukhsc/ukhsc-system-backend/pkg/client"
	apperrors "github.com/ukhsc/ukhsc-system-backend/pkg/errors"
	"github.com/ukhsc/ukhsc-system-backend/pkg/order"
	"github.com/ukhsc/ukhsc-system-backend/pkg/validator"
)

// OrderHandler handles HTTP requests for membership orders
type OrderHandler struct {
	orderService *order.OrderService
	validator    *validator.Validator
}

func NewOrderHandler(orderService *order.OrderService, v *validator.Validator) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    v,
	}
}

type CreateOrderRequest struct {
	Plan string `json:"plan" validate:"required,oneof=annual semester"`
}

type UpdateOrderRequest struct {
	Status string `json:"status" validate:"required,oneof=paid cancelled"`
}

type OrderResponse struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	SchoolID  string    `json:"school_id"`
	Plan      string    `json:"plan"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func toResponse(o order.Order) OrderResponse {
	var resp OrderResponse
	copier.Copy(&resp, &o)
	resp.ID = o.ID.String()
	resp.MemberID = o.MemberID.String()
	resp.SchoolID = o.SchoolID.String()
	resp.Amount = o.Amount.StringFixed(2)
	return resp
}

func toResponses(orders []order.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toResponse(o))
	}
	return resp
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderAppError(w, r, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if errs := h.validator.ValidateStructured(&req); errs != nil {
		renderAppError(w, r, apperrors.ValidationFailed(errs))
		return
	}

	o, err := h.orderService.Create(r.Context(), authUser.UserID, order.Plan(req.Plan))
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	slog.Info("Order created", "order", o.ID, "member", o.MemberID, "plan", o.Plan, "amount", o.Amount.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toResponse(o))
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	orders, err := h.orderService.ListForMember(r.Context(), authUser.UserID)
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponses(orders))
}

// ListSchoolOrders serves GET /schools/{id}/orders for administrators.
func (h *OrderHandler) ListSchoolOrders(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderAppError(w, r, apperrors.InvalidInput("school id", err.Error()))
		return
	}

	orders, err := h.orderService.ListForSchool(r.Context(), schoolID)
	if err != nil {
		renderAppError(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponses(orders))
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		renderAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderAppError(w, r, apperrors.InvalidInput("order id", err.Error()))
		return
	}

	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderAppError(w, r, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if errs := h.validator.ValidateStructured(&req); errs != nil {
		renderAppError(w, r, apperrors.ValidationFailed(errs))
		return
	}

	o, err := h.orderService.UpdateStatus(r.Context(), orderID, order.Status(req.Status), authUser.UserID, client.IsAdmin(authUser))
	if err != nil {
		renderAppError(w, r, err)
		return
	}

	slog.Info("Order status changed", "order", o.ID, "status", o.Status, "by", authUser.UserID)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toResponse(o))
}

// Handler returns a http.Handler for the /orders API
func Handler(h *OrderHandler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListMine)
	r.Patch("/{id}", h.UpdateStatus)

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
		slog.Error("Order request failed", "path", r.URL.Path, "error", err)
		response.Message = "Internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, response)
}
